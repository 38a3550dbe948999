package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteResult pairs a scenario file with its outcome. Err is set when the
// scenario could not be loaded or started.
type SuiteResult struct {
	Path   string  `json:"path"`
	Name   string  `json:"name,omitempty"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// Passed reports whether the scenario loaded, ran and passed.
func (r SuiteResult) Passed() bool {
	return r.Err == nil && r.Result != nil && r.Result.Pass
}

// FindScenarios returns the scenario files under path in lexical order. A
// file path is returned as is.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite loads and runs every scenario file. It never stops early; each
// file gets a SuiteResult.
func RunSuite(ctx context.Context, paths []string) []SuiteResult {
	out := make([]SuiteResult, 0, len(paths))
	for _, p := range paths {
		sr := SuiteResult{Path: p}
		scenario, err := LoadScenario(p)
		if err != nil {
			sr.Err = err
			out = append(out, sr)
			continue
		}
		sr.Name = scenario.Name
		sr.Result, sr.Err = RunContext(ctx, scenario)
		out = append(out, sr)
	}
	return out
}
