package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wodwiki/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Cycles int      `json:"cycles"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run scenario files against the runtime",
		Long: `Run YAML scenarios against the runtime on a simulated clock.

Each scenario names a script, the buttons pressed at given offsets and
the assertions that must hold afterwards. When golden/<name>.golden
exists next to a scenario, the cycle trace must match it as well.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  wodwiki test ./scenarios
  wodwiki test ./scenarios --filter "plank*"
  wodwiki test ./scenarios --update
  wodwiki test ./scenarios/cindy.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenarios not found: %s", path), nil)
	}

	files, err := harness.FindScenarios(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}
	files, err = filterScenarios(files, opts.Filter)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	if len(files) == 0 {
		if formatter.JSON() {
			return outputTestJSON(formatter, result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	for _, sr := range harness.RunSuite(ctx, files) {
		scenResult := checkScenario(sr, opts)
		if !formatter.JSON() {
			printScenario(formatter, scenResult, opts.Update)
		}
		result.Scenarios = append(result.Scenarios, scenResult)
		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// filterScenarios keeps files whose base name, without extension, matches
// the glob pattern.
func filterScenarios(files []string, pattern string) ([]string, error) {
	if pattern == "" {
		return files, nil
	}
	var out []string
	for _, f := range files {
		base := filepath.Base(f)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, f)
		}
	}
	return out, nil
}

// checkScenario folds assertion results and the golden comparison into one
// verdict.
func checkScenario(sr harness.SuiteResult, opts *TestOptions) ScenarioResult {
	out := ScenarioResult{Name: sr.Name, File: sr.Path}
	if out.Name == "" {
		out.Name = filepath.Base(sr.Path)
	}
	if sr.Err != nil {
		out.Errors = []string{sr.Err.Error()}
		return out
	}
	out.Cycles = len(sr.Result.Cycles)

	snapshot := harness.TraceSnapshot{ScenarioName: sr.Name, Cycles: sr.Result.Cycles}
	data, err := snapshot.Canonical()
	if err != nil {
		out.Errors = []string{fmt.Sprintf("marshal trace: %v", err)}
		return out
	}

	goldenPath := goldenFilePath(sr.Path)
	if opts.Update {
		if err := writeGolden(goldenPath, data); err != nil {
			out.Errors = []string{fmt.Sprintf("failed to update golden file: %v", err)}
			return out
		}
	} else {
		golden, err := os.ReadFile(goldenPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// No golden file: assertions alone decide.
		case err != nil:
			out.Errors = []string{fmt.Sprintf("golden comparison failed: %v", err)}
			return out
		case !bytes.Equal(golden, data):
			out.Errors = append(out.Errors, "trace does not match golden file (run with --update to regenerate)")
		}
	}

	out.Errors = append(out.Errors, sr.Result.Errors...)
	out.Pass = len(out.Errors) == 0
	return out
}

// goldenFilePath returns golden/<name>.golden next to the scenario file.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

func printScenario(formatter *OutputFormatter, r ScenarioResult, updated bool) {
	w := formatter.Writer
	if !r.Pass {
		fmt.Fprintf(w, "✗ %s\n", r.Name)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	if updated {
		fmt.Fprintf(w, "✓ %s (golden updated)\n", r.Name)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", r.Name)
	formatter.VerboseLog("  %s: %d cycle(s)", r.File, r.Cycles)
}

func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	if err := formatter.Encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
