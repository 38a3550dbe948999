package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/wodwiki/internal/compiler"
	"github.com/roach88/wodwiki/internal/ir"
)

// Forest is the document compile writes and run accepts in place of a
// script: the forest plus the text it was compiled from.
type Forest struct {
	IRVersion  string             `json:"ir_version"`
	ScriptHash string             `json:"script_hash"`
	Source     string             `json:"source"`
	Nodes      []ir.StatementNode `json:"nodes"`
}

// Script is a loaded workout ready to run.
type Script struct {
	Path   string
	Source string
	Nodes  []ir.StatementNode

	// Syntax holds the lines that failed to parse. Always empty for a
	// forest loaded from JSON.
	Syntax []*compiler.SyntaxError

	// FromForest is true when Path held a compiled forest.
	FromForest bool
}

// LoadError represents an error that occurred while loading a script.
type LoadError struct {
	Code    string
	Message string
	Line    int // script line, when known
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Code, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadScript reads a workout script or a compiled forest (.json). Syntax
// errors do not fail the load; callers decide whether to accept them.
func LoadScript(path string) (*Script, error) {
	data, err := readScriptFile(path)
	if err != nil {
		return nil, err
	}

	if isForestPath(path) {
		doc, err := decodeForest(data)
		if err != nil {
			return nil, err
		}
		if errs := compiler.Validate(doc.Nodes); len(errs) > 0 {
			return nil, &LoadError{Code: ErrCodeInvalidForest, Message: errs[0].Error(), Line: errs[0].Line}
		}
		return &Script{
			Path:       path,
			Source:     doc.Source,
			Nodes:      doc.Nodes,
			FromForest: true,
		}, nil
	}

	result := compiler.Compile(string(data))
	return &Script{
		Path:   path,
		Source: result.Source,
		Nodes:  result.Nodes,
		Syntax: result.Errors,
	}, nil
}

func readScriptFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("script not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading script: %v", err)}
	}
	return data, nil
}

func isForestPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// decodeForest decodes a compiled forest without checking its structure.
func decodeForest(data []byte) (*Forest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc Forest
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidForest, Message: fmt.Sprintf("decoding forest: %v", err)}
	}
	if doc.IRVersion != ir.IRVersion {
		return nil, &LoadError{
			Code:    ErrCodeInvalidForest,
			Message: fmt.Sprintf("forest version %q, want %q", doc.IRVersion, ir.IRVersion),
		}
	}
	return &doc, nil
}

// NewForest builds the compile output for a script.
func NewForest(s *Script) Forest {
	nodes := s.Nodes
	if nodes == nil {
		nodes = []ir.StatementNode{}
	}
	return Forest{
		IRVersion:  ir.IRVersion,
		ScriptHash: ir.ScriptHash(s.Source),
		Source:     s.Source,
		Nodes:      nodes,
	}
}

// syntaxLoadErrors converts syntax errors for output.
func syntaxLoadErrors(errs []*compiler.SyntaxError) []*LoadError {
	out := make([]*LoadError, len(errs))
	for i, e := range errs {
		out[i] = &LoadError{Code: ErrCodeSyntax, Message: e.Message, Line: e.Line}
	}
	return out
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
