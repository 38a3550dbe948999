// Package compiler turns workout script text into a statement forest.
//
// Compile runs the lexer, the parser and forest assembly. Syntax errors do
// not abort a compile: the failing lines are reported in Result.Errors and
// every other line still becomes a node.
package compiler

import (
	"errors"

	"github.com/roach88/wodwiki/internal/ir"
	"github.com/roach88/wodwiki/internal/parser"
)

// SyntaxError is a script line that could not be parsed.
type SyntaxError = parser.SyntaxError

// Result is the output of a compile.
type Result struct {
	Source string
	Nodes  []ir.StatementNode
	Errors []*SyntaxError
}

// Compile compiles source text. It never returns nil.
func Compile(source string) *Result {
	stmts, errs := parser.ParseSource(source)
	return &Result{
		Source: source,
		Nodes:  BuildForest(stmts),
		Errors: errs,
	}
}

// Err joins the syntax errors, or returns nil when there are none.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Canonical returns the forest as canonical JSON.
func (r *Result) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(r.Nodes)
}

// Hash identifies the compiled source.
func (r *Result) Hash() string {
	return ir.ScriptHash(r.Source)
}
