package compiler

import (
	"fmt"

	"github.com/roach88/wodwiki/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrSyntax = "E100" // line failed to parse

	// Forest structure errors (E101-E109)
	ErrDuplicateID   = "E101" // two nodes share an id
	ErrUnknownChild  = "E102" // child id does not resolve
	ErrUnknownParent = "E103" // parent id does not resolve
	ErrUnknownNext   = "E104" // next id does not resolve
	ErrInvalidRounds = "E105" // rounds below 1
	ErrEmptyNode     = "E106" // node without fragments
	ErrSelfReference = "E107" // node is its own parent, child or next
)

// ValidationError represents a forest validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// SyntaxValidationErrors converts syntax errors into E100 entries so the
// validate command reports one list.
func SyntaxValidationErrors(errs []*SyntaxError) []ValidationError {
	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		out = append(out, ValidationError{
			Field:   fmt.Sprintf("line %d:%d", e.Line, e.Column),
			Message: e.Message,
			Code:    ErrSyntax,
			Line:    e.Line,
		})
	}
	return out
}

// Validate checks forest structure. Returns all errors found (does not
// fail-fast). Forests from Compile always pass; forests loaded from JSON
// may not.
func Validate(nodes []ir.StatementNode) []ValidationError {
	var errs []ValidationError

	ids := make(map[int]bool, len(nodes))
	for i, n := range nodes {
		if ids[n.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("nodes[%d].id", i),
				Message: fmt.Sprintf("duplicate node id %d", n.ID),
				Code:    ErrDuplicateID,
				Line:    n.Meta.Line,
			})
		}
		ids[n.ID] = true
	}

	for i, n := range nodes {
		if n.Rounds < 1 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("nodes[%d].rounds", i),
				Message: fmt.Sprintf("rounds must be at least 1, got %d", n.Rounds),
				Code:    ErrInvalidRounds,
				Line:    n.Meta.Line,
			})
		}

		if len(n.Fragments) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("nodes[%d].fragments", i),
				Message: "node has no fragments",
				Code:    ErrEmptyNode,
				Line:    n.Meta.Line,
			})
		}

		for j, child := range n.Children {
			field := fmt.Sprintf("nodes[%d].children[%d]", i, j)
			if child == n.ID {
				errs = append(errs, selfReference(field, n))
				continue
			}
			if !ids[child] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("child id %d does not exist", child),
					Code:    ErrUnknownChild,
					Line:    n.Meta.Line,
				})
			}
		}

		if n.Parent != nil {
			field := fmt.Sprintf("nodes[%d].parent", i)
			switch {
			case *n.Parent == n.ID:
				errs = append(errs, selfReference(field, n))
			case !ids[*n.Parent]:
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("parent id %d does not exist", *n.Parent),
					Code:    ErrUnknownParent,
					Line:    n.Meta.Line,
				})
			}
		}

		if n.Next != nil {
			field := fmt.Sprintf("nodes[%d].next", i)
			switch {
			case *n.Next == n.ID:
				errs = append(errs, selfReference(field, n))
			case !ids[*n.Next]:
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("next id %d does not exist", *n.Next),
					Code:    ErrUnknownNext,
					Line:    n.Meta.Line,
				})
			}
		}
	}

	return errs
}

func selfReference(field string, n ir.StatementNode) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("node %d references itself", n.ID),
		Code:    ErrSelfReference,
		Line:    n.Meta.Line,
	}
}
