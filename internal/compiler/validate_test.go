package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wodwiki/internal/ir"
)

func TestValidate_CompiledForestIsValid(t *testing.T) {
	result := Compile("(3)\n  + 10 Pullups\n  + 20 Pushups\n[Rest] 1:00")
	require.NoError(t, result.Err())
	assert.Empty(t, Validate(result.Nodes))
}

func TestValidate_Errors(t *testing.T) {
	frag := []ir.Fragment{ir.NewRep(5, ir.SourceMeta{})}

	tests := []struct {
		name  string
		nodes []ir.StatementNode
		code  string
		field string
	}{
		{
			name:  "duplicate id",
			nodes: []ir.StatementNode{{ID: 1, Rounds: 1, Fragments: frag}, {ID: 1, Rounds: 1, Fragments: frag}},
			code:  ErrDuplicateID,
			field: "nodes[1].id",
		},
		{
			name:  "unknown child",
			nodes: []ir.StatementNode{{ID: 1, Rounds: 1, Fragments: frag, Children: []int{9}}},
			code:  ErrUnknownChild,
			field: "nodes[0].children[0]",
		},
		{
			name:  "unknown parent",
			nodes: []ir.StatementNode{{ID: 1, Rounds: 1, Fragments: frag, Parent: ir.IntPtr(9)}},
			code:  ErrUnknownParent,
			field: "nodes[0].parent",
		},
		{
			name:  "unknown next",
			nodes: []ir.StatementNode{{ID: 1, Rounds: 1, Fragments: frag, Next: ir.IntPtr(9)}},
			code:  ErrUnknownNext,
			field: "nodes[0].next",
		},
		{
			name:  "zero rounds",
			nodes: []ir.StatementNode{{ID: 1, Fragments: frag}},
			code:  ErrInvalidRounds,
			field: "nodes[0].rounds",
		},
		{
			name:  "no fragments",
			nodes: []ir.StatementNode{{ID: 1, Rounds: 1}},
			code:  ErrEmptyNode,
			field: "nodes[0].fragments",
		},
		{
			name:  "self parent",
			nodes: []ir.StatementNode{{ID: 1, Rounds: 1, Fragments: frag, Parent: ir.IntPtr(1)}},
			code:  ErrSelfReference,
			field: "nodes[0].parent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.nodes)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "nodes[0].rounds", Message: "bad", Code: ErrInvalidRounds, Line: 3}
	assert.Equal(t, "[E105] line 3: nodes[0].rounds: bad", e.Error())

	e.Line = 0
	assert.Equal(t, "[E105] nodes[0].rounds: bad", e.Error())
}

func TestSyntaxValidationErrors(t *testing.T) {
	result := Compile("10 Pullups\n(3 Burpees")
	errs := SyntaxValidationErrors(result.Errors)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrSyntax, errs[0].Code)
	assert.Equal(t, 2, errs[0].Line)
}
