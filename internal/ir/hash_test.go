package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptHash(t *testing.T) {
	a := ScriptHash("(3) :10 Cindy")
	assert.Len(t, a, 64)
	assert.Equal(t, a, ScriptHash("(3) :10 Cindy"))
	assert.NotEqual(t, a, ScriptHash("(4) :10 Cindy"))

	// NFC-equivalent sources hash identically.
	assert.Equal(t, ScriptHash("Caf\u00e9"), ScriptHash("Cafe\u0301"))
}

func TestForestHash(t *testing.T) {
	nodes := []StatementNode{{ID: 0, Rounds: 1, Children: []int{}, Fragments: []Fragment{NewRep(5, SourceMeta{})}}}

	a, err := ForestHash(nodes)
	require.NoError(t, err)
	b, err := ForestHash(nodes)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, ScriptHash("x"))
}
