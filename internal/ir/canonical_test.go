package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"bool", true, "true"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array of ints", []any{1, 2, 3}, "[1,2,3]"},
		{"no html escape", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"beta":  map[string]any{"b": 1, "a": 2},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalStruct(t *testing.T) {
	meta := SourceMeta{Line: 1, ColumnStart: 2, ColumnEnd: 3, StartOffset: 4, EndOffset: 5}

	result, err := MarshalCanonical(meta)
	require.NoError(t, err)
	assert.Equal(t,
		`{"column_end":3,"column_start":2,"end_offset":5,"line":1,"start_offset":4}`,
		string(result))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(struct {
		F float64 `json:"f"`
	}{F: 2.25})
	assert.Error(t, err)
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(result))

	// A literal backslash followed by "u2028" stays escaped.
	result, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(result))
}
