package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wodwiki/internal/compiler"
)

const loopForest = `{"ir_version":"1","source":"Row\nBike","script_hash":"","nodes":[
{"id":0,"next":6,"rounds":1,"children":[],"fragments":[{"kind":"effort","text":"Row","meta":{"line":1,"column_start":1,"column_end":4,"start_offset":0,"end_offset":3}}],"meta":{"line":1,"column_start":1,"column_end":4,"start_offset":0,"end_offset":3},"is_leaf":false},
{"id":6,"next":0,"rounds":1,"children":[],"fragments":[{"kind":"effort","text":"Bike","meta":{"line":2,"column_start":1,"column_end":5,"start_offset":4,"end_offset":8}}],"meta":{"line":2,"column_start":1,"column_end":5,"start_offset":4,"end_offset":8},"is_leaf":false}]}`

func TestValidateScriptValid(t *testing.T) {
	path := writeFile(t, "cindy.wod", "(3) :10 Cindy")

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Script valid")
	assert.NotContains(t, out, "⚠")
}

func TestValidateScriptSyntaxErrors(t *testing.T) {
	path := writeFile(t, "broken.wod", "10 Pullups\n[Rest\n5 Pushups")

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "line 2")
	assert.Contains(t, out, compiler.ErrSyntax)
}

func TestValidateForestLoopIsWarning(t *testing.T) {
	path := writeFile(t, "loop.json", loopForest)

	result, err := ValidateScript(path)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 2, result.Nodes)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, []int{0, 6, 0}, result.Warnings[0].Path)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "⚠ climb loop detected: 0 → 6 → 0")
}

func TestValidateForestErrorsJSON(t *testing.T) {
	path := writeFile(t, "bad.json", `{"ir_version":"1","source":"","script_hash":"","nodes":[
{"id":0,"parent":0,"rounds":0,"children":[],"fragments":[],"meta":{"line":1,"column_start":1,"column_end":1,"start_offset":0,"end_offset":0},"is_leaf":false}]}`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)

	codes := make([]string, len(resp.Data.Errors))
	for i, e := range resp.Data.Errors {
		codes[i] = e.Code
	}
	assert.ElementsMatch(t, []string{compiler.ErrInvalidRounds, compiler.ErrEmptyNode, compiler.ErrSelfReference}, codes)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrInvalidRounds, resp.Error.Code)
}

func TestValidateMissingFile(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing.wod"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
