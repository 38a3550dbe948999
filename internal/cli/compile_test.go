package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wodwiki/internal/ir"
)

func TestCompileScript(t *testing.T) {
	path := writeFile(t, "cindy.wod", "(3) :10 Cindy")

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 2 statement(s)")
	assert.Contains(t, out, "roots: 1, leaves: 1, timed: 1")
	assert.Contains(t, out, ir.ScriptHash("(3) :10 Cindy"))
}

func TestCompileScriptJSON(t *testing.T) {
	path := writeFile(t, "cindy.wod", "(3) :10 Cindy")

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   Forest `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ir.IRVersion, resp.Data.IRVersion)
	assert.Equal(t, "(3) :10 Cindy", resp.Data.Source)
	require.Len(t, resp.Data.Nodes, 2)
	assert.Equal(t, 3, resp.Data.Nodes[0].Rounds)
}

func TestCompileOutputToFileRoundTrips(t *testing.T) {
	path := writeFile(t, "rounds.wod", "(2)\n  10 Pullups\n  20 Pushups")
	outFile := filepath.Join(t.TempDir(), "rounds.json")

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), path, "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote forest to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	want, err := ir.MarshalCanonical(NewForest(&Script{Source: "(2)\n  10 Pullups\n  20 Pushups", Nodes: mustCompile(t, "(2)\n  10 Pullups\n  20 Pushups")}))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))

	script, err := LoadScript(outFile)
	require.NoError(t, err)
	assert.True(t, script.FromForest)
	assert.Equal(t, "(2)\n  10 Pullups\n  20 Pushups", script.Source)
	assert.Len(t, script.Nodes, 3)
}

func TestCompileSyntaxErrors(t *testing.T) {
	path := writeFile(t, "broken.wod", "10 Pullups\n[Rest\n5 Pushups")

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "compilation failed with 1 error(s)")
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, path+":2")
	assert.Contains(t, out, ErrCodeSyntax)
}

func TestCompileSyntaxErrorsJSON(t *testing.T) {
	path := writeFile(t, "broken.wod", "10 Pullups\n[Rest\n5 Pushups")

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSyntax, resp.Error.Code)
}

func TestCompileMissingScript(t *testing.T) {
	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope.wod"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "script not found")
}
