package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rowScenario = `name: row
description: "Row until ended"
script: Row
steps:
  - at: 0s
    click: Run
  - at: 1m
    click: End
assertions:
  - type: results_count
    count: 1
  - type: final_state
    state: done
`

const wrongCountScenario = `name: wrong_count
description: "Asserts more spans than the run produces"
script: Row
steps:
  - at: 0s
    click: Run
  - at: 1m
    click: End
assertions:
  - type: results_count
    count: 3
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"row.yaml": rowScenario})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ row (golden updated)")
	assert.FileExists(t, filepath.Join(dir, "golden", "row.golden"))

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ row\n")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"row.yaml": rowScenario})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "row.golden"), []byte("{}\n"), 0o644))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ row")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_FailingAssertionJSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"row.yaml":         rowScenario,
		"wrong_count.yaml": wrongCountScenario,
	})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)

	for _, s := range resp.Data.Scenarios {
		if s.Name == "wrong_count" {
			assert.False(t, s.Pass)
			require.NotEmpty(t, s.Errors)
			assert.Contains(t, s.Errors[0], "results_count")
		}
	}
}

func TestTestCommand_Filter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"row.yaml":         rowScenario,
		"wrong_count.yaml": wrongCountScenario,
	})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "ro*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "wrong_count")

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "nothing*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingPath(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestFilterScenarios(t *testing.T) {
	files := []string{"a/plank.yaml", "a/cindy.yml", "b/plank_intervals.yaml"}

	got, err := filterScenarios(files, "plank*")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/plank.yaml", "b/plank_intervals.yaml"}, got)

	got, err = filterScenarios(files, "")
	require.NoError(t, err)
	assert.Equal(t, files, got)

	_, err = filterScenarios(files, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "cindy.golden"), goldenFilePath(filepath.Join("scenarios", "cindy.yaml")))
}
