package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One run"
script: "Row"
steps:
  - at: 0s
    click: Run
assertions:
  - type: final_state
    state: running
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario), "")
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "Row", s.Script)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "Run", s.Steps[0].Click)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, AssertFinalState, s.Assertions[0].Type)
}

func TestParseScenario_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty document",
			yaml:    "",
			wantErr: "invalid scenario",
		},
		{
			name: "missing script",
			yaml: `
name: x
description: "d"
steps: [{at: 0s}]
assertions: [{type: final_state, state: idle}]
`,
			wantErr: "invalid scenario",
		},
		{
			name: "both script and script_file",
			yaml: `
name: x
description: "d"
script: "Row"
script_file: row.wod
steps: [{at: 0s}]
assertions: [{type: final_state, state: idle}]
`,
			wantErr: "invalid scenario",
		},
		{
			name: "unknown top-level field",
			yaml: `
name: x
description: "d"
script: "Row"
steps: [{at: 0s}]
assertion: [{type: final_state, state: idle}]
`,
			wantErr: "invalid scenario",
		},
		{
			name: "unknown button",
			yaml: `
name: x
description: "d"
script: "Row"
steps: [{at: 0s, click: Jump}]
assertions: [{type: final_state, state: idle}]
`,
			wantErr: "invalid scenario",
		},
		{
			name: "count missing",
			yaml: `
name: x
description: "d"
script: "Row"
steps: [{at: 0s}]
assertions: [{type: results_count}]
`,
			wantErr: "invalid scenario",
		},
		{
			name: "numeric offset",
			yaml: `
name: x
description: "d"
script: "Row"
steps: [{at: 5}]
assertions: [{type: final_state, state: idle}]
`,
			wantErr: "invalid scenario",
		},
		{
			name: "offsets go backwards",
			yaml: `
name: x
description: "d"
script: "Row"
steps: [{at: 10s}, {at: 5s}]
assertions: [{type: final_state, state: idle}]
`,
			wantErr: "before the previous step",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingScriptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	content := `
name: x
description: "d"
script_file: missing.wod
steps: [{at: 0s}]
assertions: [{type: final_state, state: idle}]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read script file")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "cindy_rounds.yaml"),
		filepath.Join("testdata", "scenarios", "pause_resume.yaml"),
		filepath.Join("testdata", "scenarios", "plank_intervals.yaml"),
	}, files)

	single, err := FindScenarios(files[0])
	require.NoError(t, err)
	assert.Equal(t, files[:1], single)
}

func TestRunSuite(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [\n"), 0o644))

	paths := []string{
		filepath.Join("testdata", "scenarios", "cindy_rounds.yaml"),
		bad,
	}
	results := RunSuite(t.Context(), paths)
	require.Len(t, results, 2)

	assert.True(t, results[0].Passed())
	assert.Equal(t, "cindy_rounds", results[0].Name)
	assert.False(t, results[1].Passed())
	assert.Error(t, results[1].Err)
}
