package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestRun_PlankIntervalsGolden(t *testing.T) {
	scenario := loadTestScenario(t, "plank_intervals")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Cycles, 7)
	assert.Nil(t, result.Cycles[6].Cursor)
}

func TestRun_CindyRounds(t *testing.T) {
	result, err := Run(loadTestScenario(t, "cindy_rounds"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "done", result.Cycles[len(result.Cycles)-1].State)
}

func TestRun_PauseResumeFromScriptFile(t *testing.T) {
	scenario := loadTestScenario(t, "pause_resume")
	assert.Equal(t, "2:00 Row\n", scenario.Script)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:   "wrong_expectations",
		Script: "Plank",
		Steps: []Step{
			{At: "0s", Click: "Run"},
			{At: "3s", Click: "End"},
		},
		Assertions: []Assertion{
			{Type: AssertResultsCount, Count: 2},
			{Type: AssertResultLabels, Labels: []string{"Pushups"}},
			{Type: AssertFinalState, State: "idle"},
			{Type: AssertVisits, Node: 99, Count: 1},
			{Type: AssertHistoryLength, Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Assertion failed: results_count")
	assert.Contains(t, result.Errors[0], "Actual: 1 result spans")
	assert.Contains(t, result.Errors[1], `labels ["Plank"]`)
	assert.Contains(t, result.Errors[2], "Actual: state done")
	assert.Contains(t, result.Errors[3], "node 99 does not exist")
}

func TestRun_SaveCollectsExports(t *testing.T) {
	scenario := &Scenario{
		Name:   "save",
		Script: "Plank",
		Steps: []Step{
			{At: "0s", Click: "Run"},
			{At: "3s", Click: "End"},
			{At: "4s", Click: "Save"},
		},
		Assertions: []Assertion{{Type: AssertFinalState, State: "done"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Exports, 1)
	assert.Equal(t, "Plank\n\n1|0:1", result.Exports[0])
}

func TestRun_CyclesPerStep(t *testing.T) {
	scenario := &Scenario{
		Name:       "idle_ticks",
		Script:     "Plank",
		Steps:      []Step{{At: "0s", Cycles: 3}},
		Assertions: []Assertion{{Type: AssertFinalState, State: "idle"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	require.Len(t, result.Cycles, 3)
	for _, c := range result.Cycles {
		assert.Equal(t, []string{"tick@0s"}, c.Events)
	}
}

func TestRun_SyntaxErrorStopsRun(t *testing.T) {
	scenario := &Scenario{
		Name:       "broken",
		Script:     "[Rest",
		Steps:      []Step{{At: "0s"}},
		Assertions: []Assertion{{Type: AssertFinalState, State: "idle"}},
	}
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile script")
}
