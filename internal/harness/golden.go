package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/wodwiki/internal/ir"
)

// TraceSnapshot captures the cycle trace of a scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Cycles       []CycleTrace `json:"cycles"`
}

// toCanonicalMap converts a snapshot to plain maps so optional fields are
// left out rather than written as null.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	cycles := make([]any, len(s.Cycles))
	for i, c := range s.Cycles {
		events := make([]any, len(c.Events))
		for j, e := range c.Events {
			events[j] = e
		}
		m := map[string]any{
			"cycle":   c.Cycle,
			"events":  events,
			"state":   c.State,
			"results": c.Results,
			"history": c.History,
		}
		if c.Cursor != nil {
			m["cursor"] = *c.Cursor
		}
		cycles[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"cycles":        cycles,
	}
}

// Canonical returns the snapshot as canonical JSON.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its cycle trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{ScenarioName: scenarioName, Cycles: result.Cycles}
	data, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
