package harness

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/wodwiki/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes the cycle trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Cycles   []CycleTrace // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Cycles) > 0 {
		fmt.Fprintf(&buf, "\nCycles:\n")
		for _, c := range e.Cycles {
			fmt.Fprintf(&buf, "  [%d] %s -> %s\n", c.Cycle, strings.Join(c.Events, " "), c.State)
		}
	}
	return buf.String()
}

// AssertionContext carries the finished run.
type AssertionContext struct {
	Runtime *engine.Runtime
	// State is the driver's view, which reports error after a failed cycle.
	State engine.State
}

// sameLabel compares labels the way a reader would: "CINDY" and "cindy"
// name the same effort. A Caser is stateful, so each call gets its own.
func sameLabel(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}

func assertResultsCount(result *Result, actx *AssertionContext, a Assertion) error {
	got := len(actx.Runtime.Results())
	if got != a.Count {
		return &AssertionError{
			Type:     AssertResultsCount,
			Expected: fmt.Sprintf("%d result spans", a.Count),
			Actual:   fmt.Sprintf("%d result spans", got),
			Cycles:   result.Cycles,
		}
	}
	return nil
}

func assertResultLabels(result *Result, actx *AssertionContext, a Assertion) error {
	spans := actx.Runtime.Results()
	got := make([]string, len(spans))
	for i, s := range spans {
		got[i] = s.Label
	}

	match := len(got) == len(a.Labels)
	for i := 0; match && i < len(got); i++ {
		match = sameLabel(got[i], a.Labels[i])
	}
	if !match {
		return &AssertionError{
			Type:     AssertResultLabels,
			Expected: fmt.Sprintf("labels %q", a.Labels),
			Actual:   fmt.Sprintf("labels %q", got),
			Cycles:   result.Cycles,
		}
	}
	return nil
}

func assertFinalState(result *Result, actx *AssertionContext, a Assertion) error {
	if string(actx.State) != a.State {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("state %s", a.State),
			Actual:   fmt.Sprintf("state %s", actx.State),
			Cycles:   result.Cycles,
		}
	}
	return nil
}

func assertVisits(result *Result, actx *AssertionContext, a Assertion) error {
	if _, ok := actx.Runtime.Stack().GetID(a.Node); !ok {
		return fmt.Errorf("visits: node %d does not exist", a.Node)
	}
	got := actx.Runtime.Trace().GetTotal(a.Node)
	if got != a.Count {
		return &AssertionError{
			Type:     AssertVisits,
			Expected: fmt.Sprintf("node %d visited %d times", a.Node, a.Count),
			Actual:   fmt.Sprintf("%d visits", got),
			Cycles:   result.Cycles,
		}
	}
	return nil
}

func assertHistoryLength(result *Result, actx *AssertionContext, a Assertion) error {
	history := actx.Runtime.History()
	if len(history) != a.Count {
		return &AssertionError{
			Type:     AssertHistoryLength,
			Expected: fmt.Sprintf("%d history entries", a.Count),
			Actual:   fmt.Sprintf("%d history entries %q", len(history), history),
			Cycles:   result.Cycles,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the finished run.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		if actx == nil || actx.Runtime == nil {
			err = fmt.Errorf("assertion[%d]: no runtime to assert against", i)
		} else {
			switch assertion.Type {
			case AssertResultsCount:
				err = assertResultsCount(result, actx, assertion)
			case AssertResultLabels:
				err = assertResultLabels(result, actx, assertion)
			case AssertFinalState:
				err = assertFinalState(result, actx, assertion)
			case AssertVisits:
				err = assertVisits(result, actx, assertion)
			case AssertHistoryLength:
				err = assertHistoryLength(result, actx, assertion)
			default:
				err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
			}
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
