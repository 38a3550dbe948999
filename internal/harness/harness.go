package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/wodwiki/internal/compiler"
	"github.com/roach88/wodwiki/internal/driver"
	"github.com/roach88/wodwiki/internal/engine"
	"github.com/roach88/wodwiki/internal/testutil"
)

// maxSettleCycles bounds the follow-up drain after each step. A chain of
// follow-ups is at most a few cycles deep; hitting the bound means the
// runtime is looping.
const maxSettleCycles = 16

// Harness runs one scenario against a fresh runtime with a manual clock.
type Harness struct {
	rt     *engine.Runtime
	driver *driver.Driver
	clock  *testutil.ManualClock
	result *Result
	logger *slog.Logger

	// batch is the input of the cycle in flight, captured by RecordCycle.
	batch []engine.Event
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Compile the script; syntax errors fail the run
//  2. Build a runtime and a driver sharing a manual clock
//  3. Play each step, draining follow-ups after it
//  4. Evaluate assertions against the final runtime
//
// Run only returns an error when the scenario cannot start. Runtime
// failures and assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	compiled := compiler.Compile(scenario.Script)
	if err := compiled.Err(); err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}

	h := &Harness{
		clock:  testutil.NewManualClock(time.Time{}),
		result: NewResult(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	rt, err := engine.New(scenario.Script, compiled.Nodes,
		engine.WithNow(h.clock.Now),
		engine.WithExporter(engine.ExporterFunc(h.export)),
	)
	if err != nil {
		return nil, fmt.Errorf("build runtime: %w", err)
	}
	h.rt = rt

	d, err := driver.New(rt, driver.WithNow(h.clock.Now), driver.WithRecorder(h))
	if err != nil {
		return nil, fmt.Errorf("build driver: %w", err)
	}
	h.driver = d

	if err := h.play(ctx, scenario.Steps); err != nil {
		h.result.AddError(err.Error())
	}

	actx := &AssertionContext{Runtime: rt, State: d.State()}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) play(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		at, err := step.Offset()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		h.clock.Advance(at - h.clock.Offset(testutil.Epoch))

		if step.Click != "" {
			b, ok := engine.FindButton(step.Click, engine.AllButtons)
			if !ok {
				return fmt.Errorf("step %d: unknown button %q", i, step.Click)
			}
			h.driver.Click(b)
		}
		for _, name := range step.Events {
			h.driver.Submit(engine.NewEvent(name, h.clock.Now()))
		}

		cycles := max(step.Cycles, 1)
		for n := 0; n < cycles; n++ {
			if err := h.cycle(ctx); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
		if err := h.settle(ctx); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		h.logger.Info("step completed", "step", i, "at", at, "state", h.driver.State())
	}
	return nil
}

// settle runs cycles at the current time until no follow-ups are pending.
func (h *Harness) settle(ctx context.Context) error {
	for n := 0; len(h.driver.Pending()) > 0; n++ {
		if n >= maxSettleCycles {
			return fmt.Errorf("follow-ups still pending after %d cycles", maxSettleCycles)
		}
		if err := h.cycle(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) cycle(ctx context.Context) error {
	err := h.driver.Cycle(ctx)

	trace := CycleTrace{
		Cycle:   h.rt.Cycle(),
		Events:  h.describe(h.batch),
		State:   string(h.driver.State()),
		Results: len(h.rt.Results()),
		History: len(h.rt.History()),
	}
	if cursor := h.rt.Cursor(); cursor != nil {
		id := cursor.ID
		trace.Cursor = &id
	}
	h.result.Cycles = append(h.result.Cycles, trace)
	h.batch = nil
	return err
}

// RecordCycle captures each cycle's input batch from the driver.
func (h *Harness) RecordCycle(_ context.Context, _ int64, events []engine.Event) error {
	h.batch = append([]engine.Event(nil), events...)
	return nil
}

func (h *Harness) describe(events []engine.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = fmt.Sprintf("%s@%s", ev.Name, ev.Timestamp.Sub(testutil.Epoch))
	}
	return out
}

func (h *Harness) export(_ context.Context, source string, history []string) error {
	h.result.Exports = append(h.result.Exports, engine.ExportDocument(source, history))
	return nil
}
