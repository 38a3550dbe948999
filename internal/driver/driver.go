// Package driver runs a Runtime at a fixed cadence.
//
// The Runtime has no timer of its own. The Driver owns the loop: every
// interval it feeds the Runtime the follow-up events of the previous cycle,
// the user events submitted since, and a tick stamped with the current
// time. The loop is the only goroutine that touches the Runtime.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/wodwiki/internal/engine"
)

// DefaultInterval is the cycle cadence when none is configured.
const DefaultInterval = 100 * time.Millisecond

// Recorder persists the input batch of every cycle so the run can be
// replayed.
type Recorder interface {
	RecordCycle(ctx context.Context, cycle int64, events []engine.Event) error
}

// Driver feeds a Runtime on a fixed cadence.
type Driver struct {
	rt       *engine.Runtime
	interval time.Duration
	now      func() time.Time
	recorder Recorder
	inbox    *inbox

	// StopWhenDone ends Run once the Runtime reaches done.
	stopWhenDone bool

	mu      sync.Mutex
	pending []engine.Event
	err     error
}

// Option configures a Driver.
type Option func(*Driver)

// WithInterval sets the cycle cadence.
func WithInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.interval = d
		}
	}
}

// WithNow replaces the wall clock used to stamp ticks.
func WithNow(now func() time.Time) Option {
	return func(dr *Driver) {
		dr.now = now
	}
}

// WithRecorder records every cycle's input batch.
func WithRecorder(r Recorder) Option {
	return func(dr *Driver) {
		dr.recorder = r
	}
}

// StopWhenDone makes Run return once the workout is done.
func StopWhenDone() Option {
	return func(dr *Driver) {
		dr.stopWhenDone = true
	}
}

// New creates a Driver. A nil Runtime is reported as ErrCodeNoRuntime.
func New(rt *engine.Runtime, opts ...Option) (*Driver, error) {
	if rt == nil {
		return nil, &engine.RuntimeError{Code: engine.ErrCodeNoRuntime, Message: "driver needs a runtime"}
	}
	d := &Driver{
		rt:       rt,
		interval: DefaultInterval,
		now:      time.Now,
		inbox:    newInbox(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Submit queues user events for the next cycle.
// Thread-safe: may be called from any goroutine.
func (d *Driver) Submit(events ...engine.Event) bool {
	return d.inbox.Submit(events...)
}

// Click queues a button's events stamped with the current time.
func (d *Driver) Click(b engine.Button) bool {
	return d.Submit(b.Click(d.now())...)
}

// Run cycles the Runtime until ctx is cancelled, a cycle fails, or (with
// StopWhenDone) the workout is done.
//
// CRITICAL: Must be called from exactly ONE goroutine. Cycles never overlap.
func (d *Driver) Run(ctx context.Context) error {
	slog.Info("driver starting", "interval", d.interval)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	defer d.inbox.Close()

	for {
		select {
		case <-ctx.Done():
			slog.Info("driver stopping: context cancelled")
			return ctx.Err()
		case <-ticker.C:
		}

		if err := d.Cycle(ctx); err != nil {
			return err
		}
		if d.stopWhenDone && d.rt.State() == engine.StateDone {
			slog.Info("driver stopping: workout done")
			return nil
		}
	}
}

// Cycle runs one cycle immediately: pending follow-ups, then submitted
// events, then a tick stamped now.
func (d *Driver) Cycle(ctx context.Context) error {
	return d.CycleWith(ctx)
}

// CycleWith runs one cycle like Cycle with events placed after the inbox.
// It works after Run has returned and the inbox no longer accepts events.
func (d *Driver) CycleWith(ctx context.Context, events ...engine.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}

	batch := append(d.pending, d.inbox.Drain()...)
	batch = append(batch, events...)
	batch = append(batch, engine.NewEvent(engine.EventTick, d.now()))
	d.pending = nil

	cycle := d.rt.Cycle() + 1
	if d.recorder != nil {
		if err := d.recorder.RecordCycle(ctx, cycle, batch); err != nil {
			// The journal is best effort; the workout keeps running.
			slog.Warn("record cycle failed", "cycle", cycle, "error", err)
		}
	}

	next, err := d.rt.Tick(ctx, batch)
	if err != nil {
		d.err = fmt.Errorf("driver: %w", err)
		slog.Error("runtime failed", "cycle", cycle, "error", err)
		return d.err
	}
	d.pending = next
	return nil
}

// State reports the Runtime's state, or error once a cycle has failed.
func (d *Driver) State() engine.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return engine.StateError
	}
	return d.rt.State()
}

// Err returns the error that stopped the driver, if any.
func (d *Driver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Pending returns the follow-up events waiting for the next cycle.
func (d *Driver) Pending() []engine.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]engine.Event(nil), d.pending...)
}

// Runtime returns the driven Runtime.
func (d *Driver) Runtime() *engine.Runtime {
	return d.rt
}

// IsFatal reports whether err came from the Runtime failing a cycle.
func IsFatal(err error) bool {
	var re *engine.RuntimeError
	return errors.As(err, &re)
}
