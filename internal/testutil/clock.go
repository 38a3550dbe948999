package testutil

import (
	"sync"
	"time"
)

// ManualClock is a wall clock that only moves when a test moves it.
//
// Drivers and runtimes take a now func; passing clock.Now makes every
// timestamp in a run predictable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// Epoch is the default start of a ManualClock.
var Epoch = time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC)

// NewManualClock creates a clock reading start. A zero start uses Epoch.
func NewManualClock(start time.Time) *ManualClock {
	if start.IsZero() {
		start = Epoch
	}
	return &ManualClock{now: start}
}

// Now returns the current reading.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new reading.
// Negative durations are ignored; the clock never goes back.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return c.now
}

// Offset returns the time elapsed since start.
func (c *ManualClock) Offset(start time.Time) time.Duration {
	return c.Now().Sub(start)
}
