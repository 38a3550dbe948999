package engine

import "sync/atomic"

// Clock numbers processing cycles.
//
// Every call to Runtime.Tick takes the next cycle number. The driver records
// input batches under that number so a journal replays in the same order.
//
// Thread-safety: Clock is safe for concurrent use, although only the
// goroutine driving the Runtime advances it.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific cycle number.
// Used when a driver resumes numbering after a replay.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new cycle number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last cycle number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
