package engine

import (
	"maps"
	"time"

	"github.com/roach88/wodwiki/internal/ir"
)

// Display bag keys.
const (
	ClockElapsed   = "elapsed"
	ClockRemaining = "remaining"
	ClockTarget    = "target"
	ClockTotal     = "total"
)

// IdleLabel is shown while no statement is active.
const IdleLabel = "idle"

// DoneLabel is shown once the script has run out.
const DoneLabel = "done"

// Display is what the timer face shows: a primary clock, a label and named
// sub-clocks.
type Display struct {
	Primary ir.Duration            `json:"primary"`
	Label   string                 `json:"label"`
	Bag     map[string]ir.Duration `json:"bag"`
}

// Equal reports whether two displays would render identically.
func (d Display) Equal(o Display) bool {
	return d.Primary == o.Primary && d.Label == o.Label && maps.Equal(d.Bag, o.Bag)
}

func idleDisplay() Display {
	return Display{Label: IdleLabel, Bag: map[string]ir.Duration{}}
}

// displayFor computes the display for block b at now. Durations come only
// from recorded timestamps, so a late cycle catches up on its own.
func displayFor(b *Block, results []ResultSpan, now time.Time) Display {
	var total time.Duration
	for _, s := range results {
		total += s.Duration(now)
	}

	if b == nil {
		return idleDisplay()
	}
	switch b.Kind {
	case BlockActive:
		elapsed := b.Elapsed(now)
		d := Display{
			Primary: ir.FromDuration(elapsed),
			Label:   b.Label,
			Bag: map[string]ir.Duration{
				ClockElapsed: ir.FromDuration(elapsed),
				ClockTotal:   ir.FromDuration(total + elapsed),
			},
		}
		if !b.Target.IsZero() {
			d.Bag[ClockTarget] = b.Target
		}
		if b.Countdown {
			remaining := ir.FromDuration(b.Target.Std() - elapsed)
			d.Primary = remaining
			d.Bag[ClockRemaining] = remaining
		}
		return d
	case BlockDone:
		return Display{
			Primary: ir.FromDuration(total),
			Label:   DoneLabel,
			Bag:     map[string]ir.Duration{ClockTotal: ir.FromDuration(total)},
		}
	}
	return idleDisplay()
}
