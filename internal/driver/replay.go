package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/wodwiki/internal/engine"
)

// Batch is the recorded input of one cycle.
type Batch struct {
	Cycle  int64          `json:"cycle" yaml:"cycle"`
	Events []engine.Event `json:"events" yaml:"events"`
}

// Replay re-drives rt with recorded batches.
//
// Each batch already holds the follow-ups of the cycle before it, so the
// events Tick returns are dropped. Timestamps come from the journal and
// never from the wall clock, which makes a replay reproduce the original
// results exactly. Batches must be in increasing cycle order.
func Replay(ctx context.Context, rt *engine.Runtime, batches []Batch) error {
	var last int64
	for i, b := range batches {
		if i > 0 && b.Cycle <= last {
			return fmt.Errorf("replay: cycle %d after cycle %d", b.Cycle, last)
		}
		last = b.Cycle

		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := rt.Tick(ctx, b.Events); err != nil {
			return fmt.Errorf("replay cycle %d: %w", b.Cycle, err)
		}
	}
	slog.Debug("replay finished", "cycles", len(batches), "state", rt.State())
	return nil
}
