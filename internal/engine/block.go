package engine

import (
	"context"
	"slices"
	"time"

	"github.com/roach88/wodwiki/internal/ir"
)

// BlockKind is the role of a runtime block.
type BlockKind int

const (
	BlockIdle BlockKind = iota + 1
	BlockActive
	BlockDone
)

func (k BlockKind) String() string {
	switch k {
	case BlockIdle:
		return "idle"
	case BlockActive:
		return "active"
	case BlockDone:
		return "done"
	}
	return "unknown"
}

// Block is the executable unit the Runtime routes events to.
//
// Idle and Done blocks carry no node. An Active block is compiled by the Jit
// for one committed path and is replaced on the next navigation; the events
// it records are the start/stop pairs its spans are built from.
type Block struct {
	Kind     BlockKind
	ID       int // terminal node id, -1 for idle and done
	Key      StatementKey
	Path     []*ir.StatementNode
	Label    string
	Metrics  []Metric
	Target   ir.Duration // from a duration fragment, zero if none
	Handlers []HandlerKind

	// Countdown is set when the duration counts down to zero.
	Countdown bool

	Events []Event

	expired bool
}

var (
	idleHandlers   = []HandlerKind{HandlerBegin, HandlerTick, HandlerReset}
	activeHandlers = []HandlerKind{HandlerStart, HandlerStop, HandlerEnd, HandlerComplete, HandlerTick, HandlerReset, HandlerSave}
	doneHandlers   = []HandlerKind{HandlerTick, HandlerReset, HandlerSave}
)

func newIdleBlock() *Block {
	return &Block{Kind: BlockIdle, ID: -1, Handlers: idleHandlers}
}

func newDoneBlock() *Block {
	return &Block{Kind: BlockDone, ID: -1, Handlers: doneHandlers}
}

// OnEvent hands ev to the first handler registered for its name. An event
// no handler claims yields no actions.
func (b *Block) OnEvent(ctx context.Context, ev Event, rt *Runtime) []Action {
	for _, h := range b.Handlers {
		if h.EventName() == ev.Name {
			return h.handle(ctx, b, ev, rt)
		}
	}
	return nil
}

// Node returns the terminal node of an Active block.
func (b *Block) Node() *ir.StatementNode {
	if len(b.Path) == 0 {
		return nil
	}
	return b.Path[len(b.Path)-1]
}

// LastEvent returns the most recently recorded event.
func (b *Block) LastEvent() (Event, bool) {
	if len(b.Events) == 0 {
		return Event{}, false
	}
	return b.Events[len(b.Events)-1], true
}

// Running reports whether the block's timer is started and not stopped.
func (b *Block) Running() bool {
	last, ok := b.LastEvent()
	return ok && last.Name == EventStart
}

// Elapsed sums the block's start/stop intervals; an open interval runs to now.
func (b *Block) Elapsed(now time.Time) time.Duration {
	var total time.Duration
	for _, s := range b.spans() {
		if d := s.Duration(now); d > 0 {
			total += d
		}
	}
	return total
}

// Report returns the block's result spans: one per start, closed by the
// stop that followed it. Idle and Done blocks report nothing.
func (b *Block) Report() []ResultSpan {
	if b.Kind != BlockActive {
		return nil
	}
	return b.spans()
}

func (b *Block) spans() []ResultSpan {
	var out []ResultSpan
	for _, ev := range b.Events {
		switch ev.Name {
		case EventStart:
			metrics := make([]Metric, len(b.Metrics))
			for i, m := range b.Metrics {
				metrics[i] = m.clone()
			}
			out = append(out, ResultSpan{
				BlockKey: b.Key.String(),
				Index:    len(out),
				Stack:    b.Key.IDs(),
				Start:    ev,
				Label:    b.Label,
				Metrics:  metrics,
			})
		case EventStop:
			if n := len(out); n > 0 && out[n-1].Stop == nil {
				stop := ev
				out[n-1].Stop = &stop
			}
		}
	}
	return out
}

// record appends ev to the block's events.
func (b *Block) record(ev Event) {
	b.Events = append(b.Events, ev)
}

// strip removes every recorded event with the given name.
func (b *Block) strip(name string) {
	b.Events = slices.DeleteFunc(b.Events, func(ev Event) bool { return ev.Name == name })
}
