package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// HandlerKind identifies one entry of a block's handler chain. Each kind
// claims exactly one event name.
type HandlerKind int

const (
	HandlerBegin HandlerKind = iota + 1
	HandlerStart
	HandlerStop
	HandlerEnd
	HandlerComplete
	HandlerTick
	HandlerReset
	HandlerSave
)

// EventName returns the event name the handler claims.
func (h HandlerKind) EventName() string {
	switch h {
	case HandlerBegin:
		return EventBegin
	case HandlerStart:
		return EventStart
	case HandlerStop:
		return EventStop
	case HandlerEnd:
		return EventEnd
	case HandlerComplete:
		return EventComplete
	case HandlerTick:
		return EventTick
	case HandlerReset:
		return EventReset
	case HandlerSave:
		return EventSave
	}
	return ""
}

func (h HandlerKind) String() string {
	if name := h.EventName(); name != "" {
		return name
	}
	return fmt.Sprintf("HandlerKind(%d)", int(h))
}

func (h HandlerKind) handle(ctx context.Context, b *Block, ev Event, rt *Runtime) []Action {
	switch h {
	case HandlerBegin:
		return []Action{FirstStatement{Event: ev}}

	case HandlerStart:
		return []Action{
			StartTimer{Event: ev},
			SetButtons{Buttons: []Button{PauseButton, CompleteButton}},
		}

	case HandlerStop:
		// A stray pause marker would hide the paused state.
		b.strip("pause")
		return []Action{
			StopTimer{Event: ev},
			SetButtons{Buttons: []Button{ResumeButton, CompleteButton}},
		}

	case HandlerEnd:
		return []Action{
			StopTimer{Event: NewEvent(EventStop, ev.Timestamp)},
			CompleteStatement{Event: ev},
			SetButtons{},
		}

	case HandlerComplete:
		return []Action{
			StopTimer{Event: NewEvent(EventStop, ev.Timestamp)},
			CompleteStatement{Event: ev, Resume: true},
		}

	case HandlerTick:
		actions := []Action{UpdateDisplay{Event: ev}}
		if b.Kind == BlockActive && b.Countdown && !b.expired && b.Running() &&
			b.Elapsed(ev.Timestamp) >= b.Target.Std() {
			actions = append(actions, Expire{Event: ev})
		}
		return actions

	case HandlerReset:
		return []Action{ResetRuntime{Event: ev}}

	case HandlerSave:
		if err := rt.save(ctx); err != nil {
			slog.Error("export failed", "error", err, "block_key", b.Key.String())
		}
		return nil
	}
	panic(fmt.Sprintf("engine: unhandled handler kind %d", int(h)))
}
