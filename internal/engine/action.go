package engine

import "log/slog"

// Action is a side effect on the Runtime produced by a handler. Actions are
// applied in order within the cycle; the events they return are follow-ups
// for the next cycle and are never processed in the current one.
type Action interface {
	apply(rt *Runtime) ([]Event, error)
}

// StartTimer records a start on the current block unless it is running.
type StartTimer struct{ Event Event }

func (a StartTimer) apply(rt *Runtime) ([]Event, error) {
	if b := rt.current; b != nil && b.Kind == BlockActive && !b.Running() {
		b.record(a.Event)
	}
	return nil, nil
}

// StopTimer records a stop on the current block if it is running.
type StopTimer struct{ Event Event }

func (a StopTimer) apply(rt *Runtime) ([]Event, error) {
	if b := rt.current; b != nil && b.Kind == BlockActive && b.Running() {
		b.record(a.Event)
	}
	return nil, nil
}

// SetButtons replaces the block controls. An empty list clears them.
type SetButtons struct{ Buttons []Button }

func (a SetButtons) apply(rt *Runtime) ([]Event, error) {
	rt.buttons = append([]Button(nil), a.Buttons...)
	return nil, nil
}

// CompleteStatement finishes the current statement and navigates onward:
// back into the same leaf while it has rounds left, otherwise to its parent,
// its next sibling, or Done.
//
// With Resume set the next block is started at the same timestamp through a
// follow-up start event.
type CompleteStatement struct {
	Event  Event
	Resume bool
}

func (a CompleteStatement) apply(rt *Runtime) ([]Event, error) {
	b := rt.current
	if b == nil || b.Kind != BlockActive {
		return nil, nil
	}
	node := b.Node()

	var (
		target = -1
		ok     bool
	)
	switch {
	case node.Leaf() && node.Rounds > 1 && rt.trace.Get(node.ID) < node.Rounds:
		target, ok = node.ID, true
	case node.Parent != nil:
		target, ok = *node.Parent, true
	case node.Next != nil:
		target, ok = *node.Next, true
	}

	if !ok {
		rt.finish()
	} else {
		next, found := rt.stack.GetID(target)
		if !found {
			return nil, NewNotFoundError(target)
		}
		if err := rt.GotoBlock(next); err != nil {
			return nil, err
		}
	}

	if !a.Resume {
		return nil, nil
	}
	if rt.current.Kind != BlockActive {
		rt.buttons = nil
		return nil, nil
	}
	rt.buttons = []Button{PauseButton, CompleteButton}
	return []Event{NewEvent(EventStart, a.Event.Timestamp)}, nil
}

// FirstStatement resets the Runtime and enters the script's first
// statement, starting it with a follow-up start at the begin timestamp.
// An empty script stays idle with no block controls.
type FirstStatement struct{ Event Event }

func (a FirstStatement) apply(rt *Runtime) ([]Event, error) {
	rt.reset()
	first, ok := rt.stack.First()
	if !ok {
		slog.Warn("begin on an empty script")
		return nil, nil
	}
	if err := rt.GotoBlock(first); err != nil {
		return nil, err
	}
	if rt.current.Kind != BlockActive {
		return nil, nil
	}
	rt.buttons = []Button{PauseButton, CompleteButton}
	return []Event{NewEvent(EventStart, a.Event.Timestamp)}, nil
}

// UpdateDisplay recomputes the display at the event's timestamp.
type UpdateDisplay struct{ Event Event }

func (a UpdateDisplay) apply(rt *Runtime) ([]Event, error) {
	rt.display = displayFor(rt.current, rt.results, a.Event.Timestamp)
	return nil, nil
}

// Expire marks a finished countdown and asks for the statement to complete
// in the next cycle.
type Expire struct{ Event Event }

func (a Expire) apply(rt *Runtime) ([]Event, error) {
	b := rt.current
	if b == nil || b.Kind != BlockActive || b.expired {
		return nil, nil
	}
	b.expired = true
	slog.Debug("countdown expired", "node_id", b.ID, "block_key", b.Key.String())
	return []Event{NewEvent(EventComplete, a.Event.Timestamp)}, nil
}

// ResetRuntime clears all accumulated state back to idle.
type ResetRuntime struct{ Event Event }

func (a ResetRuntime) apply(rt *Runtime) ([]Event, error) {
	rt.reset()
	rt.display = idleDisplay()
	return nil, nil
}
