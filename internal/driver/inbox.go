package driver

import (
	"sync"

	"github.com/roach88/wodwiki/internal/engine"
)

// inbox is a thread-safe FIFO of user events waiting for the next cycle.
//
// The inbox is unbounded; a burst of button clicks between two cycles must
// never block the caller. Submit may be called from any goroutine while the
// driver loop drains it.
type inbox struct {
	mu     sync.Mutex
	events []engine.Event
	closed bool
	signal chan struct{} // buffered, size 1
}

func newInbox() *inbox {
	return &inbox{
		events: make([]engine.Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Submit appends events in order. Returns false once the inbox is closed.
func (q *inbox) Submit(events ...engine.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, events...)

	// Non-blocking; the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Drain removes and returns everything queued, oldest first.
func (q *inbox) Drain() []engine.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = make([]engine.Event, 0, cap(out))
	return out
}

// Wait returns a channel that signals when events may be available, for
// use in a select alongside the cycle ticker.
func (q *inbox) Wait() <-chan struct{} {
	return q.signal
}

func (q *inbox) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close rejects further submissions and wakes waiters.
func (q *inbox) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
