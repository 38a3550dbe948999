package engine

import "time"

// Canonical event names. Any other name is accepted and ignored.
const (
	EventBegin    = "begin"
	EventStart    = "start"
	EventStop     = "stop"
	EventTick     = "tick"
	EventEnd      = "end"
	EventReset    = "reset"
	EventSave     = "save"
	EventComplete = "complete"
)

// Event is a named, timestamped input to the runtime.
type Event struct {
	Name      string    `json:"name" yaml:"name"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

func NewEvent(name string, ts time.Time) Event {
	return Event{Name: name, Timestamp: ts}
}
