package engine

// State is the lifecycle tag published to listeners.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateDone    State = "done"

	// StateError is never derived by the Runtime; the driver reports it
	// once a cycle has failed and it stops feeding events.
	StateError State = "error"
)

// stateOf infers the lifecycle state from the current block and the
// results gathered so far.
func stateOf(b *Block, results int) State {
	if b == nil {
		return StateIdle
	}
	switch b.Kind {
	case BlockActive:
		if last, ok := b.LastEvent(); ok && last.Name == EventStop {
			return StatePaused
		}
		return StateRunning
	case BlockDone:
		if results > 0 {
			return StateDone
		}
	}
	return StateIdle
}
