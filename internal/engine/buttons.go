package engine

import "time"

// Button is a control offered to the user. Clicking it produces events for
// the next cycle; the renderer decides how to draw Icon and Variant.
type Button struct {
	Label   string   `json:"label"`
	Icon    string   `json:"icon"`
	Active  bool     `json:"active,omitempty"`
	Variant string   `json:"variant,omitempty"`
	Emits   []string `json:"emits"`
}

// Click returns the button's events, all stamped with now.
func (b Button) Click(now time.Time) []Event {
	events := make([]Event, len(b.Emits))
	for i, name := range b.Emits {
		events[i] = NewEvent(name, now)
	}
	return events
}

var (
	RunButton      = Button{Label: "Run", Icon: "play", Variant: "primary", Emits: []string{EventBegin, EventStart}}
	ResumeButton   = Button{Label: "Resume", Icon: "play", Emits: []string{EventStart}}
	PauseButton    = Button{Label: "Pause", Icon: "pause", Emits: []string{EventStop}}
	EndButton      = Button{Label: "End", Icon: "flag", Emits: []string{EventEnd}}
	ResetButton    = Button{Label: "Reset", Icon: "arrow-path", Emits: []string{EventReset}}
	CompleteButton = Button{Label: "Complete", Icon: "arrow-path", Emits: []string{EventComplete}}
	SaveButton     = Button{Label: "Save", Icon: "folder-arrow-down", Variant: "success", Emits: []string{EventSave}}
)

// AllButtons lists every control, for lookups by label.
var AllButtons = []Button{
	RunButton, ResumeButton, PauseButton, EndButton, ResetButton, CompleteButton, SaveButton,
}

// RunnerControls returns the state-level controls shown next to the
// block's own buttons.
func RunnerControls(state State) []Button {
	switch state {
	case StateIdle:
		return []Button{RunButton}
	case StateRunning, StatePaused:
		return []Button{EndButton}
	case StateDone:
		return []Button{ResetButton, SaveButton}
	default:
		return []Button{ResetButton}
	}
}

// FindButton looks a button up by label among the given sets.
func FindButton(label string, sets ...[]Button) (Button, bool) {
	for _, set := range sets {
		for _, b := range set {
			if b.Label == label {
				return b, true
			}
		}
	}
	return Button{}, false
}

func sameButtons(a, b []Button) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Label != b[i].Label || a[i].Active != b[i].Active {
			return false
		}
	}
	return true
}
