package ir

import (
	"fmt"
	"strconv"
)

// FragmentKind tags the variant carried by a Fragment.
type FragmentKind int

const (
	FragmentEffort FragmentKind = iota + 1
	FragmentRep
	FragmentResistance
	FragmentDistance
	FragmentDuration
	FragmentRounds
	FragmentLap
	FragmentIncrement
	FragmentAction
)

var fragmentKindNames = map[FragmentKind]string{
	FragmentEffort:     "effort",
	FragmentRep:        "rep",
	FragmentResistance: "resistance",
	FragmentDistance:   "distance",
	FragmentDuration:   "duration",
	FragmentRounds:     "rounds",
	FragmentLap:        "lap",
	FragmentIncrement:  "increment",
	FragmentAction:     "action",
}

func (k FragmentKind) String() string {
	if name, ok := fragmentKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("fragment(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k FragmentKind) MarshalText() ([]byte, error) {
	if _, ok := fragmentKindNames[k]; !ok {
		return nil, fmt.Errorf("unknown fragment kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FragmentKind) UnmarshalText(text []byte) error {
	for kind, name := range fragmentKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown fragment kind %q", string(text))
}

// LapKind describes how a statement combines with its siblings.
type LapKind string

const (
	LapNone    LapKind = ""
	LapCompose LapKind = "compose" // "+"
	LapRound   LapKind = "round"   // "-"
	LapRepeat  LapKind = "repeat"  // implied for nested statements
)

// Direction is the trend of a timed statement.
type Direction string

const (
	DirectionUp   Direction = "up"   // "^": count up
	DirectionDown Direction = "down" // implied by a duration: count down
)

// Fragment is one typed piece of a statement. Kind selects which fields
// are meaningful:
//
//	Effort      Text
//	Rep         Count
//	Resistance  Amount, Unit
//	Distance    Amount, Unit
//	Duration    Duration
//	Rounds      Count
//	Lap         Lap
//	Increment   Direction
//	Action      Text
type Fragment struct {
	Kind      FragmentKind `json:"kind"`
	Text      string       `json:"text,omitempty"`
	Count     int          `json:"count,omitempty"`
	Amount    string       `json:"amount,omitempty"`
	Unit      string       `json:"unit,omitempty"`
	Duration  *Duration    `json:"duration,omitempty"`
	Lap       LapKind      `json:"lap,omitempty"`
	Direction Direction    `json:"direction,omitempty"`
	Synthetic bool         `json:"synthetic,omitempty"`
	Meta      SourceMeta   `json:"meta"`
}

func NewEffort(text string, meta SourceMeta) Fragment {
	return Fragment{Kind: FragmentEffort, Text: text, Meta: meta}
}

func NewRep(count int, meta SourceMeta) Fragment {
	return Fragment{Kind: FragmentRep, Count: count, Meta: meta}
}

// NewResistance builds a load fragment; an empty amount defaults to "1".
func NewResistance(amount, unit string, meta SourceMeta) Fragment {
	if amount == "" {
		amount = "1"
	}
	return Fragment{Kind: FragmentResistance, Amount: amount, Unit: unit, Meta: meta}
}

// NewDistance builds a distance fragment; an empty amount defaults to "1".
func NewDistance(amount, unit string, meta SourceMeta) Fragment {
	if amount == "" {
		amount = "1"
	}
	return Fragment{Kind: FragmentDistance, Amount: amount, Unit: unit, Meta: meta}
}

func NewDuration(d Duration, meta SourceMeta) Fragment {
	return Fragment{Kind: FragmentDuration, Duration: &d, Meta: meta}
}

func NewRounds(count int, meta SourceMeta) Fragment {
	return Fragment{Kind: FragmentRounds, Count: count, Meta: meta}
}

func NewLap(kind LapKind, meta SourceMeta) Fragment {
	return Fragment{Kind: FragmentLap, Lap: kind, Meta: meta}
}

func NewIncrement(dir Direction, meta SourceMeta) Fragment {
	return Fragment{Kind: FragmentIncrement, Direction: dir, Meta: meta}
}

func NewAction(name string, meta SourceMeta) Fragment {
	return Fragment{Kind: FragmentAction, Text: name, Meta: meta}
}

// Image renders the fragment the way it would read in a script.
func (f Fragment) Image() string {
	switch f.Kind {
	case FragmentEffort:
		return f.Text
	case FragmentRep:
		return strconv.Itoa(f.Count)
	case FragmentResistance, FragmentDistance:
		return f.Amount + f.Unit
	case FragmentDuration:
		if f.Duration == nil {
			return ""
		}
		return f.Duration.String()
	case FragmentRounds:
		return fmt.Sprintf("(%d)", f.Count)
	case FragmentLap:
		switch f.Lap {
		case LapCompose:
			return "+"
		case LapRound:
			return "-"
		}
		return ""
	case FragmentIncrement:
		if f.Direction == DirectionUp {
			return "^"
		}
		return ""
	case FragmentAction:
		return "[" + f.Text + "]"
	}
	return ""
}

// FilterFragments returns the fragments of the given kind in order.
func FilterFragments(fragments []Fragment, kind FragmentKind) []Fragment {
	var out []Fragment
	for _, f := range fragments {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
