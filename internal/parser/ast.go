// Package parser recognizes workout statements in a token stream.
//
// Each source line is one statement. The parser produces a typed AST and
// never stops at the first error: a line that does not parse is reported
// as a SyntaxError and skipped.
package parser

import (
	"github.com/roach88/wodwiki/internal/ir"
)

// Statement is one parsed line.
type Statement struct {
	Lap    *LapMarker
	Rounds *RoundsGroup
	Trend  *Trend
	Items  []Item
	Line   int
}

// Empty reports whether the statement carries nothing at all.
func (s *Statement) Empty() bool {
	return s.Lap == nil && s.Rounds == nil && s.Trend == nil && len(s.Items) == 0
}

// LapMarker is a leading "+" (compose) or "-" (round).
type LapMarker struct {
	Kind ir.LapKind
	Meta ir.SourceMeta
}

// RoundsGroup is "(n)" or a rep scheme "(21-15-9)".
type RoundsGroup struct {
	Counts []int
	Meta   ir.SourceMeta
}

// Trend is the "^" count-up marker.
type Trend struct {
	Meta ir.SourceMeta
}

// Item is a body production of a statement. The set is closed.
type Item interface {
	item()
	Span() ir.SourceMeta
}

type Timer struct {
	Image string
	Meta  ir.SourceMeta
}

type ActionPhrase struct {
	Name string
	Meta ir.SourceMeta
}

type Reps struct {
	Count int
	Meta  ir.SourceMeta
}

type Effort struct {
	Text string
	Meta ir.SourceMeta
}

// Resistance is a load such as "95lb" or "@bw". Amount is empty when the
// source omitted it.
type Resistance struct {
	Amount string
	Unit   string
	Meta   ir.SourceMeta
}

// Distance is a length such as "400m". Amount is empty when the source
// omitted it.
type Distance struct {
	Amount string
	Unit   string
	Meta   ir.SourceMeta
}

func (Timer) item()        {}
func (ActionPhrase) item() {}
func (Reps) item()         {}
func (Effort) item()       {}
func (Resistance) item()   {}
func (Distance) item()     {}

func (i Timer) Span() ir.SourceMeta        { return i.Meta }
func (i ActionPhrase) Span() ir.SourceMeta { return i.Meta }
func (i Reps) Span() ir.SourceMeta         { return i.Meta }
func (i Effort) Span() ir.SourceMeta       { return i.Meta }
func (i Resistance) Span() ir.SourceMeta   { return i.Meta }
func (i Distance) Span() ir.SourceMeta     { return i.Meta }
