package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/wodwiki/internal/lexer"
)

// MetricKind names the editable fields of a Metric.
type MetricKind string

const (
	MetricRepetitions MetricKind = "repetitions"
	MetricResistance  MetricKind = "resistance"
	MetricDistance    MetricKind = "distance"
)

// MetricValue is a measured amount with its unit ("" for repetitions).
type MetricValue struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

func (v MetricValue) String() string {
	return strconv.FormatFloat(v.Value, 'f', -1, 64) + v.Unit
}

// Metric is what one effort in a block asked for.
type Metric struct {
	Effort      string       `json:"effort"`
	Repetitions *MetricValue `json:"repetitions,omitempty"`
	Resistance  *MetricValue `json:"resistance,omitempty"`
	Distance    *MetricValue `json:"distance,omitempty"`
}

func (m Metric) clone() Metric {
	out := Metric{Effort: m.Effort}
	if m.Repetitions != nil {
		v := *m.Repetitions
		out.Repetitions = &v
	}
	if m.Resistance != nil {
		v := *m.Resistance
		out.Resistance = &v
	}
	if m.Distance != nil {
		v := *m.Distance
		out.Distance = &v
	}
	return out
}

func (m *Metric) set(kind MetricKind, v MetricValue) {
	switch kind {
	case MetricRepetitions:
		m.Repetitions = &v
	case MetricResistance:
		m.Resistance = &v
	case MetricDistance:
		m.Distance = &v
	}
}

// ResultSpan is one timed interval of a block: a start event and the stop
// that closed it, or no stop while the interval is still open.
type ResultSpan struct {
	BlockKey string   `json:"block_key,omitempty"`
	Index    int      `json:"index"`
	Stack    []int    `json:"stack,omitempty"`
	Start    Event    `json:"start"`
	Stop     *Event   `json:"stop,omitempty"`
	Label    string   `json:"label,omitempty"`
	Metrics  []Metric `json:"metrics"`
}

// Duration returns stop minus start, or now minus start for an open span.
func (s ResultSpan) Duration(now time.Time) time.Duration {
	end := now
	if s.Stop != nil {
		end = s.Stop.Timestamp
	}
	return end.Sub(s.Start.Timestamp)
}

// MetricEdit is a post-hoc correction of one span's metrics. Edits are
// append-only; Runtime.Results applies them in order on every read.
type MetricEdit struct {
	BlockKey  string      `json:"block_key"`
	Index     int         `json:"index"`
	Metric    MetricKind  `json:"metric"`
	Value     MetricValue `json:"value"`
	CreatedAt time.Time   `json:"created_at"`
}

// applyEdits returns a copy of spans with the matching edits applied. The
// edited field is overwritten on every metric of the span.
func applyEdits(spans []ResultSpan, edits []MetricEdit) []ResultSpan {
	out := make([]ResultSpan, len(spans))
	for i, s := range spans {
		metrics := make([]Metric, len(s.Metrics))
		for j, m := range s.Metrics {
			metrics[j] = m.clone()
		}
		for _, e := range edits {
			if e.BlockKey != s.BlockKey || e.Index != s.Index {
				continue
			}
			for j := range metrics {
				metrics[j].set(e.Metric, e.Value)
			}
		}
		s.Metrics = metrics
		out[i] = s
	}
	return out
}

// ParseMetricValue reads a user-entered metric using the script lexer:
// "12" for repetitions, "135lb" or "@bw" for resistance, "400 m" or "km"
// for distance. A missing amount on a unit defaults to 1.
func ParseMetricValue(kind MetricKind, text string) (MetricValue, error) {
	var toks []lexer.Token
	for _, tok := range lexer.Tokenize(text) {
		switch tok.Type {
		case lexer.EOF, lexer.Return:
			continue
		case lexer.AtSign:
			if kind == MetricResistance && len(toks) == 0 {
				continue
			}
		}
		toks = append(toks, tok)
	}

	var unit lexer.TokenType
	switch kind {
	case MetricRepetitions:
		if len(toks) == 1 && toks[0].Type == lexer.Number {
			return parseAmount(toks[0].Lexeme, "")
		}
		return MetricValue{}, fmt.Errorf("repetitions %q must be a number", text)
	case MetricResistance:
		unit = lexer.Weight
	case MetricDistance:
		unit = lexer.Distance
	default:
		return MetricValue{}, fmt.Errorf("unknown metric %q", kind)
	}

	switch {
	case len(toks) == 1 && toks[0].Type == unit:
		return parseAmount("1", toks[0].Lexeme)
	case len(toks) == 2 && toks[0].Type == lexer.Number && toks[1].Type == unit:
		return parseAmount(toks[0].Lexeme, toks[1].Lexeme)
	}
	return MetricValue{}, fmt.Errorf("%s %q must be an amount followed by a unit", kind, text)
}

func parseAmount(amount, unit string) (MetricValue, error) {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return MetricValue{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return MetricValue{Value: v, Unit: strings.ToLower(unit)}, nil
}
