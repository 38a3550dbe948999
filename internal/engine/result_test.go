package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 6, 30, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

func TestResultSpan_Duration(t *testing.T) {
	stop := NewEvent(EventStop, t0.Add(65_432*time.Millisecond))
	closed := ResultSpan{Start: NewEvent(EventStart, t0), Stop: &stop}
	assert.Equal(t, 65_432*time.Millisecond, closed.Duration(at(999)), "now is ignored once stopped")

	open := ResultSpan{Start: NewEvent(EventStart, t0)}
	assert.Equal(t, 12*time.Second, open.Duration(at(12)))
}

func TestParseMetricValue(t *testing.T) {
	tests := []struct {
		kind MetricKind
		text string
		want MetricValue
	}{
		{MetricRepetitions, "12", MetricValue{Value: 12}},
		{MetricRepetitions, " 7 ", MetricValue{Value: 7}},
		{MetricResistance, "135lb", MetricValue{Value: 135, Unit: "lb"}},
		{MetricResistance, "@bw", MetricValue{Value: 1, Unit: "bw"}},
		{MetricResistance, "@24KG", MetricValue{Value: 24, Unit: "kg"}},
		{MetricDistance, "400 m", MetricValue{Value: 400, Unit: "m"}},
		{MetricDistance, "1.5km", MetricValue{Value: 1.5, Unit: "km"}},
		{MetricDistance, "mile", MetricValue{Value: 1, Unit: "mile"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.text, func(t *testing.T) {
			got, err := ParseMetricValue(tt.kind, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMetricValue_Rejects(t *testing.T) {
	tests := []struct {
		kind MetricKind
		text string
	}{
		{MetricRepetitions, "ten"},
		{MetricRepetitions, "10lb"},
		{MetricResistance, "12"},
		{MetricDistance, "135lb"},
		{MetricDistance, ""},
		{MetricKind("tempo"), "3"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.text, func(t *testing.T) {
			_, err := ParseMetricValue(tt.kind, tt.text)
			assert.Error(t, err)
		})
	}
}

func TestApplyEdits_LastEditWins(t *testing.T) {
	spans := []ResultSpan{
		{BlockKey: "1|0:1", Index: 0, Metrics: []Metric{{Effort: "Row"}}},
		{BlockKey: "1|0:1", Index: 1, Metrics: []Metric{{Effort: "Row"}}},
	}
	edits := []MetricEdit{
		{BlockKey: "1|0:1", Index: 1, Metric: MetricDistance, Value: MetricValue{Value: 500, Unit: "m"}},
		{BlockKey: "1|0:1", Index: 1, Metric: MetricDistance, Value: MetricValue{Value: 750, Unit: "m"}},
		{BlockKey: "9|0:9", Index: 0, Metric: MetricDistance, Value: MetricValue{Value: 1, Unit: "m"}},
	}

	got := applyEdits(spans, edits)
	assert.Nil(t, got[0].Metrics[0].Distance)
	require.NotNil(t, got[1].Metrics[0].Distance)
	assert.Equal(t, MetricValue{Value: 750, Unit: "m"}, *got[1].Metrics[0].Distance)

	assert.Nil(t, spans[1].Metrics[0].Distance, "input spans are not modified")

	again := applyEdits(spans, edits)
	assert.Equal(t, got, again, "re-applying edits is idempotent")
}

func TestExportDocument(t *testing.T) {
	doc := ExportDocument("(3) :10 Cindy", []string{"1|0:1|4:1", "2|0:2|4:2"})
	assert.Equal(t, "(3) :10 Cindy\n\n1|0:1|4:1\n2|0:2|4:2", doc)
}

func TestRunnerControls(t *testing.T) {
	labels := func(bs []Button) []string {
		out := make([]string, len(bs))
		for i, b := range bs {
			out[i] = b.Label
		}
		return out
	}
	assert.Equal(t, []string{"Run"}, labels(RunnerControls(StateIdle)))
	assert.Equal(t, []string{"End"}, labels(RunnerControls(StateRunning)))
	assert.Equal(t, []string{"End"}, labels(RunnerControls(StatePaused)))
	assert.Equal(t, []string{"Reset", "Save"}, labels(RunnerControls(StateDone)))
	assert.Equal(t, []string{"Reset"}, labels(RunnerControls(StateError)))

	events := RunButton.Click(t0)
	assert.Equal(t, []Event{NewEvent(EventBegin, t0), NewEvent(EventStart, t0)}, events)
}
