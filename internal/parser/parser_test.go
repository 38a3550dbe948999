package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wodwiki/internal/ir"
)

func TestParse_RoundsTimerEffort(t *testing.T) {
	stmts, errs := ParseSource("(3) :10 Cindy")
	require.Empty(t, errs)
	require.Len(t, stmts, 1)

	s := stmts[0]
	assert.Nil(t, s.Lap)
	require.NotNil(t, s.Rounds)
	assert.Equal(t, []int{3}, s.Rounds.Counts)
	assert.Equal(t, 0, s.Rounds.Meta.StartOffset)
	assert.Equal(t, 3, s.Rounds.Meta.EndOffset)

	require.Len(t, s.Items, 2)
	assert.Equal(t, ":10", s.Items[0].(Timer).Image)
	assert.Equal(t, "Cindy", s.Items[1].(Effort).Text)
	assert.Equal(t, 8, s.Items[1].Span().StartOffset)
}

func TestParse_Items(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Item
	}{
		{
			name: "reps and effort",
			src:  "21 Thrusters",
			want: []Item{
				Reps{Count: 21, Meta: ir.SourceMeta{Line: 1, ColumnStart: 1, ColumnEnd: 3, StartOffset: 0, EndOffset: 2}},
				Effort{Text: "Thrusters", Meta: ir.SourceMeta{Line: 1, ColumnStart: 4, ColumnEnd: 13, StartOffset: 3, EndOffset: 12}},
			},
		},
		{
			name: "resistance",
			src:  "95lb",
			want: []Item{
				Resistance{Amount: "95", Unit: "lb", Meta: ir.SourceMeta{Line: 1, ColumnStart: 1, ColumnEnd: 5, StartOffset: 0, EndOffset: 4}},
			},
		},
		{
			name: "at bodyweight",
			src:  "@bw",
			want: []Item{
				Resistance{Unit: "bw", Meta: ir.SourceMeta{Line: 1, ColumnStart: 1, ColumnEnd: 4, StartOffset: 0, EndOffset: 3}},
			},
		},
		{
			name: "distance without amount",
			src:  "mile",
			want: []Item{
				Distance{Unit: "mile", Meta: ir.SourceMeta{Line: 1, ColumnStart: 1, ColumnEnd: 5, StartOffset: 0, EndOffset: 4}},
			},
		},
		{
			name: "action",
			src:  "[Rest Day]",
			want: []Item{
				ActionPhrase{Name: "Rest Day", Meta: ir.SourceMeta{Line: 1, ColumnStart: 1, ColumnEnd: 11, StartOffset: 0, EndOffset: 10}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, errs := ParseSource(tt.src)
			require.Empty(t, errs)
			require.Len(t, stmts, 1)
			assert.Equal(t, tt.want, stmts[0].Items)
		})
	}
}

func TestParse_EffortJoinsTokens(t *testing.T) {
	stmts, errs := ParseSource("Push-ups and Clean & Jerk")
	require.Empty(t, errs)
	require.Len(t, stmts, 1)
	require.Len(t, stmts[0].Items, 1)
	assert.Equal(t, "Push-ups and Clean & Jerk", stmts[0].Items[0].(Effort).Text)
}

func TestParse_LapAndTrend(t *testing.T) {
	stmts, errs := ParseSource("+ 10 Pullups\n- ^ 20:00 Run")
	require.Empty(t, errs)
	require.Len(t, stmts, 2)

	require.NotNil(t, stmts[0].Lap)
	assert.Equal(t, ir.LapCompose, stmts[0].Lap.Kind)
	assert.Nil(t, stmts[0].Trend)

	require.NotNil(t, stmts[1].Lap)
	assert.Equal(t, ir.LapRound, stmts[1].Lap.Kind)
	require.NotNil(t, stmts[1].Trend)
	assert.Equal(t, 2, stmts[1].Line)
}

func TestParse_RepScheme(t *testing.T) {
	for _, src := range []string{"(21-15-9) Thrusters", "(21,15,9) Thrusters"} {
		stmts, errs := ParseSource(src)
		require.Empty(t, errs, src)
		require.Len(t, stmts, 1)
		assert.Equal(t, []int{21, 15, 9}, stmts[0].Rounds.Counts, src)
	}
}

func TestParse_ErrorsSkipLine(t *testing.T) {
	src := "10 Pullups\n(3 Burpees\n# note\n5 Pushups"
	stmts, errs := ParseSource(src)

	require.Len(t, stmts, 2)
	assert.Equal(t, 1, stmts[0].Line)
	assert.Equal(t, 4, stmts[1].Line)

	require.Len(t, errs, 2)
	assert.Equal(t, 2, errs[0].Line)
	assert.Equal(t, 4, errs[0].Column)
	assert.Contains(t, errs[0].Error(), "line 2:4")
	assert.Equal(t, 3, errs[1].Line)
	assert.Contains(t, errs[1].Message, "Illegal")
}

func TestParse_ErrorCases(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"unterminated action", "[Rest", "unterminated action"},
		{"empty action", "[]", "empty action"},
		{"at without unit", "@ 95", "unexpected end of line"},
		{"fractional reps", "2.5 Burpees", "whole number"},
		{"zero rounds", "(0) Burpees", "positive whole number"},
		{"symbol first", "& Jerk", "unexpected AllowedSymbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, errs := ParseSource(tt.src)
			assert.Empty(t, stmts)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Message, tt.msg)
		})
	}
}

func TestParse_BlankLines(t *testing.T) {
	stmts, errs := ParseSource("\n\n  10 Pullups  \n\n")
	require.Empty(t, errs)
	require.Len(t, stmts, 1)
	assert.Equal(t, 3, stmts[0].Line)
}
