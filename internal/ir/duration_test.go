package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimer(t *testing.T) {
	tests := []struct {
		image    string
		expected Duration
		millis   int64
	}{
		{":10", Duration{Seconds: 10}, 10_000},
		{"1:00", Duration{Minutes: 1}, 60_000},
		{"20:00", Duration{Minutes: 20}, 1_200_000},
		{"1:02:03", Duration{Hours: 1, Minutes: 2, Seconds: 3}, 3_723_000},
		{"1:02:03:04", Duration{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}, 93_784_000},
		{"1:90", Duration{Minutes: 1, Seconds: 90}, 150_000},
	}

	for _, tt := range tests {
		t.Run(tt.image, func(t *testing.T) {
			d, err := ParseTimer(tt.image)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
			assert.Equal(t, tt.millis, d.Millis())
		})
	}
}

func TestParseTimer_Invalid(t *testing.T) {
	_, err := ParseTimer("1:2:3:4:5")
	assert.Error(t, err)

	_, err = ParseTimer("a:10")
	assert.Error(t, err)
}

func TestDurationClock(t *testing.T) {
	tests := []struct {
		name  string
		ms    int64
		clock string
		rest  string
	}{
		{"zero", 0, "0:00", "0"},
		{"seconds", 5_000, "0:05", "0"},
		{"minute and seconds", 65_000, "1:05", "0"},
		{"with millis", 65_250, "1:05", "250"},
		{"hours are padded", 3_723_000, "01:02:03", "0"},
		{"days", 90_061_000, "1:01:01:01", "0"},
		{"negative clamps", -10, "0:00", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock, rest := FromMillis(tt.ms).Clock()
			assert.Equal(t, tt.clock, clock)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestFromMillis_RoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1, 999, 1000, 59_999, 3_600_000, 90_061_123} {
		assert.Equal(t, ms, FromMillis(ms).Millis(), "ms=%d", ms)
	}
}

func TestDurationString(t *testing.T) {
	d, err := ParseTimer(":10")
	require.NoError(t, err)
	assert.Equal(t, "0:10", d.String())
	assert.False(t, d.IsZero())
	assert.True(t, Duration{}.IsZero())
}
