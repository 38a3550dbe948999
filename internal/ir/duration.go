package ir

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time span decomposed into clock units.
//
// A Duration parsed from a script keeps the units as written ("1:90" is one
// minute and ninety seconds); a Duration built with FromMillis is normalized.
type Duration struct {
	Days         int `json:"days"`
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	Seconds      int `json:"seconds"`
	Milliseconds int `json:"milliseconds"`
}

// ParseTimer parses a timer literal such as ":10", "1:00" or "1:02:03:04".
// Groups are most-significant first; an empty group counts as zero.
func ParseTimer(image string) (Duration, error) {
	parts := strings.Split(image, ":")
	if len(parts) > 4 {
		return Duration{}, fmt.Errorf("timer %q has more than 4 groups", image)
	}

	digits := make([]int, 4)
	for i := range parts {
		segment := parts[len(parts)-1-i]
		if segment == "" {
			continue
		}
		n, err := strconv.Atoi(segment)
		if err != nil {
			return Duration{}, fmt.Errorf("timer %q: %w", image, err)
		}
		digits[i] = n
	}

	return Duration{
		Seconds: digits[0],
		Minutes: digits[1],
		Hours:   digits[2],
		Days:    digits[3],
	}, nil
}

// FromMillis decomposes a millisecond count. Negative input clamps to zero.
func FromMillis(ms int64) Duration {
	if ms < 0 {
		ms = 0
	}
	const (
		second = 1000
		minute = 60 * second
		hour   = 60 * minute
		day    = 24 * hour
	)
	d := Duration{Days: int(ms / day)}
	ms %= day
	d.Hours = int(ms / hour)
	ms %= hour
	d.Minutes = int(ms / minute)
	ms %= minute
	d.Seconds = int(ms / second)
	d.Milliseconds = int(ms % second)
	return d
}

// FromDuration decomposes a time.Duration at millisecond precision.
func FromDuration(d time.Duration) Duration {
	return FromMillis(d.Milliseconds())
}

// Millis returns the total length in milliseconds.
func (d Duration) Millis() int64 {
	total := int64(d.Days)*86400 + int64(d.Hours)*3600 + int64(d.Minutes)*60 + int64(d.Seconds)
	return total*1000 + int64(d.Milliseconds)
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d.Millis()) * time.Millisecond
}

// IsZero reports whether the duration has no length.
func (d Duration) IsZero() bool {
	return d.Millis() == 0
}

// Clock renders the duration as a clock face and a millisecond remainder.
// Leading days and hours appear only when non-zero; once a larger unit is
// shown every smaller unit is zero padded:
//
//	0         -> "0:00", "0"
//	65s       -> "1:05", "0"
//	1d1h1m1s  -> "1:01:01:01", "0"
func (d Duration) Clock() (string, string) {
	pad := func(n int) string { return fmt.Sprintf("%02d", n) }

	var clock []string
	if d.Days > 0 {
		clock = append(clock, strconv.Itoa(d.Days))
	}
	if d.Hours > 0 || len(clock) > 0 {
		clock = append(clock, pad(d.Hours))
	}
	if len(clock) > 0 {
		clock = append(clock, pad(d.Minutes))
	} else {
		clock = append(clock, strconv.Itoa(d.Minutes))
	}
	clock = append(clock, pad(d.Seconds))

	return strings.Join(clock, ":"), strconv.Itoa(d.Milliseconds)
}

// String returns the clock face without milliseconds.
func (d Duration) String() string {
	face, _ := d.Clock()
	return face
}
