package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseIntervalDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"30s", 30 * time.Second, true},
		{"15m", 15 * time.Minute, true},
		{"30m", 30 * time.Minute, true},
		{"1h", time.Hour, true},
		{"4h", 4 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"1w", 7 * 24 * time.Hour, true},
		{" 1H ", time.Hour, true},
		{"", 0, false},
		{"m", 0, false},
		{"0m", 0, false},
		{"-5m", 0, false},
		{"1x", 0, false},
		{"banana", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseIntervalDuration(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestSortIntervals(t *testing.T) {
	// Lexical order would put 1h between 15m and 30m.
	got := SortIntervals([]string{"1h", "30m", "15m"})
	assert.Equal(t, []string{"15m", "30m", "1h"}, got)

	got = SortIntervals([]string{"1d", "4h", "1w", "30s"})
	assert.Equal(t, []string{"30s", "4h", "1d", "1w"}, got)

	// Unparseable entries sort last, alphabetically; ties break lexically.
	got = SortIntervals([]string{"zz", "60m", "banana", "1h"})
	assert.Equal(t, []string{"1h", "60m", "banana", "zz"}, got)

	assert.Empty(t, SortIntervals(nil))
}
