// Package scheduler maps kline interval notation ("15m", "1h", "1d") onto
// wall-clock durations for the evaluation loop and config validation.
package scheduler

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

var unitDurations = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseIntervalDuration parses venue interval notation into a duration.
// Returns (0, false) on invalid input.
func ParseIntervalDuration(interval string) (time.Duration, bool) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if len(interval) < 2 {
		return 0, false
	}
	unit, ok := unitDurations[interval[len(interval)-1]]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(interval[:len(interval)-1]))
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

// SortIntervals orders timeframe notations from shortest to longest so
// blended loops and log lines walk horizons in bar order rather than
// lexically. Unparseable entries sort last, alphabetically.
func SortIntervals(intervals []string) []string {
	out := append([]string(nil), intervals...)
	sort.Slice(out, func(i, j int) bool {
		di, iok := ParseIntervalDuration(out[i])
		dj, jok := ParseIntervalDuration(out[j])
		if iok != jok {
			return iok
		}
		if !iok || di == dj {
			return out[i] < out[j]
		}
		return di < dj
	})
	return out
}
