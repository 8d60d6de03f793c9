/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package intent

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultDurationMinutes is assumed when a description names no length.
	DefaultDurationMinutes = 60

	minTargetCount = 6
	maxTargetCount = 24
	minutesPerSlot = 5
)

var (
	peakAtPattern   = regexp.MustCompile(`\bpeak(?:s|ing)?\s+at\s+(?:minute\s+)?(\d+(?:\.\d+)?)(?:\s*(?:minutes?|mins?|m)\b)?`)
	durationPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(hours?|hrs?|minutes?|mins?)\b`)
)

// DurationMinutes returns the set length named in text, or 0 when there is
// none. "90 min", "60-minute", "2 hours" and "1.5 hr" are understood. A
// "peak at N" clause is not a duration.
func DurationMinutes(text string) int {
	text = peakAtPattern.ReplaceAllString(strings.ToLower(text), " ")
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0
	}
	if strings.HasPrefix(m[2], "h") {
		v *= 60
	}
	return int(math.Round(v))
}

// PeakMinute returns N from a "peak at N" clause, or 0.
func PeakMinute(text string) float64 {
	m := peakAtPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// TargetCount maps a set length to a track count: one track per five
// minutes, between 6 and 24. Zero means DefaultDurationMinutes.
func TargetCount(durationMinutes int) int {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	return max(minTargetCount, min(maxTargetCount, durationMinutes/minutesPerSlot))
}
