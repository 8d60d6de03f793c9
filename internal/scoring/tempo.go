/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scoring

import "math"

// NeutralTempo is returned when either BPM is unknown.
const NeutralTempo = 0.5

var tempoBuckets = []struct {
	maxDiff float64
	score   float64
}{
	{1, 1.0},
	{3, 0.9},
	{6, 0.7},
	{10, 0.5},
	{15, 0.3},
}

// Tempo rates BPM fit. Half and double tempo count as the same tempo, so a
// track mislabelled at 87 still matches 174.
func Tempo(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return NeutralTempo
	}
	diff := TempoDiff(a, b)
	for _, bucket := range tempoBuckets {
		if diff <= bucket.maxDiff {
			return bucket.score
		}
	}
	return 0.1
}

// TempoDiff is the smallest BPM difference allowing for octave errors.
func TempoDiff(a, b float64) float64 {
	return math.Min(math.Abs(a-b), math.Min(math.Abs(a*2-b), math.Abs(a-b*2)))
}

// InRange reports whether bpm, or its double or half, lies in [lo, hi].
// Unknown BPM never matches.
func InRange(bpm, lo, hi float64) bool {
	if bpm <= 0 {
		return false
	}
	for _, v := range [...]float64{bpm, bpm * 2, bpm / 2} {
		if v >= lo && v <= hi {
			return true
		}
	}
	return false
}
