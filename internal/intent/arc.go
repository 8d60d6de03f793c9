/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package intent

import (
	"math"

	"github.com/friendsincode/deepcrate/internal/scoring"
)

// Shape is the overall energy trajectory of a set.
type Shape string

const (
	ArcRiseThenFall Shape = "rise_then_fall"
	ArcRise         Shape = "rise"
	ArcFall         Shape = "fall"
	ArcFlat         Shape = "flat"
)

const (
	defaultPeakRiseThenFall = 0.65
	defaultPeakRise         = 1.0
)

var (
	risingCues   = []string{"peak", "peaks", "peaking", "build", "builds", "building", "climax", "lift", "lifts", "drive", "driving"}
	fallingCues  = []string{"cool down", "cooldown", "wind down", "comedown", "come down"}
	startLowCues = []string{"start mellow", "mellow start", "warmup", "warm up", "opening", "opener"}
)

// Arc is the energy plan inferred from a description.
type Arc struct {
	Shape    Shape `json:"shape"`
	StartLow bool  `json:"start_low"`
	// PeakAt is where the peak sits as a fraction of the set, in (0, 1].
	// Zero for shapes without a peak.
	PeakAt float64 `json:"peak_at,omitempty"`
}

// InferArc scans normalized text for energy cues. peakMinute and
// durationMinutes place an explicit peak when both are known.
func InferArc(normalized string, peakMinute float64, durationMinutes int) Arc {
	rising := containsAny(normalized, risingCues)
	falling := containsAny(normalized, fallingCues)

	arc := Arc{StartLow: containsAny(normalized, startLowCues)}
	switch {
	case rising && falling:
		arc.Shape = ArcRiseThenFall
		arc.PeakAt = defaultPeakRiseThenFall
	case rising:
		arc.Shape = ArcRise
		arc.PeakAt = defaultPeakRise
	case falling:
		arc.Shape = ArcFall
	default:
		arc.Shape = ArcFlat
	}

	if arc.PeakAt > 0 && peakMinute > 0 && durationMinutes > 0 {
		arc.PeakAt = math.Min(peakMinute/float64(durationMinutes), 1)
	}
	return arc
}

// PeakIndex is the position of the peak in a set of count tracks.
func (a Arc) PeakIndex(count int) int {
	if count < 2 || a.PeakAt <= 0 {
		return 0
	}
	return int(math.Round(a.PeakAt * float64(count-1)))
}

// DirectionAt returns the energy direction expected when placing the track at
// zero-based position pos of a count-track set.
func (a Arc) DirectionAt(pos, count int) scoring.Direction {
	switch a.Shape {
	case ArcRiseThenFall:
		if pos <= a.PeakIndex(count) {
			return scoring.DirectionUp
		}
		return scoring.DirectionDown
	case ArcRise:
		if pos <= a.PeakIndex(count) {
			return scoring.DirectionUp
		}
		return scoring.DirectionAny
	case ArcFall:
		return scoring.DirectionDown
	}
	return scoring.DirectionAny
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return true
		}
	}
	return false
}
