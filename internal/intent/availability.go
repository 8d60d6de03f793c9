/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package intent

import "github.com/friendsincode/deepcrate/internal/models"

// MinViable is the smallest genre-filtered pool worth planning from.
const MinViable = 8

// Availability counts how much of a library fits the requested genres.
type Availability struct {
	Requested int `json:"requested"`
	Matching  int `json:"matching"`
	Total     int `json:"total"`
}

// Absent reports that genres were asked for but nothing matches.
func (a Availability) Absent() bool {
	return a.Requested > 0 && a.Matching == 0
}

// Scarce reports that genres were asked for but fewer than MinViable tracks
// match. Absent availability is also scarce.
func (a Availability) Scarce() bool {
	return a.Requested > 0 && a.Matching < MinViable
}

// MeasureAvailability counts tracks whose BPM falls in the strict range of
// any profile.
func MeasureAvailability(profiles []Profile, pool []models.Track) Availability {
	a := Availability{Requested: len(profiles), Total: len(pool)}
	if len(profiles) == 0 {
		return a
	}
	for _, t := range pool {
		if InStrictRange(profiles, t.BPM) {
			a.Matching++
		}
	}
	return a
}

// InStrictRange reports whether bpm fits the strict range of any profile.
func InStrictRange(profiles []Profile, bpm float64) bool {
	for _, p := range profiles {
		if p.Strict.Contains(bpm) {
			return true
		}
	}
	return false
}

// InRelaxedRange reports whether bpm fits the relaxed range of any profile.
func InRelaxedRange(profiles []Profile, bpm float64) bool {
	for _, p := range profiles {
		if p.Relaxed.Contains(bpm) {
			return true
		}
	}
	return false
}
