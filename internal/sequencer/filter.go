/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequencer

import (
	"math"
	"sort"

	"github.com/friendsincode/deepcrate/internal/camelot"
	"github.com/friendsincode/deepcrate/internal/intent"
	"github.com/friendsincode/deepcrate/internal/models"
)

// FilterStage records how far the genre filter had to back off.
type FilterStage string

const (
	FilterStrict  FilterStage = "strict"
	FilterRelaxed FilterStage = "relaxed"
	FilterNone    FilterStage = "none"
)

const (
	moderateEnergy    = 0.45
	minUsefulDuration = 60
)

// filterPool narrows pool to the requested genres, falling back to relaxed
// ranges and then to the whole pool while fewer than intent.MinViable tracks
// survive. A stage that keeps the entire pool is accepted regardless of size.
func filterPool(pool []models.Track, profiles []intent.Profile) ([]models.Track, FilterStage) {
	if len(profiles) == 0 {
		return pool, FilterNone
	}

	stages := []struct {
		stage FilterStage
		keep  func([]intent.Profile, float64) bool
	}{
		{FilterStrict, intent.InStrictRange},
		{FilterRelaxed, intent.InRelaxedRange},
	}
	for _, s := range stages {
		var kept []models.Track
		for _, t := range pool {
			if s.keep(profiles, t.BPM) {
				kept = append(kept, t)
			}
		}
		if len(kept) >= intent.MinViable || (len(kept) > 0 && len(kept) == len(pool)) {
			return kept, s.stage
		}
	}
	return pool, FilterNone
}

// relevance prefers tracks with complete metadata and moderate energy.
func relevance(t models.Track) float64 {
	score := 1 - math.Abs(t.Energy-moderateEnergy)
	if t.BPM > 0 {
		score++
	}
	if camelot.Valid(t.Key) {
		score++
	}
	if t.Duration >= minUsefulDuration {
		score++
	}
	return score
}

// rank returns a copy of tracks in canonical order: relevance descending,
// then ID ascending. Every later tie is resolved by this order.
func rank(tracks []models.Track) []models.Track {
	out := make([]models.Track, len(tracks))
	copy(out, tracks)
	rel := make(map[string]float64, len(out))
	for _, t := range out {
		rel[t.ID] = relevance(t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rel[out[i].ID], rel[out[j].ID]
		if ri != rj {
			return ri > rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// dedupe drops repeated IDs, keeping the first occurrence.
func dedupe(pool []models.Track) []models.Track {
	seen := make(map[string]bool, len(pool))
	out := make([]models.Track, 0, len(pool))
	for _, t := range pool {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
