/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sequencer orders a pool of tracks into a set.
//
// Ordering is greedy nearest neighbour over transition scores: each step
// takes the best next track for the last one placed. It is O(n²) and not
// globally optimal (the exact problem is a travelling-salesman variant), but
// it is deterministic and flows well in practice.
package sequencer

import (
	"errors"
	"fmt"
	"math"

	"github.com/friendsincode/deepcrate/internal/intent"
	"github.com/friendsincode/deepcrate/internal/models"
	"github.com/friendsincode/deepcrate/internal/scoring"
)

var (
	// ErrInvalidInput is returned for structurally invalid requests.
	ErrInvalidInput = errors.New("invalid sequencer input")
	// ErrEmptyResult is returned when tracks are requested from an empty pool.
	ErrEmptyResult = errors.New("no tracks to sequence")
)

// Warnings attached to a Result.
const (
	WarnGenreRelaxed    = "genre_relaxed"
	WarnGenreUnfiltered = "genre_unfiltered"
	WarnGenreAbsent     = "genre_absent"
	WarnUnderfilled     = "underfilled_target"
	warnUnknownTrack    = "unknown_track:"
)

const (
	genreBonus     = 0.03
	diversityBonus = 0.02
)

// Request is the input to Sequence.
type Request struct {
	Pool     []models.Track
	Target   int
	Reading  intent.Reading
	RiskMode scoring.RiskMode
}

// Result is an ordered set with the scores between consecutive tracks.
type Result struct {
	Tracks       []models.Track       `json:"tracks"`
	Transitions  []scoring.Transition `json:"transitions"`
	RiskMode     scoring.RiskMode     `json:"risk_mode"`
	Filter       FilterStage          `json:"filter"`
	Availability intent.Availability  `json:"availability"`
	Warnings     []string             `json:"warnings,omitempty"`
	Source       string               `json:"source"`
}

// IDs returns the track IDs in set order.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Tracks))
	for i, t := range r.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// Sequence builds a set of up to req.Target tracks from req.Pool.
func Sequence(req Request) (Result, error) {
	p, err := prepare(req)
	if err != nil {
		return Result{}, err
	}
	tracks := p.order(p.ranked, req.Target)
	return p.result(tracks, req.Target, "engine", nil), nil
}

// plan carries the validated request through ordering.
type plan struct {
	mode         scoring.RiskMode
	arc          intent.Arc
	profiles     []intent.Profile
	pool         []models.Track
	ranked       []models.Track
	stage        FilterStage
	availability intent.Availability
}

func prepare(req Request) (*plan, error) {
	if req.Target <= 0 {
		return nil, fmt.Errorf("%w: target must be positive, got %d", ErrInvalidInput, req.Target)
	}
	mode, err := scoring.ParseRiskMode(string(req.RiskMode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	pool := dedupe(req.Pool)
	if len(pool) == 0 {
		return nil, ErrEmptyResult
	}

	profiles := req.Reading.Matched()
	filtered, stage := filterPool(pool, profiles)
	return &plan{
		mode:         mode,
		arc:          req.Reading.Arc,
		profiles:     profiles,
		pool:         pool,
		ranked:       rank(filtered),
		stage:        stage,
		availability: intent.MeasureAvailability(profiles, pool),
	}, nil
}

// order seeds from candidates and extends greedily. candidates must be in
// canonical order.
func (p *plan) order(candidates []models.Track, target int) []models.Track {
	count := min(target, len(candidates))
	if count == 0 {
		return nil
	}

	used := make(map[string]bool, count)
	seed := p.seed(candidates)
	set := make([]models.Track, 0, count)
	set = append(set, seed)
	used[seed.ID] = true

	for pos := 1; pos < count; pos++ {
		last := set[len(set)-1]
		dir := p.arc.DirectionAt(pos, count)

		var (
			best      models.Track
			bestValue = math.Inf(-1)
		)
		for _, c := range candidates {
			if used[c.ID] {
				continue
			}
			v := p.value(last, c, dir)
			if v > bestValue {
				best, bestValue = c, v
			}
		}
		set = append(set, best)
		used[best.ID] = true
	}
	return set
}

// seed picks the opening track: the lowest energy for a mellow start,
// otherwise the track nearest moderate energy.
func (p *plan) seed(candidates []models.Track) models.Track {
	best := candidates[0]
	distance := func(t models.Track) float64 {
		if p.arc.StartLow {
			return t.Energy
		}
		return math.Abs(t.Energy - moderateEnergy)
	}
	for _, c := range candidates[1:] {
		if distance(c) < distance(best) {
			best = c
		}
	}
	return best
}

func (p *plan) value(last, next models.Track, dir scoring.Direction) float64 {
	v := scoring.ScoreDirectional(last, next, p.mode, dir).Composite
	if len(p.profiles) > 0 && intent.InStrictRange(p.profiles, next.BPM) {
		v += genreBonus
	}
	if !last.SameArtist(next) {
		v += diversityBonus
	}
	return v
}

func (p *plan) result(tracks []models.Track, target int, source string, warnings []string) Result {
	switch {
	case p.stage == FilterRelaxed:
		warnings = append(warnings, WarnGenreRelaxed)
	case p.stage == FilterNone && len(p.profiles) > 0:
		warnings = append(warnings, WarnGenreUnfiltered)
	}
	if p.availability.Absent() {
		warnings = append(warnings, WarnGenreAbsent)
	}
	if len(tracks) < target {
		warnings = append(warnings, WarnUnderfilled)
	}

	return Result{
		Tracks:       tracks,
		Transitions:  scoring.ScoreSequence(tracks, p.mode),
		RiskMode:     p.mode,
		Filter:       p.stage,
		Availability: p.availability,
		Warnings:     warnings,
		Source:       source,
	}
}
