/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scoring rates transitions between two tracks.
//
// Every model here is total: missing metadata maps to a neutral score instead
// of an error, so partially analysed libraries can still be planned.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/friendsincode/deepcrate/internal/camelot"
	"github.com/friendsincode/deepcrate/internal/models"
)

// ErrUnknownRiskMode is returned by ParseRiskMode for unrecognised names.
var ErrUnknownRiskMode = errors.New("unknown risk mode")

// WeakThreshold separates weak transitions from usable ones.
const WeakThreshold = 0.5

// RiskMode selects a weighting profile for the composite score.
type RiskMode string

const (
	RiskSafe     RiskMode = "safe"
	RiskBalanced RiskMode = "balanced"
	RiskBold     RiskMode = "bold"
)

// Weights are expressed in hundredths so each profile sums to exactly 100.
type Weights struct {
	Key    int `json:"key"`
	Tempo  int `json:"tempo"`
	Energy int `json:"energy"`
	Phrase int `json:"phrase"`
}

// Sum returns the total weight in hundredths.
func (w Weights) Sum() int {
	return w.Key + w.Tempo + w.Energy + w.Phrase
}

var riskWeights = map[RiskMode]Weights{
	RiskSafe:     {Key: 42, Tempo: 34, Energy: 18, Phrase: 6},
	RiskBalanced: {Key: 36, Tempo: 32, Energy: 22, Phrase: 10},
	RiskBold:     {Key: 28, Tempo: 27, Energy: 31, Phrase: 14},
}

// RiskModes lists the supported modes from most to least conservative.
func RiskModes() []RiskMode {
	return []RiskMode{RiskSafe, RiskBalanced, RiskBold}
}

// ParseRiskMode accepts a mode name; empty input means balanced.
func ParseRiskMode(s string) (RiskMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RiskBalanced, nil
	}
	mode := RiskMode(s)
	if _, ok := riskWeights[mode]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRiskMode, s)
	}
	return mode, nil
}

// WeightsFor returns the weights of mode, falling back to balanced.
func WeightsFor(mode RiskMode) Weights {
	if w, ok := riskWeights[mode]; ok {
		return w
	}
	return riskWeights[RiskBalanced]
}

// Component names one of the four transition factors.
type Component string

const (
	ComponentKey    Component = "key"
	ComponentTempo  Component = "tempo"
	ComponentEnergy Component = "energy"
	ComponentPhrase Component = "phrase"
)

// Components holds the four factor scores for an ordered pair of tracks.
type Components struct {
	Key    float64 `json:"key"`
	Tempo  float64 `json:"tempo"`
	Energy float64 `json:"energy"`
	Phrase float64 `json:"phrase"`
}

// Weakest returns the lowest factor. Ties resolve in the order key, tempo,
// energy, phrase.
func (c Components) Weakest() (Component, float64) {
	name, low := ComponentKey, c.Key
	for _, f := range []struct {
		name  Component
		value float64
	}{
		{ComponentTempo, c.Tempo},
		{ComponentEnergy, c.Energy},
		{ComponentPhrase, c.Phrase},
	} {
		if f.value < low {
			name, low = f.name, f.value
		}
	}
	return name, low
}

// Transition is a scored ordered pair.
type Transition struct {
	FromID     string     `json:"from_id"`
	ToID       string     `json:"to_id"`
	Components Components `json:"components"`
	Composite  float64    `json:"composite"`
	Label      string     `json:"label"`
	RiskMode   RiskMode   `json:"risk_mode"`
}

// Weak reports whether the transition falls below WeakThreshold.
func (t Transition) Weak() bool {
	return IsWeak(t.Composite)
}

// Composite combines components under the weights of mode, rounded to two
// decimals.
func Composite(c Components, mode RiskMode) float64 {
	w := WeightsFor(mode)
	sum := float64(w.Key)*c.Key +
		float64(w.Tempo)*c.Tempo +
		float64(w.Energy)*c.Energy +
		float64(w.Phrase)*c.Phrase
	return Round(sum/100, 2)
}

// ComponentsFor computes the four factors between from and to.
func ComponentsFor(from, to models.Track, dir Direction) Components {
	return Components{
		Key:    camelot.Score(from.Key, to.Key),
		Tempo:  Tempo(from.BPM, to.BPM),
		Energy: Energy(from.Energy, to.Energy, dir),
		Phrase: Phrase(from.BPM, from.Duration, to.BPM, to.Duration),
	}
}

// Score rates the transition from one track into the next without any
// energy direction preference.
func Score(from, to models.Track, mode RiskMode) Transition {
	return ScoreDirectional(from, to, mode, DirectionAny)
}

// ScoreDirectional is Score with a direction-aware energy factor.
func ScoreDirectional(from, to models.Track, mode RiskMode, dir Direction) Transition {
	if _, ok := riskWeights[mode]; !ok {
		mode = RiskBalanced
	}
	c := ComponentsFor(from, to, dir)
	composite := Composite(c, mode)
	return Transition{
		FromID:     from.ID,
		ToID:       to.ID,
		Components: c,
		Composite:  composite,
		Label:      Label(composite),
		RiskMode:   mode,
	}
}

// ScoreSequence scores every adjacent pair of an ordered set.
func ScoreSequence(tracks []models.Track, mode RiskMode) []Transition {
	if len(tracks) < 2 {
		return nil
	}
	out := make([]Transition, 0, len(tracks)-1)
	for i := 0; i+1 < len(tracks); i++ {
		out = append(out, Score(tracks[i], tracks[i+1], mode))
	}
	return out
}

// Label gives a display word for a composite score.
func Label(score float64) string {
	switch {
	case score >= 0.85:
		return "Excellent"
	case score >= 0.7:
		return "Good"
	case score >= 0.5:
		return "Decent"
	case score >= 0.3:
		return "Rough"
	}
	return "Clash"
}

// IsWeak reports whether score is below WeakThreshold.
func IsWeak(score float64) bool {
	return score < WeakThreshold
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
