/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package gaps finds weak transitions in an ordered set and recommends
// bridge tracks to repair them.
package gaps

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/friendsincode/deepcrate/internal/camelot"
	"github.com/friendsincode/deepcrate/internal/models"
	"github.com/friendsincode/deepcrate/internal/scoring"
)

var (
	// ErrInvalidInput is returned for sequences with repeated tracks or an
	// unknown risk mode.
	ErrInvalidInput = errors.New("invalid gap analysis input")
	// ErrNotFound is returned when a sequence references unknown tracks.
	ErrNotFound = errors.New("track not found")
)

const (
	// MinBridgeScore is the lowest score a bridge candidate may have.
	MinBridgeScore = 0.55
	maxBridges     = 3
)

var reasons = map[scoring.Component]string{
	scoring.ComponentKey:    "harmonic mismatch",
	scoring.ComponentTempo:  "tempo jump",
	scoring.ComponentEnergy: "energy jump",
	scoring.ComponentPhrase: "phrase misalignment",
}

// Bridge is a library track that could sit between the two sides of a gap.
type Bridge struct {
	TrackID string  `json:"track_id"`
	Label   string  `json:"label"`
	Score   float64 `json:"score"`
}

// Suggestion describes one weak transition and what would fix it.
type Suggestion struct {
	// Position is the 1-based set position of the second track of the pair.
	Position         int                `json:"position"`
	FromTrack        string             `json:"from_track"`
	ToTrack          string             `json:"to_track"`
	FromTrackID      string             `json:"from_track_id"`
	ToTrackID        string             `json:"to_track_id"`
	Score            float64            `json:"score"`
	Components       scoring.Components `json:"components"`
	SuggestedBPM     float64            `json:"suggested_bpm"`
	SuggestedKey     string             `json:"suggested_key"`
	SuggestedEnergy  float64            `json:"suggested_energy"`
	Reason           string             `json:"reason"`
	Issues           []string           `json:"issues,omitempty"`
	BridgeCandidates []string           `json:"bridge_candidates"`
	Bridges          []Bridge           `json:"bridges"`
}

// Request is the input to Detect. Pool may include tracks already in the
// sequence; they are never offered as bridges.
type Request struct {
	Sequence []models.Track
	Pool     []models.Track
	RiskMode scoring.RiskMode
}

// Resolve maps set track IDs to library records, keeping set order.
func Resolve(ids []string, library []models.Track) ([]models.Track, error) {
	byID := make(map[string]models.Track, len(library))
	for _, t := range library {
		byID[t.ID] = t
	}

	seen := make(map[string]bool, len(ids))
	out := make([]models.Track, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: track %s appears twice", ErrInvalidInput, id)
		}
		seen[id] = true
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		out = append(out, t)
	}
	return out, nil
}

// Detect scores every adjacent pair and returns a suggestion for each pair
// below scoring.WeakThreshold, in set order.
func Detect(req Request) ([]Suggestion, error) {
	mode, err := scoring.ParseRiskMode(string(req.RiskMode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	inSet := make(map[string]bool, len(req.Sequence))
	for _, t := range req.Sequence {
		if inSet[t.ID] {
			return nil, fmt.Errorf("%w: track %s appears twice", ErrInvalidInput, t.ID)
		}
		inSet[t.ID] = true
	}
	if len(req.Sequence) < 2 {
		return nil, nil
	}

	unused := unusedPool(req.Pool, inSet)
	var out []Suggestion
	for i := 0; i+1 < len(req.Sequence); i++ {
		from, to := req.Sequence[i], req.Sequence[i+1]
		tr := scoring.Score(from, to, mode)
		if !tr.Weak() {
			continue
		}
		out = append(out, suggest(i+2, from, to, tr, unused, mode))
	}
	return out, nil
}

func suggest(position int, from, to models.Track, tr scoring.Transition, unused []models.Track, mode scoring.RiskMode) Suggestion {
	weakest, _ := tr.Components.Weakest()
	s := Suggestion{
		Position:        position,
		FromTrack:       from.DisplayName(),
		ToTrack:         to.DisplayName(),
		FromTrackID:     from.ID,
		ToTrackID:       to.ID,
		Score:           tr.Composite,
		Components:      tr.Components,
		SuggestedBPM:    TargetBPM(from, to),
		SuggestedKey:    TargetKey(from, to),
		SuggestedEnergy: TargetEnergy(from, to),
		Reason:          reasons[weakest],
		Issues:          issues(from, to, tr.Components),
	}
	s.Bridges = bridges(s, from, to, unused, mode)
	s.BridgeCandidates = make([]string, len(s.Bridges))
	for i, b := range s.Bridges {
		s.BridgeCandidates[i] = b.Label
	}
	return s
}

// TargetBPM is the mean of the known tempos of both sides, to one decimal.
// It is 0 when neither tempo is known.
func TargetBPM(from, to models.Track) float64 {
	var known []float64
	for _, bpm := range [...]float64{from.BPM, to.BPM} {
		if bpm > 0 {
			known = append(known, bpm)
		}
	}
	if len(known) == 0 {
		return 0
	}
	return scoring.Round(stat.Mean(known, nil), 1)
}

// TargetEnergy is the mean energy of both sides, to two decimals.
func TargetEnergy(from, to models.Track) float64 {
	return scoring.Round(stat.Mean([]float64{from.Energy, to.Energy}, nil), 2)
}

// TargetKey picks the wheel-lowest key compatible with both sides. Without
// a shared key it keeps the first side's key, or the second's when the first
// is unknown.
func TargetKey(from, to models.Track) string {
	a, okA := camelot.Parse(from.Key)
	b, okB := camelot.Parse(to.Key)
	if okA && okB {
		var shared []camelot.Key
		for _, ka := range camelot.CompatibleKeys(a) {
			for _, kb := range camelot.CompatibleKeys(b) {
				if ka == kb {
					shared = append(shared, ka)
				}
			}
		}
		if len(shared) > 0 {
			sort.Slice(shared, func(i, j int) bool { return shared[i].Less(shared[j]) })
			return shared[0].String()
		}
	}
	if okA || !okB {
		return from.Key
	}
	return to.Key
}

func issues(from, to models.Track, c scoring.Components) []string {
	var out []string
	if c.Key < scoring.WeakThreshold {
		out = append(out, fmt.Sprintf("Key clash: %s → %s", keyLabel(from.Key), keyLabel(to.Key)))
	}
	if c.Tempo < scoring.WeakThreshold {
		out = append(out, fmt.Sprintf("BPM jump: %s → %s", bpmLabel(from.BPM), bpmLabel(to.BPM)))
	}
	if c.Energy < scoring.WeakThreshold {
		out = append(out, fmt.Sprintf("Energy jump: %.1f → %.1f", from.Energy, to.Energy))
	}
	if c.Phrase < scoring.WeakThreshold {
		out = append(out, fmt.Sprintf("Phrase misalignment: %.2f", c.Phrase))
	}
	return out
}

func keyLabel(k string) string {
	if k == "" {
		return "?"
	}
	return k
}

func bpmLabel(bpm float64) string {
	if bpm <= 0 {
		return "?"
	}
	return strconv.FormatFloat(bpm, 'f', -1, 64)
}

func unusedPool(pool []models.Track, inSet map[string]bool) []models.Track {
	seen := make(map[string]bool, len(pool))
	out := make([]models.Track, 0, len(pool))
	for _, t := range pool {
		if inSet[t.ID] || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// BridgeScore rates candidate against the target of suggestion s.
func BridgeScore(s Suggestion, from, to, candidate models.Track, mode scoring.RiskMode) float64 {
	key := math.Max(camelot.Score(candidate.Key, from.Key), camelot.Score(candidate.Key, to.Key))
	key = math.Max(key, camelot.Score(candidate.Key, s.SuggestedKey))
	c := scoring.Components{
		Key:    key,
		Tempo:  scoring.Tempo(s.SuggestedBPM, candidate.BPM),
		Energy: math.Max(0, 1-math.Abs(s.SuggestedEnergy-candidate.Energy)),
		Phrase: scoring.Phrase(from.BPM, from.Duration, candidate.BPM, candidate.Duration),
	}
	return scoring.Composite(c, mode)
}

func bridges(s Suggestion, from, to models.Track, unused []models.Track, mode scoring.RiskMode) []Bridge {
	out := []Bridge{}
	for _, c := range unused {
		score := BridgeScore(s, from, to, c, mode)
		if score < MinBridgeScore {
			continue
		}
		out = append(out, Bridge{TrackID: c.ID, Label: c.DisplayName(), Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TrackID < out[j].TrackID
	})
	if len(out) > maxBridges {
		out = out[:maxBridges]
	}
	return out
}
