/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequencer

import (
	"strings"

	"github.com/friendsincode/deepcrate/internal/models"
)

// ProposedSelection is an unordered track list from an outside source, such
// as a language model. Nothing in it is trusted: IDs are validated against
// the pool and the order is always recomputed.
type ProposedSelection struct {
	Source   string   `json:"source"`
	TrackIDs []string `json:"track_ids"`
}

// FromProposal sequences the proposed tracks. Unknown IDs are dropped with a
// warning, duplicates collapse, the list is cut to the target and padded from
// the filtered pool when short. An empty selection behaves like Sequence.
func FromProposal(req Request, sel ProposedSelection) (Result, error) {
	p, err := prepare(req)
	if err != nil {
		return Result{}, err
	}

	byID := make(map[string]models.Track, len(p.pool))
	for _, t := range p.pool {
		byID[t.ID] = t
	}

	var (
		warnings []string
		chosen   []models.Track
		seen     = make(map[string]bool)
	)
	for _, raw := range sel.TrackIDs {
		id := strings.TrimSpace(raw)
		t, ok := byID[id]
		if !ok {
			warnings = append(warnings, warnUnknownTrack+id)
			continue
		}
		if seen[id] || len(chosen) >= req.Target {
			continue
		}
		seen[id] = true
		chosen = append(chosen, t)
	}

	if len(chosen) == 0 {
		tracks := p.order(p.ranked, req.Target)
		return p.result(tracks, req.Target, "engine", warnings), nil
	}

	for _, t := range p.ranked {
		if len(chosen) >= req.Target {
			break
		}
		if !seen[t.ID] {
			seen[t.ID] = true
			chosen = append(chosen, t)
		}
	}

	source := sel.Source
	if source == "" {
		source = "proposal"
	}
	tracks := p.order(rank(chosen), req.Target)
	return p.result(tracks, req.Target, source, warnings), nil
}
