/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package intent

// Reading is everything inferred from one description.
type Reading struct {
	Text            string  `json:"text"`
	Expanded        string  `json:"expanded"`
	Profiles        []Match `json:"profiles"`
	Arc             Arc     `json:"arc"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
}

// Matched returns the matched profiles without their scores.
func (r Reading) Matched() []Profile {
	out := make([]Profile, len(r.Profiles))
	for i, m := range r.Profiles {
		out[i] = m.Profile
	}
	return out
}

// Names returns the matched profile names in rank order.
func (r Reading) Names() []string {
	out := make([]string, len(r.Profiles))
	for i, m := range r.Profiles {
		out[i] = m.Profile.Name
	}
	return out
}

// Infer reads text against the catalog.
func (c *Catalog) Infer(text string) Reading {
	normalized := Normalize(text)
	expanded := c.ExpandJargon(normalized)
	duration := DurationMinutes(text)
	return Reading{
		Text:            text,
		Expanded:        expanded,
		Profiles:        c.matchExpanded(expanded),
		Arc:             InferArc(normalized, PeakMinute(text), duration),
		DurationMinutes: duration,
	}
}

// Infer reads text against the built-in catalog.
func Infer(text string) Reading {
	return DefaultCatalog().Infer(text)
}
