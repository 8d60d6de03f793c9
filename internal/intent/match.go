/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package intent

import "sort"

const (
	phraseScore    = 1.0
	perWordBonus   = 0.25
	exactNameBonus = 0.5

	// keepRatio is the share of the top score a profile needs to be kept.
	keepRatio  = 0.45
	maxMatches = 6
)

// Match is a genre profile found in a description.
type Match struct {
	Profile      Profile `json:"profile"`
	Score        float64 `json:"score"`
	MatchedWords int     `json:"matched_words"`
}

// Match ranks the profiles named in text. Text is normalized and jargon
// expanded first.
func (c *Catalog) Match(text string) []Match {
	return c.matchExpanded(c.ExpandJargon(Normalize(text)))
}

func (c *Catalog) matchExpanded(expanded string) []Match {
	var found []Match
	for _, p := range c.profiles {
		m := Match{Profile: p}
		if containsPhrase(expanded, p.Name) {
			m.add(p.Name)
			m.Score += exactNameBonus
		}
		for _, a := range p.Aliases {
			if containsPhrase(expanded, a) {
				m.add(a)
			}
		}
		if m.Score > 0 {
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		return nil
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.MatchedWords != b.MatchedWords {
			return a.MatchedWords > b.MatchedWords
		}
		return a.Profile.Name < b.Profile.Name
	})

	floor := found[0].Score * keepRatio
	kept := found[:0]
	for _, m := range found {
		if m.Score >= floor {
			kept = append(kept, m)
		}
	}
	if len(kept) > maxMatches {
		kept = kept[:maxMatches]
	}
	return kept
}

func (m *Match) add(phrase string) {
	words := wordCount(phrase)
	m.Score += phraseScore + perWordBonus*float64(words-1)
	if words > m.MatchedWords {
		m.MatchedWords = words
	}
}
