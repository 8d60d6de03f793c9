/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package intent

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, spells out "&" and collapses every run of
// non-alphanumeric characters into a single space.
func Normalize(text string) string {
	text = strings.ReplaceAll(strings.ToLower(text), "&", " and ")

	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// ExpandJargon appends the expansion of every jargon term found in
// normalized text. Original words are kept and expansions already present
// are not repeated, so expanding twice gives the same text as expanding once.
func (c *Catalog) ExpandJargon(normalized string) string {
	text := normalized
	for range len(c.jargon) + 1 {
		changed := false
		for _, j := range c.jargon {
			if containsPhrase(text, j.Term) && !containsPhrase(text, j.ExpandsTo) {
				text = strings.TrimSpace(text + " " + j.ExpandsTo)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return text
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must be normalized.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

func wordCount(phrase string) int {
	return len(strings.Fields(phrase))
}
