/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package camelot implements the harmonic mixing wheel.
//
// Keys are written as a wheel position 1-12 followed by a letter. The letter
// convention is fixed: A is minor, B is major. Use KeyName when a key has to
// be shown to a person.
package camelot

import (
	"strconv"
	"strings"
)

// Letter is the mode half of a wheel key.
type Letter byte

const (
	Minor Letter = 'A'
	Major Letter = 'B'
)

// Neutral is returned when either key cannot be parsed.
const Neutral = 0.5

// Key is a parsed wheel position.
type Key struct {
	Number int
	Letter Letter
}

// String renders the key in wheel notation, e.g. "8A".
func (k Key) String() string {
	return strconv.Itoa(k.Number) + string(rune(k.Letter))
}

// Less orders keys wheel-ascending: by number, then A before B.
func (k Key) Less(other Key) bool {
	if k.Number != other.Number {
		return k.Number < other.Number
	}
	return k.Letter < other.Letter
}

// Relative returns the relative major/minor at the same position.
func (k Key) Relative() Key {
	if k.Letter == Minor {
		return Key{Number: k.Number, Letter: Major}
	}
	return Key{Number: k.Number, Letter: Minor}
}

// Step moves around the wheel, wrapping 12 -> 1.
func (k Key) Step(delta int) Key {
	n := ((k.Number-1+delta)%12+12)%12 + 1
	return Key{Number: n, Letter: k.Letter}
}

// Parse reads wheel notation. Case and surrounding whitespace are ignored.
func Parse(s string) (Key, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Key{}, false
	}
	letter := Letter(s[len(s)-1])
	if letter != Minor && letter != Major {
		return Key{}, false
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 1 || n > 12 {
		return Key{}, false
	}
	return Key{Number: n, Letter: letter}, true
}

// Valid reports whether s parses as a wheel key.
func Valid(s string) bool {
	_, ok := Parse(s)
	return ok
}

// Distance is the shortest number of steps between two wheel positions.
func Distance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	d %= 12
	if 12-d < d {
		return 12 - d
	}
	return d
}

// Score rates how well two keys mix. Unknown keys score Neutral.
func Score(a, b string) float64 {
	ka, okA := Parse(a)
	kb, okB := Parse(b)
	if !okA || !okB {
		return Neutral
	}
	return ScoreKeys(ka, kb)
}

// ScoreKeys is Score over parsed keys.
func ScoreKeys(a, b Key) float64 {
	if a.Number == b.Number {
		if a.Letter == b.Letter {
			return 1.0
		}
		return 0.8
	}
	if a.Letter != b.Letter {
		return 0.2
	}
	switch Distance(a.Number, b.Number) {
	case 1:
		return 0.8
	case 2:
		return 0.5
	}
	return 0.2
}

// Compatible lists the keys that mix cleanly with s: itself, one step either
// way, and its relative. Invalid input yields nil.
func Compatible(s string) []string {
	k, ok := Parse(s)
	if !ok {
		return nil
	}
	keys := CompatibleKeys(k)
	out := make([]string, len(keys))
	for i, c := range keys {
		out[i] = c.String()
	}
	return out
}

// CompatibleKeys is Compatible over a parsed key.
func CompatibleKeys(k Key) []Key {
	return []Key{k, k.Step(1), k.Step(-1), k.Relative()}
}
