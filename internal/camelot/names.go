/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package camelot

import "strings"

var nameToWheel = map[string]string{
	"c major": "8B", "g major": "9B", "d major": "10B",
	"a major": "11B", "e major": "12B", "b major": "1B",
	"f# major": "2B", "gb major": "2B", "db major": "3B",
	"c# major": "3B", "ab major": "4B", "eb major": "5B",
	"bb major": "6B", "f major": "7B",

	"c minor": "5A", "g minor": "6A", "d minor": "7A",
	"a minor": "8A", "e minor": "9A", "b minor": "10A",
	"f# minor": "11A", "gb minor": "11A", "db minor": "12A",
	"c# minor": "12A", "ab minor": "1A", "eb minor": "2A",
	"bb minor": "3A", "f minor": "4A",
}

// Preferred spellings when rendering a wheel key.
var wheelToName = map[string]string{
	"1A": "Ab minor", "2A": "Eb minor", "3A": "Bb minor", "4A": "F minor",
	"5A": "C minor", "6A": "G minor", "7A": "D minor", "8A": "A minor",
	"9A": "E minor", "10A": "B minor", "11A": "F# minor", "12A": "Db minor",
	"1B": "B major", "2B": "F# major", "3B": "Db major", "4B": "Ab major",
	"5B": "Eb major", "6B": "Bb major", "7B": "F major", "8B": "C major",
	"9B": "G major", "10B": "D major", "11B": "A major", "12B": "E major",
}

// FromKeyName converts a key name such as "A minor" to wheel notation.
// Unknown names return "".
func FromKeyName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return nameToWheel[strings.Join(fields, " ")]
}

// KeyName renders a wheel key for humans, e.g. "8A" -> "A minor".
func KeyName(s string) string {
	k, ok := Parse(s)
	if !ok {
		return ""
	}
	return wheelToName[k.String()]
}

// Normalize accepts wheel notation or a key name and returns wheel notation.
func Normalize(s string) string {
	if k, ok := Parse(s); ok {
		return k.String()
	}
	return FromKeyName(s)
}
