/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package camelot

import (
	"fmt"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Key
		ok    bool
	}{
		{"8A", Key{8, Minor}, true},
		{"12B", Key{12, Major}, true},
		{"1a", Key{1, Minor}, true},
		{" 7b ", Key{7, Major}, true},
		{"", Key{}, false},
		{"13A", Key{}, false},
		{"0B", Key{}, false},
		{"XY", Key{}, false},
		{"8C", Key{}, false},
		{"A", Key{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestScoreScenarios(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"8A", "8A", 1.0},
		{"8A", "8B", 0.8},
		{"8A", "9A", 0.8},
		{"8A", "7A", 0.8},
		{"8A", "10A", 0.5},
		{"8A", "2B", 0.2},
		{"8A", "2A", 0.2},
		{"12A", "1A", 0.8},
		{"1B", "12B", 0.8},
		{"1A", "11A", 0.5},
		{"", "8A", 0.5},
		{"8A", "", 0.5},
		{"8A", "garbage", 0.5},
		{"8a", "8A", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := Score(tt.a, tt.b); got != tt.want {
				t.Fatalf("Score(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestScoreAllPairs(t *testing.T) {
	letters := []Letter{Minor, Major}
	for n1 := 1; n1 <= 12; n1++ {
		for _, l1 := range letters {
			for n2 := 1; n2 <= 12; n2++ {
				for _, l2 := range letters {
					a := Key{n1, l1}.String()
					b := Key{n2, l2}.String()
					got := Score(a, b)
					if got != Score(b, a) {
						t.Fatalf("Score not symmetric for %s/%s", a, b)
					}

					d := Distance(n1, n2)
					var want float64
					switch {
					case n1 == n2 && l1 == l2:
						want = 1.0
					case n1 == n2:
						want = 0.8
					case l1 == l2 && d == 1:
						want = 0.8
					case l1 == l2 && d == 2:
						want = 0.5
					default:
						want = 0.2
					}
					if got != want {
						t.Fatalf("Score(%s, %s) = %v, want %v", a, b, got, want)
					}
				}
			}
		}
	}
}

func TestDistanceWraps(t *testing.T) {
	if Distance(12, 1) != 1 || Distance(1, 12) != 1 {
		t.Fatal("distance between 12 and 1 should be 1")
	}
	if Distance(3, 9) != 6 {
		t.Fatalf("Distance(3, 9) = %d, want 6", Distance(3, 9))
	}
	if Distance(11, 1) != 2 {
		t.Fatalf("Distance(11, 1) = %d, want 2", Distance(11, 1))
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"8A", []string{"8A", "9A", "7A", "8B"}},
		{"12A", []string{"12A", "1A", "11A", "12B"}},
		{"1B", []string{"1B", "2B", "12B", "1A"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := Compatible(tt.key)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("Compatible(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}

	if Compatible("nope") != nil {
		t.Fatal("invalid key should have no compatible keys")
	}
}

func TestKeyNames(t *testing.T) {
	tests := []struct {
		name  string
		wheel string
	}{
		{"A minor", "8A"},
		{"C major", "8B"},
		{"G major", "9B"},
		{"F# minor", "11A"},
		{"  eb   MINOR ", "2A"},
		{"nonexistent", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromKeyName(tt.name); got != tt.wheel {
				t.Fatalf("FromKeyName(%q) = %q, want %q", tt.name, got, tt.wheel)
			}
		})
	}

	if got := KeyName("8a"); got != "A minor" {
		t.Fatalf("KeyName(8a) = %q", got)
	}
	if got := Normalize("C major"); got != "8B" {
		t.Fatalf("Normalize(C major) = %q", got)
	}
	if got := Normalize("09b"); got != "9B" {
		t.Fatalf("Normalize(09b) = %q", got)
	}
}

func TestKeyLess(t *testing.T) {
	if !(Key{2, Minor}).Less(Key{10, Minor}) {
		t.Fatal("2A should sort before 10A")
	}
	if !(Key{8, Minor}).Less(Key{8, Major}) {
		t.Fatal("8A should sort before 8B")
	}
}
