/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scoring

import (
	"errors"
	"testing"

	"github.com/friendsincode/deepcrate/internal/models"
)

func TestTempo(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"exact", 174, 174, 1.0},
		{"within one", 128, 129, 1.0},
		{"within three", 128, 130, 0.9},
		{"three inclusive", 128, 131, 0.9},
		{"within six", 174, 179, 0.7},
		{"within ten", 120, 130, 0.5},
		{"within fifteen", 120, 135, 0.3},
		{"far", 174, 190, 0.1},
		{"half tempo", 174, 87, 1.0},
		{"double tempo", 87, 174, 1.0},
		{"half tempo off by one", 87, 175, 1.0},
		{"unknown left", 0, 174, 0.5},
		{"unknown right", 174, 0, 0.5},
		{"negative", -5, 120, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tempo(tt.a, tt.b); got != tt.want {
				t.Fatalf("Tempo(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTempoOctaveSwapInvariant(t *testing.T) {
	if Tempo(87, 174) != Tempo(174, 87) || Tempo(87, 174) != 1.0 {
		t.Fatalf("octave pair should score 1.0 both ways")
	}
}

func TestInRange(t *testing.T) {
	tests := []struct {
		bpm  float64
		want bool
	}{
		{174, true},
		{87, true},
		{124, false},
		{0, false},
		{350, true},
	}

	for _, tt := range tests {
		if got := InRange(tt.bpm, 170, 175); got != tt.want {
			t.Errorf("InRange(%v, 170, 175) = %v, want %v", tt.bpm, got, tt.want)
		}
	}
}

func TestEnergy(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		dir  Direction
		want float64
	}{
		{"big jump", 0.30, 0.90, DirectionAny, 0.2},
		{"smooth", 0.5, 0.55, DirectionAny, 0.9},
		{"moderate", 0.3, 0.5, DirectionAny, 0.7},
		{"half step", 0.25, 0.75, DirectionAny, 0.5},
		{"up agrees", 0.3, 0.5, DirectionUp, 0.8},
		{"up opposes", 0.5, 0.3, DirectionUp, 0.5},
		{"up within tolerance", 0.5, 0.45, DirectionUp, 0.9},
		{"down agrees", 0.75, 0.25, DirectionDown, 0.6},
		{"down opposes", 0.3, 0.5, DirectionDown, 0.5},
		{"cap at one", 0.5, 0.55, DirectionUp, 1.0},
		{"floor at zero", 0.9, 0.1, DirectionUp, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Energy(tt.a, tt.b, tt.dir); got != tt.want {
				t.Fatalf("Energy(%v, %v, %s) = %v, want %v", tt.a, tt.b, tt.dir, got, tt.want)
			}
		})
	}
}

func TestEnergyDirectionPreference(t *testing.T) {
	up := Energy(0.3, 0.5, DirectionUp)
	down := Energy(0.3, 0.5, DirectionDown)
	if up <= down {
		t.Fatalf("rising energy should score higher when rising is expected: up=%v down=%v", up, down)
	}
}

func TestPhrase(t *testing.T) {
	tests := []struct {
		name                   string
		bpmA, durA, bpmB, durB float64
		want                   float64
	}{
		{"both on 64 bar grid", 128, 240, 128, 240, 1.0},
		{"one slightly off", 128, 240, 120, 250, 0.95},
		{"unknown bpm", 0, 240, 128, 240, 0.6},
		{"unknown duration", 128, 0, 128, 240, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Phrase(tt.bpmA, tt.durA, tt.bpmB, tt.durB); got != tt.want {
				t.Fatalf("Phrase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBars(t *testing.T) {
	if got := Bars(174, 300); got != 217.5 {
		t.Fatalf("Bars(174, 300) = %v, want 217.5", got)
	}
}

func TestWeightsSumToOne(t *testing.T) {
	for _, mode := range RiskModes() {
		if sum := WeightsFor(mode).Sum(); sum != 100 {
			t.Fatalf("weights for %s sum to %d hundredths", mode, sum)
		}
	}
}

func TestCompositeRange(t *testing.T) {
	grid := []float64{0, 0.2, 0.5, 0.8, 1}
	for _, mode := range RiskModes() {
		for _, k := range grid {
			for _, tp := range grid {
				for _, e := range grid {
					for _, p := range grid {
						got := Composite(Components{k, tp, e, p}, mode)
						if got < 0 || got > 1 {
							t.Fatalf("Composite out of range for %s: %v", mode, got)
						}
					}
				}
			}
		}
		if got := Composite(Components{1, 1, 1, 1}, mode); got != 1.0 {
			t.Fatalf("perfect components under %s = %v", mode, got)
		}
	}
}

func TestCompositeDefaultsToBalanced(t *testing.T) {
	c := Components{Key: 0.8, Tempo: 0.9, Energy: 0.5, Phrase: 0.6}
	if Composite(c, "") != Composite(c, RiskBalanced) {
		t.Fatal("empty risk mode should weigh like balanced")
	}
	// 0.36*0.8 + 0.32*0.9 + 0.22*0.5 + 0.10*0.6 = 0.746
	if got := Composite(c, RiskBalanced); got != 0.75 {
		t.Fatalf("Composite(balanced) = %v, want 0.75", got)
	}
}

func TestParseRiskMode(t *testing.T) {
	tests := []struct {
		input   string
		want    RiskMode
		wantErr bool
	}{
		{"", RiskBalanced, false},
		{"safe", RiskSafe, false},
		{" BOLD ", RiskBold, false},
		{"yolo", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRiskMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRiskMode(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownRiskMode) {
			t.Fatalf("expected ErrUnknownRiskMode, got %v", err)
		}
		if got != tt.want {
			t.Fatalf("ParseRiskMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestScoreTracks(t *testing.T) {
	tests := []struct {
		name     string
		from, to models.Track
		check    func(float64) bool
	}{
		{
			name:  "near perfect",
			from:  models.Track{BPM: 174, Key: "8A", Energy: 0.5},
			to:    models.Track{BPM: 174, Key: "8A", Energy: 0.55},
			check: func(s float64) bool { return s >= 0.85 },
		},
		{
			name:  "clash",
			from:  models.Track{BPM: 174, Key: "8A", Energy: 0.2},
			to:    models.Track{BPM: 130, Key: "2B", Energy: 0.9},
			check: func(s float64) bool { return s <= 0.3 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Score(tt.from, tt.to, RiskBalanced)
			if !tt.check(tr.Composite) {
				t.Fatalf("unexpected composite %v", tr.Composite)
			}
			if tr.Label != Label(tr.Composite) {
				t.Fatalf("label %q does not match composite %v", tr.Label, tr.Composite)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.9, "Excellent"},
		{0.85, "Excellent"},
		{0.75, "Good"},
		{0.55, "Decent"},
		{0.5, "Decent"},
		{0.35, "Rough"},
		{0.1, "Clash"},
	}

	for _, tt := range tests {
		if got := Label(tt.score); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
	if !IsWeak(0.49) || IsWeak(0.5) {
		t.Fatal("weak threshold should be exclusive at 0.5")
	}
}

func TestWeakest(t *testing.T) {
	tests := []struct {
		name string
		c    Components
		want Component
	}{
		{"key lowest", Components{0.2, 0.9, 0.9, 0.6}, ComponentKey},
		{"tempo lowest", Components{0.8, 0.1, 0.9, 0.6}, ComponentTempo},
		{"energy lowest", Components{0.8, 0.9, 0.2, 0.6}, ComponentEnergy},
		{"phrase lowest", Components{0.8, 0.9, 0.9, 0.3}, ComponentPhrase},
		{"tie prefers key", Components{0.2, 0.2, 0.9, 0.6}, ComponentKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := tt.c.Weakest(); got != tt.want {
				t.Fatalf("Weakest() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestScoreSequence(t *testing.T) {
	tracks := []models.Track{
		{ID: "a", BPM: 124, Key: "8A", Energy: 0.4},
		{ID: "b", BPM: 125, Key: "9A", Energy: 0.5},
		{ID: "c", BPM: 126, Key: "9A", Energy: 0.55},
	}
	got := ScoreSequence(tracks, RiskSafe)
	if len(got) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(got))
	}
	if got[0].FromID != "a" || got[1].ToID != "c" {
		t.Fatalf("transitions out of order: %+v", got)
	}
	if ScoreSequence(tracks[:1], RiskSafe) != nil {
		t.Fatal("single track has no transitions")
	}
}
