/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scoring

import "math"

// NeutralPhrase is returned when BPM or duration is unknown on either side.
const NeutralPhrase = 0.6

// phraseBlocks are the standard phrase lengths in bars.
var phraseBlocks = [...]float64{8, 16, 32, 64}

// Bars estimates a track's length in 4/4 bars.
func Bars(bpm, duration float64) float64 {
	return duration * bpm / 240
}

// Phrase rates how cleanly both tracks' lengths fall on phrase boundaries.
func Phrase(bpmA, durationA, bpmB, durationB float64) float64 {
	if bpmA <= 0 || durationA <= 0 || bpmB <= 0 || durationB <= 0 {
		return NeutralPhrase
	}
	a := phraseFit(Bars(bpmA, durationA))
	b := phraseFit(Bars(bpmB, durationB))
	return Round((a+b)/2, 2)
}

func phraseFit(bars float64) float64 {
	best := 0.0
	for _, block := range phraseBlocks {
		rem := math.Mod(bars, block)
		distance := math.Min(rem, block-rem)
		fit := math.Max(0, 1-distance/(block/2))
		if fit > best {
			best = fit
		}
	}
	return best
}
