/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scoring

import "math"

// Direction is the expected energy movement between two tracks.
type Direction string

const (
	DirectionAny  Direction = "any"
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// directionTolerance is how far energy may move against the expected
// direction before it is penalised.
const directionTolerance = 0.1

// Energy rates how smoothly perceived intensity changes from a to b. With
// DirectionUp or DirectionDown, agreeing moves gain 0.1 and clearly opposing
// moves lose 0.2.
func Energy(a, b float64, dir Direction) float64 {
	delta := b - a
	abs := math.Abs(delta)

	var score float64
	switch {
	case abs > 0.5:
		score = 0.2
	case abs > 0.3:
		score = 0.5
	case abs > 0.15:
		score = 0.7
	default:
		score = 0.9
	}

	switch dir {
	case DirectionUp:
		if delta > 0 {
			score = math.Min(score+0.1, 1.0)
		} else if delta < -directionTolerance {
			score = math.Max(score-0.2, 0.0)
		}
	case DirectionDown:
		if delta < 0 {
			score = math.Min(score+0.1, 1.0)
		} else if delta > directionTolerance {
			score = math.Max(score-0.2, 0.0)
		}
	}

	return Round(score, 2)
}
