// Package games holds the pure outcome generators for the mini-games. Every
// generator draws from an injected random source and touches no account
// state.
package games

import "math/rand"

// BallDrop simulates a ball falling down a pegged board. The terminal
// horizontal position decides the payout: the center zone pays low, the two
// outer zones pay high. The distribution across zones is an artifact of the
// random-walk step size and the bucket widths, not a uniform draw.
type BallDrop struct {
	Width        float64
	BoundaryY    float64
	StepY        float64
	StepSpread   float64
	WallPad      float64
	CenterLow    float64
	CenterHigh   float64
	CenterPayout int64
	EdgePayout   int64
}

// BallDropOutcome is the terminal state of one drop.
type BallDropOutcome struct {
	FinalX float64
	Payout int64
	Steps  int
}

// NewBallDrop returns a board with the product's original geometry:
// a 320-wide board, 5px vertical steps to a 400px floor, per-step
// horizontal displacement uniform in (-10, +10) clamped 20px off each wall,
// and a 100..220 center zone paying 50 against 300 on the edges.
func NewBallDrop() BallDrop {
	return BallDrop{
		Width:        320,
		BoundaryY:    400,
		StepY:        5,
		StepSpread:   20,
		WallPad:      20,
		CenterLow:    100,
		CenterHigh:   220,
		CenterPayout: 50,
		EdgePayout:   300,
	}
}

// Drop runs the stepwise simulation to termination and buckets the final
// position into a payout.
func (b BallDrop) Drop(rng *rand.Rand) BallDropOutcome {
	x := b.Width / 2
	y := 0.0
	steps := 0

	for y <= b.BoundaryY {
		y += b.StepY
		x += (rng.Float64() - 0.5) * b.StepSpread

		if x < b.WallPad {
			x = b.WallPad
		}
		if x > b.Width-b.WallPad {
			x = b.Width - b.WallPad
		}

		steps++
	}

	return BallDropOutcome{
		FinalX: x,
		Payout: b.PayoutFor(x),
		Steps:  steps,
	}
}

// PayoutFor buckets a terminal horizontal position into a payout.
func (b BallDrop) PayoutFor(x float64) int64 {
	if x > b.CenterLow && x < b.CenterHigh {
		return b.CenterPayout
	}

	return b.EdgePayout
}
