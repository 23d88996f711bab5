package games

import "math/rand"

// Wheel produces spin-wheel payouts by uniform choice over a fixed set.
type Wheel struct {
	Payouts []int64
}

// NewWheel returns the wheel with the product's original payout set.
func NewWheel() Wheel {
	return Wheel{Payouts: []int64{50, 100, 200, 500}}
}

// Spin draws one payout uniformly.
func (w Wheel) Spin(rng *rand.Rand) int64 {
	return w.Payouts[rng.Intn(len(w.Payouts))]
}
