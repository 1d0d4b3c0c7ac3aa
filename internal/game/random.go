package game

import "math/rand/v2"

// Rand is the random stream the day simulation draws from. *rand.Rand
// satisfies it; tests substitute scripted sequences.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// randInt draws uniformly from [lo, hi] inclusive.
func randInt(r Rand, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + r.IntN(hi-lo+1)
}

func uniform(r Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
