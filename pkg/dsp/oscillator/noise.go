package oscillator

import (
	"math/rand/v2"
	"sync/atomic"
)

// seedCounter hands out distinct default seeds so stacked noise
// oscillators are decorrelated.
var seedCounter atomic.Uint64

func nextSeed() uint64 {
	return seedCounter.Add(0x9E3779B97F4A7C15)
}

// NoiseSource generates uniform white noise in [-1, 1].
type NoiseSource struct {
	rand *rand.Rand
	pcg  *rand.PCG
}

// NewNoiseSource creates a noise source with the given seed
func NewNoiseSource(seed uint64) *NoiseSource {
	pcg := rand.NewPCG(seed, seed^0xDA3E39CB94B95BDB)
	return &NoiseSource{
		rand: rand.New(pcg),
		pcg:  pcg,
	}
}

// SetSeed reseeds the source for reproducible noise - no allocations
func (n *NoiseSource) SetSeed(seed uint64) {
	n.pcg.Seed(seed, seed^0xDA3E39CB94B95BDB)
}

// Next returns the next noise sample
func (n *NoiseSource) Next() float64 {
	return n.rand.Float64()*2.0 - 1.0
}
