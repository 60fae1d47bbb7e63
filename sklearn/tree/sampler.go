package tree

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// AttributeSampler chooses the candidate attributes evaluated at a node.
// Sample must return mtry distinct indices in [0, p). It is called only from
// the goroutine running Train.
type AttributeSampler interface {
	Sample(p, mtry int) []int
}

// SamplerFunc adapts a function to AttributeSampler.
type SamplerFunc func(p, mtry int) []int

// Sample calls f(p, mtry).
func (f SamplerFunc) Sample(p, mtry int) []int { return f(p, mtry) }

type randomSampler struct {
	src rand.Source
}

// NewRandomSampler returns a sampler drawing attributes uniformly without
// replacement from a PCG source seeded with seed. When mtry equals p every
// attribute is evaluated in index order and no randomness is consumed.
func NewRandomSampler(seed uint64) AttributeSampler {
	return &randomSampler{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

func (s *randomSampler) Sample(p, mtry int) []int {
	if mtry >= p {
		idx := make([]int, p)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	idx := make([]int, mtry)
	sampleuv.WithoutReplacement(idx, p, s.src)
	return idx
}
