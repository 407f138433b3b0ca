package sim

import "math/rand/v2"

// RandomSource is the randomness the simulator consumes. Effects that pick
// random cascade targets draw from it, so a seeded source makes a whole
// round reproducible.
type RandomSource interface {
	IntN(n int) int
}

type seededRNG struct{ r *rand.Rand }

// NewSeededRNG returns a reproducible source backed by a PCG stream.
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) IntN(n int) int { return s.r.IntN(n) }

// sample picks k distinct indices from [0, n) without replacement.
func sample(rng RandomSource, n, k int) []int {
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
