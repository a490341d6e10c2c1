package wsrs

import (
	"hash/fnv"
	"math/rand/v2"
)

// Rand supplies the random draws consumed by extraction and substitution.
// *rand.Rand from math/rand/v2 satisfies it; tests substitute scripted
// sources to force individual draws.
type Rand interface {
	// IntN returns a uniform int in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Float64 returns a uniform float64 in [0, 1).
	Float64() float64
	// Shuffle pseudo-randomizes the order of n elements.
	Shuffle(n int, swap func(i, j int))
}

// NewRand derives an independent source for one record from the job seed and
// the record key. Two records never share a stream, and the same record
// always gets the same stream, which is what keeps retries and parallel
// runs reproducible.
func NewRand(seed uint64, key string) Rand {
	h := fnv.New64a()
	h.Write([]byte(key))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}
