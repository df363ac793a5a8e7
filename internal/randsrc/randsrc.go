// Package randsrc provides the pseudo-random seam the action generator and
// the throttle/ack oracles draw from, so the simulation harness is
// deterministic given a seed instead of wired to OS entropy at load time.
package randsrc

import "math/rand"

// Source is the minimal surface the simulation harness needs from a PRNG.
type Source interface {
	// Intn returns a pseudo-random int in [0, n).
	Intn(n int) int
	// Float64 returns a pseudo-random float64 in [0, 1).
	Float64() float64
}

type mathRandSource struct {
	rng *rand.Rand
}

// New wraps a seeded math/rand source behind the Source interface.
func New(seed int64) Source {
	return &mathRandSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *mathRandSource) Intn(n int) int {
	return s.rng.Intn(n)
}

func (s *mathRandSource) Float64() float64 {
	return s.rng.Float64()
}

// IntRange returns a pseudo-random int in [lower, upper], inclusive on both
// ends, matching the reference program's std::uniform_int_distribution usage.
func IntRange(src Source, lower, upper int) int {
	if lower > upper {
		lower, upper = upper, lower
	}
	return lower + src.Intn(upper-lower+1)
}

// Bernoulli draws true with probability p.
func Bernoulli(src Source, p float64) bool {
	return src.Float64() < p
}
