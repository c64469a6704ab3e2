package spawn

import "math/rand/v2"

// WanderRNG is the random source the engine draws from. Injected so
// production wiring uses a process-seeded generator while tests use a fixed
// seed and get reproducible wander paths.
type WanderRNG interface {
	Float64() float64           // uniform [0,1)
	Uniform(lo, hi float64) float64 // uniform [lo,hi)
	Int64N(n int64) int64
}

// DefaultRNG wraps math/rand/v2's package-level generator, which is already
// safe for concurrent use.
type DefaultRNG struct{}

func (DefaultRNG) Float64() float64 { return rand.Float64() }

func (DefaultRNG) Uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

func (DefaultRNG) Int64N(n int64) int64 { return rand.Int64N(n) }
