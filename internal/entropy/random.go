// Package entropy centralizes every stochastic draw the simulation makes.
// A seeded Source makes ticks reproducible; a zero seed falls back to crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand"
)

// Source is the minimal random interface consumed by the simulation.
// Float64 returns a value in [0, 1); Intn returns a value in [0, n).
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Rand is the default seeded Source.
type Rand struct {
	rng  *mrand.Rand
	seed int64
}

// New creates a seeded Source. A zero seed is replaced by a crypto-random one.
func New(seed int64) *Rand {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Rand{rng: mrand.New(mrand.NewSource(seed)), seed: seed}
}

// Seed returns the seed the source was created with.
func (r *Rand) Seed() int64 { return r.seed }

func (r *Rand) Float64() float64 { return r.rng.Float64() }

func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.rng.Intn(n)
}

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; any fixed non-zero seed keeps things running.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// Bernoulli returns true with probability p.
func Bernoulli(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	return src.Float64() < p
}

// Uniform returns a value in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Jitter returns a value in [-spread/2, spread/2).
func Jitter(src Source, spread float64) float64 {
	return (src.Float64() - 0.5) * spread
}

// Pick returns a uniformly chosen index into a collection of length n, or -1 if empty.
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	return src.Intn(n)
}

// Weighted picks an index with probability proportional to weights[i].
// Falls back to the last index when rounding leaves the draw unassigned.
func Weighted(src Source, weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 || math.IsNaN(total) {
		return 0
	}
	draw := src.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		if draw < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Reader adapts a Source into an io.Reader so byte-oriented consumers
// (uuid generation) stay reproducible under a fixed seed.
type Reader struct {
	Src Source
}

func (r Reader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.Src.Intn(256))
	}
	return len(p), nil
}
