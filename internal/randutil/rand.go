// Package randutil provides the deterministic random generator shared by
// every peer in a room. The generator is part of the wire protocol: an
// action replayed with the same 32-bit seed must produce the same stream on
// every peer, so the algorithm is fixed and must never change.
package randutil

import "math"

// Rand is a multiply-with-carry generator with two 16-bit lanes. The next
// value is a pure function of the seed and the number of prior calls.
type Rand struct {
	w, z uint32
}

// New returns a generator seeded from the provided 32-bit seed.
func New(seed uint32) *Rand {
	return &Rand{
		w: 123456789 + seed,
		z: 987654321 - seed,
	}
}

// Float64 returns the next value in [0, 1).
func (r *Rand) Float64() float64 {
	r.z = 36969*(r.z&0xffff) + r.z>>16
	r.w = 18000*(r.w&0xffff) + r.w>>16

	result := r.z<<16 + r.w&0xffff
	return float64(result) / 4294967296
}

// Intn returns an integer in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	return int(r.Float64() * float64(n))
}

// Uint32 draws a derived seed, used when one seeded action needs to spawn
// further seeded actions.
func (r *Rand) Uint32() uint32 {
	return uint32(math.Floor(r.Float64() * 0xffffffff))
}
