// Package randutil centralizes how generators are seeded so that every
// consumer gets reproducible sequences from a single int64 seed.
package randutil

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	rand "math/rand/v2"
)

// New returns a *rand.Rand seeded deterministically from seed. The two
// 64-bit PCG state words are drawn from a splitmix64 stream keyed by the
// seed, so nearby seeds still produce unrelated generators.
func New(seed int64) *rand.Rand {
	hi, lo := expand(uint64(seed))
	return rand.New(rand.NewPCG(hi, lo))
}

// NewFromOS returns a *rand.Rand seeded from operating-system entropy, for
// runs where no seed was supplied.
func NewFromOS() *rand.Rand {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; if it somehow
		// does, the zero seed still yields a valid generator.
		return New(0)
	}
	return New(int64(binary.LittleEndian.Uint64(buf[:])))
}

// expand produces two state words by stepping a splitmix64 generator whose
// state is the seed.
func expand(state uint64) (uint64, uint64) {
	next := func() uint64 {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		return z ^ (z >> 31)
	}
	return next(), next()
}
