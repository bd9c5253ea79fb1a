// Package randutil derives reproducible math/rand/v2 streams from int64 seeds.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed. Both PCG words
// are derived through splitmix64 so adjacent seeds give unrelated streams.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive returns the seed for sub-stream index of seed. Experiment arms use it
// to give every game its own stream, independent of which worker plays it.
func Derive(seed int64, index int) int64 {
	return int64(mix(uint64(seed) + uint64(index+1)*goldenRatio64))
}

// ForGame returns the stream for game index under seed.
func ForGame(seed int64, index int) *rand.Rand {
	return New(Derive(seed, index))
}

// Seed returns seed when non-zero, otherwise a time-based seed. The caller
// should log whichever value is used so runs can be replayed.
func Seed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
