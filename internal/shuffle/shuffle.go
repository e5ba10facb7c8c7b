// Package shuffle provides deterministic, seed-driven permutations.
package shuffle

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	fnvOffset = 2166136261
	fnvPrime  = 16777619

	// zeroStateFallback replaces a zero generator state.
	zeroStateFallback = 0x9E3779B9
)

// Generator is a small-state mulberry32 generator.
type Generator struct {
	state uint32
}

// New returns a Generator for the given seed state.
func New(seed uint32) *Generator {
	return &Generator{state: nonZero(seed)}
}

// Uint32 returns the next 32-bit output.
func (g *Generator) Uint32() uint32 {
	g.state += 0x6D2B79F5
	t := g.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns a uniform value in [0,1).
func (g *Generator) Float64() float64 {
	return float64(g.Uint32()) / 4294967296.0
}

// Intn returns a uniform value in [0,n). It panics if n <= 0.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		panic("shuffle: invalid argument to Intn")
	}
	return int(g.Float64() * float64(n))
}

// StringSeed folds a textual seed into a generator state.
func StringSeed(seed string) uint32 {
	h := uint32(fnvOffset)
	for _, r := range seed {
		h ^= uint32(r)
		h *= fnvPrime
	}
	return nonZero(h)
}

// NumberSeed truncates a numeric seed to 32 bits.
func NumberSeed(seed int64) uint32 {
	return nonZero(uint32(seed))
}

// ProblemSeed derives an independent seed for one problem of a session.
func ProblemSeed(sessionSeed string, index int) uint32 {
	return StringSeed(sessionSeed + ":" + strconv.Itoa(index))
}

// NewSeed returns a fresh session seed from wall-clock time and a random UUID.
func NewSeed() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString())
}

// Shuffle returns a permutation of items fully determined by seed.
// The input slice is never modified.
func Shuffle[T any](items []T, seed uint32) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) < 2 {
		return out
	}
	g := New(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := g.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func nonZero(state uint32) uint32 {
	if state == 0 {
		return zeroStateFallback
	}
	return state
}
