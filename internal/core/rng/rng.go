// Package rng provides the simulation's deterministic random stream. The
// stream's entire state is one word, so snapshots capture it exactly and a
// resumed simulation draws the same sequence the original would have. The
// standard library generators deliberately hide their state, which makes them
// unusable for bit-reproducible save/restore.
package rng

import "hash/fnv"

// Stream is an xorshift64* generator. Not safe for concurrent use; the logic
// driver owns it.
type Stream struct {
	state uint64
}

// New seeds a stream. A zero seed is remapped, since xorshift has a zero
// fixed point.
func New(seed uint64) *Stream {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &Stream{state: seed}
}

// SeedFromLabel derives a stable sub-seed from a root seed and a label, so
// independent consumers (AI, spawning) can draw from decorrelated streams.
func SeedFromLabel(root uint64, label string) uint64 {
	h := fnv.New64a()
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(root >> (8 * i))
	}
	h.Write(b[:])
	h.Write([]byte(label))
	sum := h.Sum64()
	if sum == 0 {
		sum = 1
	}
	return sum
}

func (s *Stream) Uint64() uint64 {
	x := s.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	s.state = x
	return x * 0x2545f4914f6cdd1d
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// IntN returns a value in [0, n). n must be positive.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		panic("rng: IntN with non-positive n")
	}
	return int(s.Uint64() % uint64(n))
}

// Uint64N returns a value in [0, n). n must be positive.
func (s *Stream) Uint64N(n uint64) uint64 {
	if n == 0 {
		panic("rng: Uint64N with zero n")
	}
	return s.Uint64() % n
}

// State exposes the generator word for snapshotting.
func (s *Stream) State() uint64 { return s.state }

// Restore overwrites the generator word from a snapshot.
func (s *Stream) Restore(state uint64) {
	if state == 0 {
		state = 0x9e3779b97f4a7c15
	}
	s.state = state
}
