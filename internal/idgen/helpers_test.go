package idgen

import (
	"errors"
	"math/rand"
	"sync"
)

// seededSource is a deterministic pseudo-random source for tests only.
type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSeededSource(seed int64) *seededSource {
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *seededSource) Bytes(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, n)
	_, _ = s.rng.Read(b)
	return b, nil
}

// fixedSource returns a copy of the same bytes on every call, truncated or
// repeated to the requested length.
type fixedSource struct {
	pattern []byte
}

func (s fixedSource) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	for i := range b {
		b[i] = s.pattern[i%len(s.pattern)]
	}
	return b, nil
}

var errEntropy = errors.New("entropy pool closed")

// failingSource always fails.
type failingSource struct{}

func (failingSource) Bytes(int) ([]byte, error) {
	return nil, errEntropy
}

// shortSource returns fewer bytes than requested.
type shortSource struct{}

func (shortSource) Bytes(n int) ([]byte, error) {
	return make([]byte, n/2), nil
}

func sequentialBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}
