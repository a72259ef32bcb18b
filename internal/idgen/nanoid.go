package idgen

import (
	"fmt"
	"math/bits"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// NanoIDAlphabet is the default URL-safe alphabet (64 symbols).
	NanoIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

	// DefaultNanoIDSize is the default NanoID length.
	DefaultNanoIDSize = 21

	// MaxNanoIDSize is the largest supported NanoID length.
	MaxNanoIDSize = 256
)

// EncodeNanoID maps each byte's low six bits onto NanoIDAlphabet.
// The alphabet has exactly 64 symbols, so masking is unbiased.
func EncodeNanoID(b []byte) string {
	return encodeMasked(b, NanoIDAlphabet)
}

// encodeMasked maps bytes onto an alphabet whose length is a power of two.
func encodeMasked(b []byte, alphabet string) string {
	mask := byte(len(alphabet) - 1)
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = alphabet[c&mask]
	}
	return string(out)
}

// NanoIDGenerator generates NanoIDs of a fixed size.
//
// Alphabets whose length is a power of two are drawn from the injected
// RandomSource by masking. Other alphabets are delegated to go-nanoid, which
// uses rejection sampling over crypto/rand.
type NanoIDGenerator struct {
	random   RandomSource
	size     int
	alphabet string
	masked   bool
}

// NewNanoIDGenerator creates a new NanoIDGenerator.
// An empty alphabet selects NanoIDAlphabet; size must be between 1 and 256.
func NewNanoIDGenerator(random RandomSource, size int, alphabet string) (*NanoIDGenerator, error) {
	if size < 1 || size > MaxNanoIDSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNanoIDSize, size)
	}
	if alphabet == "" {
		alphabet = NanoIDAlphabet
	}
	if err := validateAlphabet(alphabet); err != nil {
		return nil, err
	}
	return &NanoIDGenerator{
		random:   random,
		size:     size,
		alphabet: alphabet,
		masked:   bits.OnesCount(uint(len(alphabet))) == 1,
	}, nil
}

// Generate creates a new NanoID.
func (g *NanoIDGenerator) Generate() (string, error) {
	if !g.masked {
		id, err := gonanoid.Generate(g.alphabet, g.size)
		if err != nil {
			return "", sourceError(err)
		}
		return id, nil
	}

	b, err := g.random.Bytes(g.size)
	if err != nil {
		return "", sourceError(err)
	}
	if len(b) != g.size {
		return "", fmt.Errorf("%w: short read (%d of %d bytes)", ErrRandomSourceUnavailable, len(b), g.size)
	}
	return encodeMasked(b, g.alphabet), nil
}

// Size returns the configured length.
func (g *NanoIDGenerator) Size() int {
	return g.size
}

// Alphabet returns the configured alphabet.
func (g *NanoIDGenerator) Alphabet() string {
	return g.alphabet
}

// validateAlphabet requires 2-255 distinct ASCII characters.
func validateAlphabet(alphabet string) error {
	if len(alphabet) < 2 || len(alphabet) > 255 {
		return fmt.Errorf("%w: got %d characters", ErrInvalidAlphabet, len(alphabet))
	}
	var seen [128]bool
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		if c >= 128 {
			return fmt.Errorf("%w: non-ASCII byte at %d", ErrInvalidAlphabet, i)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate %q", ErrInvalidAlphabet, c)
		}
		seen[c] = true
	}
	return nil
}
