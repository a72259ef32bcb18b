package idgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// RandomSource produces uniformly distributed random bytes.
type RandomSource interface {
	// Bytes returns a freshly allocated slice of n random bytes.
	Bytes(n int) ([]byte, error)
}

// CryptoSource reads from the operating system's secure random generator.
type CryptoSource struct {
	reader io.Reader
}

// NewCryptoSource creates a RandomSource backed by crypto/rand.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{reader: rand.Reader}
}

// Bytes returns n bytes from crypto/rand.
func (s *CryptoSource) Bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		return nil, sourceError(err)
	}
	return buf, nil
}

// readInto fills dst from src, copying so the caller owns its buffer.
func readInto(src RandomSource, dst []byte) error {
	b, err := src.Bytes(len(dst))
	if err != nil {
		return sourceError(err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%w: short read (%d of %d bytes)", ErrRandomSourceUnavailable, len(b), len(dst))
	}
	copy(dst, b)
	return nil
}

// sourceError ensures err matches ErrRandomSourceUnavailable while keeping
// the underlying cause matchable.
func sourceError(err error) error {
	if errors.Is(err, ErrRandomSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRandomSourceUnavailable, err)
}
