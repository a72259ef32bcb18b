package idgen

import "errors"

// Common errors for ID generation.
var (
	// ErrUnknownFormat is returned when a format is outside the supported set.
	ErrUnknownFormat = errors.New("unknown identifier format")

	// ErrRandomSourceUnavailable is returned when the secure random source fails.
	// Generation is never retried with a weaker source.
	ErrRandomSourceUnavailable = errors.New("secure random source unavailable")

	// ErrInvalidID is returned when an identifier does not match its format.
	ErrInvalidID = errors.New("invalid identifier")

	// ErrBitReaderExhausted is returned when more bits are requested than remain.
	ErrBitReaderExhausted = errors.New("not enough bits remaining")

	// ErrInvalidNanoIDSize is returned when a NanoID size is out of range (1-256).
	ErrInvalidNanoIDSize = errors.New("nanoid size must be between 1 and 256")

	// ErrInvalidAlphabet is returned when a custom alphabet is unusable.
	ErrInvalidAlphabet = errors.New("alphabet must have between 2 and 255 unique ASCII characters")
)
