package idgen

import (
	"errors"
	"strings"
)

const (
	// crockfordAlphabet is Crockford's base32 alphabet (no I, L, O, U).
	crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

	// base36Alphabet is the lowercase alphabet produced by base-36 formatting.
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// ErrInvalidCharacter is returned when decoding encounters an invalid character.
var ErrInvalidCharacter = errors.New("invalid character for alphabet")

// ErrEmptyString is returned when decoding an empty string.
var ErrEmptyString = errors.New("cannot decode empty string")

// ErrOverflow is returned when a decoded value does not fit in a uint64.
var ErrOverflow = errors.New("decoded value overflows uint64")

var (
	// Crockford32 encodes ULID timestamps.
	Crockford32 = NewCodec(crockfordAlphabet)

	// Base36 encodes CUID segments.
	Base36 = NewCodec(base36Alphabet)
)

// Codec converts unsigned integers to and from a positional alphabet.
// Digits are most-significant first.
type Codec struct {
	alphabet string
	base     uint64
	// values maps each byte to its digit value, -1 if invalid.
	values [256]int
}

// NewCodec creates a Codec for the given alphabet.
// Letters decode case-insensitively unless both cases appear in the alphabet.
func NewCodec(alphabet string) *Codec {
	c := &Codec{
		alphabet: alphabet,
		base:     uint64(len(alphabet)),
	}
	for i := range c.values {
		c.values[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		c.values[alphabet[i]] = i
	}
	for i := 0; i < len(alphabet); i++ {
		other := swapCase(alphabet[i])
		if other != alphabet[i] && c.values[other] == -1 {
			c.values[other] = i
		}
	}
	return c
}

// Alphabet returns the codec's alphabet.
func (c *Codec) Alphabet() string {
	return c.alphabet
}

// Digit returns the character for digit value v. v must be below the base.
func (c *Codec) Digit(v int) byte {
	return c.alphabet[v]
}

// Encode converts n to its shortest representation.
func (c *Codec) Encode(n uint64) string {
	if n == 0 {
		return c.alphabet[:1]
	}

	// 64 digits is enough for any base >= 2.
	var buf [64]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = c.alphabet[n%c.base]
		n /= c.base
	}
	return string(buf[i:])
}

// EncodeWithPadding encodes n and left-pads with the zero digit to minLength.
func (c *Codec) EncodeWithPadding(n uint64, minLength int) string {
	encoded := c.Encode(n)
	if len(encoded) >= minLength {
		return encoded
	}
	return strings.Repeat(c.alphabet[:1], minLength-len(encoded)) + encoded
}

// EncodeFixed encodes exactly width low-order digits of n.
// Higher digits that do not fit are dropped.
func (c *Codec) EncodeFixed(n uint64, width int) string {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = c.alphabet[n%c.base]
		n /= c.base
	}
	return string(buf)
}

// Decode converts s back to an integer.
func (c *Codec) Decode(s string) (uint64, error) {
	if len(s) == 0 {
		return 0, ErrEmptyString
	}

	var result uint64
	for i := 0; i < len(s); i++ {
		val := c.values[s[i]]
		if val == -1 {
			return 0, ErrInvalidCharacter
		}
		// #nosec G115 -- val is always in range [0, base) from the lookup table
		v := uint64(val)
		if result > (^uint64(0)-v)/c.base {
			return 0, ErrOverflow
		}
		result = result*c.base + v
	}

	return result, nil
}

// IsValid checks if s is non-empty and uses only alphabet characters.
func (c *Codec) IsValid(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if c.values[s[i]] == -1 {
			return false
		}
	}
	return true
}

func swapCase(b byte) byte {
	switch {
	case b >= 'a' && b <= 'z':
		return b - 'a' + 'A'
	case b >= 'A' && b <= 'Z':
		return b - 'A' + 'a'
	default:
		return b
	}
}
