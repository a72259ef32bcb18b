package idgen

import "strings"

const (
	cuidPrefix       = 'c'
	cuidCounterWidth = 4
	cuidRandomBytes  = 8

	// cuidMinLength covers the prefix, one timestamp digit, counter and random.
	cuidMinLength = 1 + 1 + cuidCounterWidth + cuidRandomBytes
)

// EncodeCUID renders "c", the base-36 timestamp, the counter padded to four
// base-36 digits, and one base-36 digit per random byte.
//
// Each random byte is reduced modulo 36; because 256 is not a multiple of 36
// the digits 0-3 are very slightly more likely than the rest.
func EncodeCUID(ms int64, counter uint32, random [8]byte) string {
	var sb strings.Builder
	sb.Grow(cuidMinLength + 8)

	sb.WriteByte(cuidPrefix)
	// #nosec G115 -- wall-clock milliseconds are positive
	sb.WriteString(Base36.Encode(uint64(ms)))
	sb.WriteString(Base36.EncodeWithPadding(uint64(counter%CounterSpace), cuidCounterWidth))
	for _, b := range random {
		sb.WriteByte(Base36.Digit(int(b % 36)))
	}

	return sb.String()
}

// CUIDGenerator generates CUIDs using a shared Counter.
type CUIDGenerator struct {
	random  RandomSource
	clock   Clock
	counter *Counter
}

// NewCUIDGenerator creates a new CUIDGenerator.
func NewCUIDGenerator(random RandomSource, clock Clock, counter *Counter) *CUIDGenerator {
	return &CUIDGenerator{
		random:  random,
		clock:   clock,
		counter: counter,
	}
}

// Generate creates a new CUID. The counter advances only when the random
// bytes were obtained.
func (g *CUIDGenerator) Generate() (string, error) {
	ms := g.clock.NowMillis()
	var b [cuidRandomBytes]byte
	if err := readInto(g.random, b[:]); err != nil {
		return "", err
	}
	return EncodeCUID(ms, g.counter.Next(), b), nil
}
