package idgen

const (
	// ULIDLength is the length of an encoded ULID.
	ULIDLength = ulidTimeLen + ulidRandomLen

	ulidTimeLen     = 10
	ulidRandomLen   = 16
	ulidRandomBytes = 10
	ulidBitsPerChar = 5
)

// EncodeULID renders a ULID: ten Crockford base32 digits of ms followed by
// sixteen five-bit groups read from random.
func EncodeULID(ms int64, random [10]byte) string {
	var out [ULIDLength]byte

	// #nosec G115 -- only the low 50 bits survive ten base32 digits
	copy(out[:ulidTimeLen], Crockford32.EncodeFixed(uint64(ms), ulidTimeLen))

	r := NewBitReader(random[:])
	for i := 0; i < ulidRandomLen; i++ {
		// 80 bits hold exactly sixteen groups, so Read cannot run short.
		v, _ := r.Read(ulidBitsPerChar)
		out[ulidTimeLen+i] = Crockford32.Digit(int(v))
	}

	return string(out[:])
}

// ULIDGenerator generates ULIDs. Ordering within one millisecond is random.
type ULIDGenerator struct {
	random RandomSource
	clock  Clock
}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator(random RandomSource, clock Clock) *ULIDGenerator {
	return &ULIDGenerator{random: random, clock: clock}
}

// Generate creates a new ULID stamped with the current time.
func (g *ULIDGenerator) Generate() (string, error) {
	ms := g.clock.NowMillis()
	var b [ulidRandomBytes]byte
	if err := readInto(g.random, b[:]); err != nil {
		return "", err
	}
	return EncodeULID(ms, b), nil
}
