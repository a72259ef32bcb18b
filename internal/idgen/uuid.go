package idgen

import "github.com/google/uuid"

const (
	// UUIDLength is the length of a hyphenated UUID string.
	UUIDLength = 36

	uuidv4RandomBytes = 16
	uuidv7RandomBytes = 10
)

// EncodeUUIDv4 tags b with version 4 and the RFC 4122 variant and renders it
// as 8-4-4-4-12 lowercase hex.
func EncodeUUIDv4(b [16]byte) string {
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return uuid.UUID(b).String()
}

// EncodeUUIDv7 packs the low 48 bits of ms big-endian, followed by the random
// bytes with version 7 in the first and the RFC 4122 variant in the third.
//
// The hex digits are timestamp then random, hyphenated 8-4-4-4-12 so the
// version nibble sits at index 14 and the variant at index 19.
func EncodeUUIDv7(ms int64, random [10]byte) string {
	var u uuid.UUID
	t := uint64(ms)
	u[0] = byte(t >> 40)
	u[1] = byte(t >> 32)
	u[2] = byte(t >> 24)
	u[3] = byte(t >> 16)
	u[4] = byte(t >> 8)
	u[5] = byte(t)

	random[0] = (random[0] & 0x0f) | 0x70
	random[2] = (random[2] & 0x3f) | 0x80
	copy(u[6:], random[:])

	return u.String()
}

// UUIDv4Generator generates random (version 4) UUIDs.
type UUIDv4Generator struct {
	random RandomSource
}

// NewUUIDv4Generator creates a new UUIDv4Generator.
func NewUUIDv4Generator(random RandomSource) *UUIDv4Generator {
	return &UUIDv4Generator{random: random}
}

// Generate creates a new version 4 UUID.
func (g *UUIDv4Generator) Generate() (string, error) {
	var b [uuidv4RandomBytes]byte
	if err := readInto(g.random, b[:]); err != nil {
		return "", err
	}
	return EncodeUUIDv4(b), nil
}

// UUIDv7Generator generates time-ordered (version 7) UUIDs.
type UUIDv7Generator struct {
	random RandomSource
	clock  Clock
}

// NewUUIDv7Generator creates a new UUIDv7Generator.
func NewUUIDv7Generator(random RandomSource, clock Clock) *UUIDv7Generator {
	return &UUIDv7Generator{random: random, clock: clock}
}

// Generate creates a new version 7 UUID stamped with the current time.
func (g *UUIDv7Generator) Generate() (string, error) {
	ms := g.clock.NowMillis()
	var b [uuidv7RandomBytes]byte
	if err := readInto(g.random, b[:]); err != nil {
		return "", err
	}
	return EncodeUUIDv7(ms, b), nil
}
