package idgen

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ParseResult holds the fields recovered from an identifier.
type ParseResult struct {
	Format       Format
	Length       int
	HasTimestamp bool
	TimestampMs  int64  // uuidv7, ulid, cuid
	UUIDVersion  int    // uuidv4, uuidv7
	UUIDVariant  string // uuidv4, uuidv7
	HasCounter   bool
	Counter      uint32 // cuid
	Alphabet     string // nanoid
}

// Inspect validates id as the given format and decodes its fields.
func Inspect(format Format, id string) (*ParseResult, error) {
	return inspect(format, id, NanoIDAlphabet)
}

func inspect(format Format, id, nanoidAlphabet string) (*ParseResult, error) {
	switch format {
	case FormatUUIDv4:
		return inspectUUID(id, 4)
	case FormatUUIDv7:
		return inspectUUID(id, 7)
	case FormatULID:
		return inspectULID(id)
	case FormatNanoID:
		return inspectNanoID(id, nanoidAlphabet)
	case FormatCUID:
		return inspectCUID(id)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func inspectUUID(id string, version int) (*ParseResult, error) {
	if len(id) != UUIDLength || id != strings.ToLower(id) {
		return nil, fmt.Errorf("%w: expected 36 lowercase characters", ErrInvalidID)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	if int(parsed.Version()) != version {
		return nil, fmt.Errorf("%w: expected UUID v%d, got v%d", ErrInvalidID, version, parsed.Version())
	}
	if parsed.Variant() != uuid.RFC4122 {
		return nil, fmt.Errorf("%w: unexpected variant %s", ErrInvalidID, parsed.Variant())
	}

	result := &ParseResult{
		Format:      Format(fmt.Sprintf("uuidv%d", version)),
		Length:      len(id),
		UUIDVersion: version,
		UUIDVariant: parsed.Variant().String(),
	}
	if version == 7 {
		var ts [8]byte
		copy(ts[2:], parsed[:6])
		// #nosec G115 -- 48-bit value always fits in int64
		result.TimestampMs = int64(binary.BigEndian.Uint64(ts[:]))
		result.HasTimestamp = true
	}
	return result, nil
}

func inspectULID(id string) (*ParseResult, error) {
	if len(id) != ULIDLength {
		return nil, fmt.Errorf("%w: expected length %d, got %d", ErrInvalidID, ULIDLength, len(id))
	}
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	return &ParseResult{
		Format:       FormatULID,
		Length:       len(id),
		HasTimestamp: true,
		// #nosec G115 -- ULID timestamps are 48-bit
		TimestampMs: int64(parsed.Time()),
	}, nil
}

func inspectNanoID(id, alphabet string) (*ParseResult, error) {
	if len(id) < 1 || len(id) > MaxNanoIDSize {
		return nil, fmt.Errorf("%w: length %d out of range", ErrInvalidID, len(id))
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return nil, fmt.Errorf("%w: character %q not in alphabet", ErrInvalidID, id[i])
		}
	}
	return &ParseResult{
		Format:   FormatNanoID,
		Length:   len(id),
		Alphabet: alphabet,
	}, nil
}

func inspectCUID(id string) (*ParseResult, error) {
	if len(id) < cuidMinLength || id[0] != cuidPrefix {
		return nil, fmt.Errorf("%w: expected 'c' prefix and at least %d characters", ErrInvalidID, cuidMinLength)
	}
	for i := 1; i < len(id); i++ {
		if strings.IndexByte(base36Alphabet, id[i]) < 0 {
			return nil, fmt.Errorf("%w: character %q is not lowercase base36", ErrInvalidID, id[i])
		}
	}

	counterStart := len(id) - cuidRandomBytes - cuidCounterWidth
	ts, err := Base36.Decode(id[1:counterStart])
	if err != nil || ts > 1<<63-1 {
		return nil, fmt.Errorf("%w: bad timestamp segment", ErrInvalidID)
	}
	counter, err := Base36.Decode(id[counterStart : counterStart+cuidCounterWidth])
	if err != nil {
		return nil, fmt.Errorf("%w: bad counter segment", ErrInvalidID)
	}

	return &ParseResult{
		Format:       FormatCUID,
		Length:       len(id),
		HasTimestamp: true,
		// #nosec G115 -- bounded above
		TimestampMs: int64(ts),
		HasCounter:  true,
		// #nosec G115 -- four base36 digits are below CounterSpace
		Counter: uint32(counter),
	}, nil
}
