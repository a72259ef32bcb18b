package idgen

import (
	"fmt"
	"strings"
)

// Format names an identifier format.
type Format string

// Supported formats.
const (
	FormatUUIDv4 Format = "uuidv4"
	FormatUUIDv7 Format = "uuidv7"
	FormatULID   Format = "ulid"
	FormatNanoID Format = "nanoid"
	FormatCUID   Format = "cuid"
)

// FormatInfo describes a format for display.
type FormatInfo struct {
	Name        Format
	DisplayName string
	Description string
}

// formats is the registry in display order.
var formats = []FormatInfo{
	{
		Name:        FormatUUIDv4,
		DisplayName: "UUID v4",
		Description: "Random UUID (RFC 4122)",
	},
	{
		Name:        FormatUUIDv7,
		DisplayName: "UUID v7",
		Description: "Timestamp-based UUID (RFC 9562)",
	},
	{
		Name:        FormatULID,
		DisplayName: "ULID",
		Description: "Universally Unique Lexicographically Sortable Identifier",
	},
	{
		Name:        FormatNanoID,
		DisplayName: "NanoID",
		Description: "Compact, URL-safe unique ID (21 chars)",
	},
	{
		Name:        FormatCUID,
		DisplayName: "CUID",
		Description: "Collision-resistant unique ID",
	},
}

// Formats returns metadata for every supported format in display order.
func Formats() []FormatInfo {
	out := make([]FormatInfo, len(formats))
	copy(out, formats)
	return out
}

// LookupFormat returns the metadata for f.
func LookupFormat(f Format) (FormatInfo, bool) {
	for _, info := range formats {
		if info.Name == f {
			return info, true
		}
	}
	return FormatInfo{}, false
}

// ParseFormat converts a case-insensitive name into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	_, ok := LookupFormat(f)
	return ok
}

// String returns the machine name.
func (f Format) String() string {
	return string(f)
}

// TimeBased reports whether the format embeds the wall-clock time.
func (f Format) TimeBased() bool {
	switch f {
	case FormatUUIDv7, FormatULID, FormatCUID:
		return true
	default:
		return false
	}
}
