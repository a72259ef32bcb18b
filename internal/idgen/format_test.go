package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormats(t *testing.T) {
	infos := Formats()
	require.Len(t, infos, 5)

	names := make([]Format, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
		assert.NotEmpty(t, info.DisplayName)
		assert.NotEmpty(t, info.Description)
	}
	assert.Equal(t, []Format{FormatUUIDv4, FormatUUIDv7, FormatULID, FormatNanoID, FormatCUID}, names)

	// callers get a copy
	infos[0].DisplayName = "changed"
	assert.Equal(t, "UUID v4", Formats()[0].DisplayName)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input     string
		expected  Format
		expectErr bool
	}{
		{input: "uuidv4", expected: FormatUUIDv4},
		{input: "UUIDv7", expected: FormatUUIDv7},
		{input: " ulid ", expected: FormatULID},
		{input: "nanoid", expected: FormatNanoID},
		{input: "cuid", expected: FormatCUID},
		{input: "cuid2", expectErr: true},
		{input: "snowflake", expectErr: true},
		{input: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLookupFormat(t *testing.T) {
	info, ok := LookupFormat(FormatULID)
	require.True(t, ok)
	assert.Equal(t, "ULID", info.DisplayName)

	_, ok = LookupFormat("ksuid")
	assert.False(t, ok)
}

func TestFormat_TimeBased(t *testing.T) {
	assert.False(t, FormatUUIDv4.TimeBased())
	assert.True(t, FormatUUIDv7.TimeBased())
	assert.True(t, FormatULID.TimeBased())
	assert.False(t, FormatNanoID.TimeBased())
	assert.True(t, FormatCUID.TimeBased())
	assert.Equal(t, "ulid", FormatULID.String())
}
