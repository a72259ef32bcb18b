package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeNanoID(t *testing.T) {
	t.Run("identity over first 64 bytes", func(t *testing.T) {
		assert.Equal(t, NanoIDAlphabet, EncodeNanoID(sequentialBytes(64)))
	})

	t.Run("high bits are masked", func(t *testing.T) {
		assert.Equal(t, "0_1_", EncodeNanoID([]byte{0x40, 0xff, 0xc1, 0x7f}))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", EncodeNanoID(nil))
	})
}

func TestNewNanoIDGenerator(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		alphabet  string
		expectErr error
	}{
		{name: "default", size: DefaultNanoIDSize},
		{name: "min size", size: 1},
		{name: "max size", size: MaxNanoIDSize},
		{name: "zero size", size: 0, expectErr: ErrInvalidNanoIDSize},
		{name: "too large", size: MaxNanoIDSize + 1, expectErr: ErrInvalidNanoIDSize},
		{name: "custom alphabet", size: 8, alphabet: "0123456789abcdef"},
		{name: "single character alphabet", size: 8, alphabet: "a", expectErr: ErrInvalidAlphabet},
		{name: "duplicate characters", size: 8, alphabet: "abca", expectErr: ErrInvalidAlphabet},
		{name: "non-ascii", size: 8, alphabet: "abé", expectErr: ErrInvalidAlphabet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewNanoIDGenerator(NewCryptoSource(), tt.size, tt.alphabet)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, gen)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, gen.Size())
		})
	}
}

func TestNanoIDGenerator_Generate(t *testing.T) {
	t.Run("length and alphabet", func(t *testing.T) {
		for _, size := range []int{1, 10, DefaultNanoIDSize, 64, MaxNanoIDSize} {
			gen, err := NewNanoIDGenerator(NewCryptoSource(), size, "")
			require.NoError(t, err)
			assert.Equal(t, NanoIDAlphabet, gen.Alphabet())

			id, err := gen.Generate()
			require.NoError(t, err)
			assert.Len(t, id, size)
			for _, c := range id {
				assert.True(t, strings.ContainsRune(NanoIDAlphabet, c), "unexpected character %q", c)
			}
		}
	})

	t.Run("deterministic with injected bytes", func(t *testing.T) {
		gen, err := NewNanoIDGenerator(fixedSource{pattern: sequentialBytes(64)}, 5, "")
		require.NoError(t, err)
		id, err := gen.Generate()
		require.NoError(t, err)
		assert.Equal(t, "01234", id)
	})

	t.Run("uniform character frequency", func(t *testing.T) {
		gen, err := NewNanoIDGenerator(NewCryptoSource(), DefaultNanoIDSize, "")
		require.NoError(t, err)

		const draws = 100000
		counts := make(map[rune]int, len(NanoIDAlphabet))
		for i := 0; i < draws; i++ {
			id, err := gen.Generate()
			require.NoError(t, err)
			for _, c := range id {
				counts[c]++
			}
		}

		require.Len(t, counts, len(NanoIDAlphabet))
		expected := float64(draws*DefaultNanoIDSize) / float64(len(NanoIDAlphabet))
		for c, n := range counts {
			assert.InEpsilon(t, expected, float64(n), 0.05, "character %q", c)
		}
	})

	t.Run("power of two custom alphabet uses injected source", func(t *testing.T) {
		gen, err := NewNanoIDGenerator(fixedSource{pattern: []byte{0x00, 0x0f, 0x1a, 0xff}}, 4, "0123456789abcdef")
		require.NoError(t, err)
		id, err := gen.Generate()
		require.NoError(t, err)
		assert.Equal(t, "0faf", id)
	})

	t.Run("other custom alphabet", func(t *testing.T) {
		gen, err := NewNanoIDGenerator(failingSource{}, 30, "abc")
		require.NoError(t, err)
		id, err := gen.Generate()
		require.NoError(t, err)
		assert.Len(t, id, 30)
		assert.Empty(t, strings.Trim(id, "abc"))
	})

	t.Run("random source failure", func(t *testing.T) {
		gen, err := NewNanoIDGenerator(failingSource{}, DefaultNanoIDSize, "")
		require.NoError(t, err)
		_, err = gen.Generate()
		assert.ErrorIs(t, err, errEntropy)
	})

	t.Run("short read", func(t *testing.T) {
		gen, err := NewNanoIDGenerator(shortSource{}, DefaultNanoIDSize, "")
		require.NoError(t, err)
		_, err = gen.Generate()
		assert.ErrorIs(t, err, ErrRandomSourceUnavailable)
	})
}
