package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitReader_Read(t *testing.T) {
	t.Run("least significant bits first", func(t *testing.T) {
		// 0xb5 = 1011_0101, 0x3c = 0011_1100
		r := NewBitReader([]byte{0xb5, 0x3c})

		v, err := r.Read(3)
		require.NoError(t, err)
		assert.Equal(t, uint32(5), v)

		// crosses the byte boundary: five bits of 0xb5, two of 0x3c
		v, err = r.Read(7)
		require.NoError(t, err)
		assert.Equal(t, uint32(22), v)

		v, err = r.Read(6)
		require.NoError(t, err)
		assert.Equal(t, uint32(15), v)

		assert.Equal(t, uint(0), r.Remaining())
	})

	t.Run("five bit groups match index arithmetic", func(t *testing.T) {
		random := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab}
		r := NewBitReader(random)

		for i := 0; i < 16; i++ {
			byteIndex := i * 5 / 8
			bitOffset := (i * 5) % 8
			want := (uint32(random[byteIndex]) >> bitOffset) & 0x1f
			if bitOffset > 3 {
				want |= (uint32(random[byteIndex+1]) << (8 - bitOffset)) & 0x1f
			}

			assert.Equal(t, uint(i*5), r.Offset())
			got, err := r.Read(5)
			require.NoError(t, err)
			assert.Equal(t, want, got, "group %d", i)
		}
	})

	t.Run("known five bit values", func(t *testing.T) {
		r := NewBitReader([]byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab})
		want := []uint32{30, 14, 11, 29, 27, 23, 7, 0, 3, 9, 17, 14, 22, 4, 14, 21}
		for i, w := range want {
			got, err := r.Read(5)
			require.NoError(t, err)
			assert.Equal(t, w, got, "group %d", i)
		}
	})

	t.Run("full 32 bit read", func(t *testing.T) {
		r := NewBitReader([]byte{0x78, 0x56, 0x34, 0x12})
		v, err := r.Read(32)
		require.NoError(t, err)
		assert.Equal(t, uint32(0x12345678), v)
	})

	t.Run("exhausted", func(t *testing.T) {
		r := NewBitReader([]byte{0xff})
		_, err := r.Read(6)
		require.NoError(t, err)

		_, err = r.Read(3)
		assert.ErrorIs(t, err, ErrBitReaderExhausted)
		assert.Equal(t, uint(2), r.Remaining(), "failed read must not advance")
	})

	t.Run("invalid widths", func(t *testing.T) {
		r := NewBitReader(make([]byte, 8))
		_, err := r.Read(0)
		assert.ErrorIs(t, err, ErrBitReaderExhausted)
		_, err = r.Read(33)
		assert.ErrorIs(t, err, ErrBitReaderExhausted)
	})
}
