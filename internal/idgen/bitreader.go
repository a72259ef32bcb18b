package idgen

// BitReader reads fixed-width unsigned values from a byte slice.
//
// Bits are consumed least-significant first within each byte, so the stream
// bit k is bit k%8 of byte k/8. A value read across a byte boundary takes its
// low bits from the earlier byte and its high bits from the next one.
type BitReader struct {
	buf []byte
	pos uint
}

// NewBitReader creates a BitReader positioned at the first bit of buf.
func NewBitReader(buf []byte) *BitReader {
	return &BitReader{buf: buf}
}

// Read returns the next n bits (1-32) as an unsigned integer.
func (r *BitReader) Read(n uint) (uint32, error) {
	if n == 0 || n > 32 {
		return 0, ErrBitReaderExhausted
	}
	if r.Remaining() < n {
		return 0, ErrBitReaderExhausted
	}

	var value uint32
	var got uint
	for got < n {
		byteIndex := r.pos / 8
		bitOffset := r.pos % 8
		take := 8 - bitOffset
		if take > n-got {
			take = n - got
		}
		bits := (uint32(r.buf[byteIndex]) >> bitOffset) & (1<<take - 1)
		value |= bits << got
		got += take
		r.pos += take
	}
	return value, nil
}

// Remaining returns the number of unread bits.
func (r *BitReader) Remaining() uint {
	return uint(len(r.buf))*8 - r.pos
}

// Offset returns the current bit cursor.
func (r *BitReader) Offset() uint {
	return r.pos
}
