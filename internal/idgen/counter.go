package idgen

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

// CounterSpace is the number of distinct counter values (36^4), the range of
// four base-36 digits.
const CounterSpace = 1679616

// Counter is the CUID sequence counter. It is seeded once, advanced exactly
// once per CUID and wraps to zero at CounterSpace. Safe for concurrent use.
type Counter struct {
	value atomic.Uint32
}

// NewCounter creates a Counter starting at start (reduced modulo CounterSpace).
func NewCounter(start uint32) *Counter {
	c := &Counter{}
	c.value.Store(start % CounterSpace)
	return c
}

// NewRandomCounter creates a Counter seeded from src.
func NewRandomCounter(src RandomSource) (*Counter, error) {
	var seed [4]byte
	if err := readInto(src, seed[:]); err != nil {
		return nil, fmt.Errorf("failed to seed counter: %w", err)
	}
	return NewCounter(binary.BigEndian.Uint32(seed[:])), nil
}

// Next returns the current value and advances the counter in one atomic step.
func (c *Counter) Next() uint32 {
	for {
		cur := c.value.Load()
		next := cur + 1
		if next >= CounterSpace {
			next = 0
		}
		if c.value.CompareAndSwap(cur, next) {
			return cur
		}
	}
}

// Peek returns the value the next call to Next will return.
func (c *Counter) Peek() uint32 {
	return c.value.Load()
}
