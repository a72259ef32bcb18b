package idgen

import "time"

// Clock returns the current wall-clock time in milliseconds since the Unix epoch.
type Clock interface {
	NowMillis() int64
}

// SystemClock reads time.Now.
type SystemClock struct{}

// NowMillis returns the current Unix time in milliseconds.
func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

// NowMillis calls f.
func (f ClockFunc) NowMillis() int64 {
	return f()
}

// FixedClock returns a Clock that always reports ms.
func FixedClock(ms int64) Clock {
	return ClockFunc(func() int64 { return ms })
}
