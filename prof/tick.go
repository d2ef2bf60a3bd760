package prof

import "time"

// Tick is a raw reading of the tick source.
type Tick uint64

// TickSource returns the current tick count. It must be monotonically
// non-decreasing within a session and must not block.
type TickSource func() Tick

// TickWidth is the number of significant bits in a tick reading.
type TickWidth uint8

const (
	// Width32 treats ticks as 32-bit counters; elapsed values wrap modulo 2^32.
	Width32 TickWidth = 32

	// Width64 treats ticks as 64-bit counters.
	Width64 TickWidth = 64
)

// Valid reports whether w is one of the supported widths.
func (w TickWidth) Valid() bool {
	return w == Width32 || w == Width64
}

// Max returns the largest tick representable in this width.
func (w TickWidth) Max() Tick {
	if w == Width32 {
		return Tick(^uint32(0))
	}
	return ^Tick(0)
}

// Elapsed returns now-start using unsigned modular arithmetic in this width.
func (w TickWidth) Elapsed(now, start Tick) Tick {
	return (now - start) & w.Max()
}

// MonotonicTicks returns a TickSource counting nanoseconds since the call,
// read from the runtime's monotonic clock.
func MonotonicTicks() TickSource {
	base := time.Now()
	return func() Tick {
		return Tick(time.Since(base))
	}
}
