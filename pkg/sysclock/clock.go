// Package sysclock provides the real-time contracts.Clock implementation:
// milliseconds elapsed since the clock was created, wrapping time.Since
// the way the rest of the module wraps small stdlib primitives behind a
// narrow interface rather than reaching for a dedicated clock library (no
// example repo in the pack imports one).
package sysclock

import "time"

// Clock is a monotonic millisecond clock anchored at construction time.
type Clock struct {
	epoch time.Time
}

// New returns a Clock anchored to the current instant.
func New() *Clock {
	return &Clock{epoch: time.Now()}
}

// NowMS returns milliseconds elapsed since the clock was constructed,
// truncated to fit a uint32 the way a 32-bit tick counter would wrap.
func (c *Clock) NowMS() uint32 {
	return uint32(time.Since(c.epoch).Milliseconds())
}
