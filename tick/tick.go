// Package tick implements the core's monotonic clock.
//
// One tick is 1/40_500_000 of a second — the bus-clock-derived unit the
// original hardware used for its OS_TIMER, preserved here so that ported
// game code can keep its existing tick-based timing math unchanged.
package tick

import "time"

// Rate is the number of ticks per second.
const Rate int64 = 40_500_000

// epoch is the process-start reading of time.Now; it carries both a wall
// clock and a monotonic clock reading.
var (
	epoch      = time.Now()
	epochNanos = epoch.UnixNano()
)

// Now returns the current tick count: the Unix time of epoch plus the
// monotonic time elapsed since it, so successive calls from any goroutine
// never decrease even if the wall clock is stepped backwards.
func Now() int64 {
	return nanosToTicks(epochNanos + int64(time.Since(epoch)))
}

// ToNanoseconds converts a tick count to nanoseconds.
func ToNanoseconds(t int64) int64 {
	return scale(t, 1_000_000_000, Rate)
}

// FromNanoseconds converts a nanosecond count to ticks, truncating any
// fractional tick.
func FromNanoseconds(ns int64) int64 {
	return scale(ns, Rate, 1_000_000_000)
}

// ToMicroseconds converts a tick count to microseconds.
func ToMicroseconds(t int64) int64 { return scale(t, 1_000_000, Rate) }

// FromMicroseconds converts a microsecond count to ticks, truncating any
// fractional tick.
func FromMicroseconds(us int64) int64 { return scale(us, Rate, 1_000_000) }

// ToMilliseconds converts a tick count to milliseconds.
func ToMilliseconds(t int64) int64 { return scale(t, 1_000, Rate) }

// FromMilliseconds converts a millisecond count to ticks, truncating any
// fractional tick.
func FromMilliseconds(ms int64) int64 { return scale(ms, Rate, 1_000) }

// ToSeconds converts a tick count to whole seconds (truncating).
func ToSeconds(t int64) int64 { return t / Rate }

// FromSeconds converts a second count to ticks.
func FromSeconds(s int64) int64 { return s * Rate }

// Duration converts a tick count to a time.Duration.
func Duration(t int64) time.Duration {
	return time.Duration(ToNanoseconds(t))
}

// FromDuration converts a time.Duration to ticks, truncating any fractional
// tick.
func FromDuration(d time.Duration) int64 {
	return FromNanoseconds(int64(d))
}

func nanosToTicks(ns int64) int64 {
	return scale(ns, Rate, 1_000_000_000)
}

// scale computes v*num/den using integer math wide enough to avoid overflow
// for any tick count a session will plausibly reach.
func scale(v, num, den int64) int64 {
	hi, lo := mulu128(v, num)
	q, _ := divu128(hi, lo, den)
	return int64(q)
}
