package tick

import "math/bits"

// mulu128 and divu128 implement 64x64->128 multiply and 128/64->64 divide
// over non-negative operands, so that scale can convert between tick units
// without overflowing int64 for any duration a long-running process will
// reach (the intermediate product of a Unix nanosecond timestamp and
// Rate overflows int64 well before the year 2038 cutoff would otherwise
// force on this code).
func mulu128(a, b int64) (hi, lo uint64) {
	return bits.Mul64(uint64(a), uint64(b))
}

func divu128(hi, lo uint64, d int64) (q, r uint64) {
	q, r = bits.Div64(hi, lo, uint64(d))
	return
}
