package timebase

import (
	"math"
	"math/bits"
)

// magnitude returns |v| as a uint64. math.MinInt64 maps to 1<<63.
func magnitude(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

// signed applies a sign to a magnitude, reporting false when the result
// does not fit in int64.
func signed(mag uint64, neg bool) (int64, bool) {
	if !neg || mag == 0 {
		if mag > math.MaxInt64 {
			return 0, false
		}
		return int64(mag), true
	}
	if mag > 1<<63 {
		return 0, false
	}
	return -int64(mag-1) - 1, true
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// mulDiv computes v*num/den with a 128-bit intermediate product, truncating
// toward zero. den must be positive. The remainder carries the sign of the
// dividend, so v*num == q*den + rem holds exactly.
func mulDiv(v, num, den int64) (q, rem int64, ok bool) {
	neg := (v < 0) != (num < 0)
	hi, lo := bits.Mul64(magnitude(v), magnitude(num))
	d := magnitude(den)
	if hi >= d {
		// quotient needs more than 64 bits
		return 0, 0, false
	}
	qm, rm := bits.Div64(hi, lo, d)
	q, ok = signed(qm, neg)
	if !ok {
		return 0, 0, false
	}
	rem, _ = signed(rm, neg)
	return q, rem, true
}

// cmpProducts compares a*b with c*d exactly.
func cmpProducts(a, b, c, d int64) int {
	leftNeg := a != 0 && b != 0 && (a < 0) != (b < 0)
	rightNeg := c != 0 && d != 0 && (c < 0) != (d < 0)
	switch {
	case leftNeg && !rightNeg:
		return -1
	case !leftNeg && rightNeg:
		return 1
	}
	lh, ll := bits.Mul64(magnitude(a), magnitude(b))
	rh, rl := bits.Mul64(magnitude(c), magnitude(d))
	m := cmpUint128(lh, ll, rh, rl)
	if leftNeg {
		return -m
	}
	return m
}

func cmpUint128(ah, al, bh, bl uint64) int {
	switch {
	case ah < bh:
		return -1
	case ah > bh:
		return 1
	case al < bl:
		return -1
	case al > bl:
		return 1
	}
	return 0
}

func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (a >= 0) == (b >= 0) && (s >= 0) != (a >= 0) {
		return 0, false
	}
	return s, true
}

func subInt64(a, b int64) (int64, bool) {
	s := a - b
	if (a >= 0) != (b >= 0) && (s >= 0) != (a >= 0) {
		return 0, false
	}
	return s, true
}
