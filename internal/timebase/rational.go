package timebase

import (
	"fmt"
	"math"
	"math/bits"
)

// Rational is an exact fraction in lowest terms with a positive denominator.
//
// The zero value is 0/1. Rationals are immutable values; every operation
// returns a new Rational.
type Rational struct {
	num int64
	den int64 // 0 in the zero value, read through denominator()
}

// NewRational reduces num/den by their gcd and moves the sign to the
// numerator. A zero denominator fails with ErrCodeInvalidRate.
func NewRational(num, den int64) (Rational, error) {
	if den == 0 {
		return Rational{}, newError(ErrCodeInvalidRate, "rational", "zero denominator in %d/0", num)
	}
	neg := num != 0 && (num < 0) != (den < 0)
	n, d := magnitude(num), magnitude(den)
	if g := gcd(n, d); g > 1 {
		n /= g
		d /= g
	}
	sn, ok := signed(n, neg)
	if !ok || d > math.MaxInt64 {
		return Rational{}, newError(ErrCodeOverflow, "rational", "%d/%d does not fit after sign normalisation", num, den)
	}
	return Rational{num: sn, den: int64(d)}, nil
}

// MustRational is like NewRational but panics on error.
// Intended for literals known to be valid.
func MustRational(num, den int64) Rational {
	r, err := NewRational(num, den)
	if err != nil {
		panic(err)
	}
	return r
}

// Integer returns n/1.
func Integer(n int64) Rational {
	return Rational{num: n, den: 1}
}

// Num returns the numerator.
func (r Rational) Num() int64 { return r.num }

// Den returns the denominator, always positive.
func (r Rational) Den() int64 { return r.denominator() }

func (r Rational) denominator() int64 {
	if r.den == 0 {
		return 1
	}
	return r.den
}

// IsZero reports whether r == 0.
func (r Rational) IsZero() bool { return r.num == 0 }

// Sign returns -1, 0 or +1.
func (r Rational) Sign() int {
	switch {
	case r.num < 0:
		return -1
	case r.num > 0:
		return 1
	}
	return 0
}

// Inverse returns den/num. Inverting zero fails with ErrCodeDivideByZero.
func (r Rational) Inverse() (Rational, error) {
	if r.num == 0 {
		return Rational{}, newError(ErrCodeDivideByZero, "inverse", "inverse of zero")
	}
	d := r.denominator()
	if r.num < 0 {
		if r.num == math.MinInt64 {
			return Rational{}, newError(ErrCodeOverflow, "inverse", "cannot negate %d", r.num)
		}
		return Rational{num: -d, den: -r.num}, nil
	}
	return Rational{num: d, den: r.num}, nil
}

// Mul returns r*o.
//
// Both operands are already reduced, so cancelling the cross terms first
// leaves a product that is itself in lowest terms. The remaining products
// are taken in 128 bits; a reduced result wider than int64 fails with
// ErrCodeOverflow.
func (r Rational) Mul(o Rational) (Rational, error) {
	a, b := r.num, r.denominator()
	c, d := o.num, o.denominator()
	if a == 0 || c == 0 {
		return Rational{num: 0, den: 1}, nil
	}
	g1 := gcd(magnitude(a), magnitude(d))
	g2 := gcd(magnitude(c), magnitude(b))
	nh, nl := bits.Mul64(magnitude(a)/g1, magnitude(c)/g2)
	dh, dl := bits.Mul64(magnitude(b)/g2, magnitude(d)/g1)
	if nh != 0 || dh != 0 || dl > math.MaxInt64 {
		return Rational{}, newError(ErrCodeOverflow, "multiply", "%s * %s exceeds int64", r, o)
	}
	n, ok := signed(nl, (a < 0) != (c < 0))
	if !ok {
		return Rational{}, newError(ErrCodeOverflow, "multiply", "%s * %s exceeds int64", r, o)
	}
	return Rational{num: n, den: int64(dl)}, nil
}

// Cmp compares r and o exactly by cross-multiplication:
// a/b < c/d  <=>  a*d < c*b, valid since both denominators are positive.
func (r Rational) Cmp(o Rational) int {
	return cmpProducts(r.num, o.denominator(), o.num, r.denominator())
}

// Equal reports whether r == o. Canonical form makes this a field comparison.
func (r Rational) Equal(o Rational) bool {
	return r.num == o.num && r.denominator() == o.denominator()
}

// Less reports whether r < o.
func (r Rational) Less(o Rational) bool {
	return r.Cmp(o) < 0
}

// Float64 returns the nearest float64. For display only.
func (r Rational) Float64() float64 {
	return float64(r.num) / float64(r.denominator())
}

// String returns "num/den", or "num" for integers.
func (r Rational) String() string {
	if r.denominator() == 1 {
		return fmt.Sprintf("%d", r.num)
	}
	return fmt.Sprintf("%d/%d", r.num, r.denominator())
}
