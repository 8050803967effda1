package timebase

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRational_NewReducesAndNormalisesSign(t *testing.T) {
	tests := []struct {
		name     string
		num, den int64
		wantNum  int64
		wantDen  int64
	}{
		{"already reduced", 5, 7, 5, 7},
		{"reduces by gcd", 3, 15, 1, 5},
		{"negative denominator", 6, -4, -3, 2},
		{"both negative", -6, -4, 3, 2},
		{"zero numerator", 0, -5, 0, 1},
		{"min int64 numerator", math.MinInt64, 2, math.MinInt64 / 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRational(tt.num, tt.den)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNum, r.Num())
			assert.Equal(t, tt.wantDen, r.Den())
		})
	}
}

func TestRational_ZeroDenominator(t *testing.T) {
	_, err := NewRational(1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRate))
	assert.True(t, IsInvalidRate(err))
}

func TestRational_NewOverflowOnSignFlip(t *testing.T) {
	_, err := NewRational(math.MinInt64, -1)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
}

func TestRational_ZeroValue(t *testing.T) {
	var r Rational
	assert.True(t, r.IsZero())
	assert.Equal(t, int64(1), r.Den())
	assert.True(t, r.Equal(Integer(0)))
	assert.Equal(t, "0", r.String())
}

func TestRational_Inverse(t *testing.T) {
	inv, err := MustRational(1, 2).Inverse()
	require.NoError(t, err)
	assert.True(t, inv.Equal(Integer(2)))

	inv, err = MustRational(-2, 3).Inverse()
	require.NoError(t, err)
	assert.Equal(t, int64(-3), inv.Num())
	assert.Equal(t, int64(2), inv.Den())
}

func TestRational_InverseOfZero(t *testing.T) {
	_, err := Integer(0).Inverse()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDivideByZero))
}

func TestRational_InverseOfMinInt64(t *testing.T) {
	_, err := Integer(math.MinInt64).Inverse()
	assert.True(t, IsOverflow(err))
}

func TestRational_Mul(t *testing.T) {
	tests := []struct {
		a, b, want Rational
	}{
		{MustRational(1, 2), MustRational(1, 2), MustRational(1, 4)},
		{MustRational(1, 2), MustRational(4, 3), MustRational(2, 3)},
		{MustRational(5, 7), MustRational(7, 5), Integer(1)},
		{MustRational(1, 2), Integer(4), Integer(2)},
		{MustRational(-1, 2), MustRational(2, 3), MustRational(-1, 3)},
		{Integer(0), MustRational(7, 5), Integer(0)},
	}
	for _, tt := range tests {
		got, err := tt.a.Mul(tt.b)
		require.NoError(t, err)
		assert.True(t, got.Equal(tt.want), "%s * %s = %s, want %s", tt.a, tt.b, got, tt.want)
	}
}

func TestRational_MulLargeCoprimeTerms(t *testing.T) {
	// 3 * 2^62 does not fit in int64; the result 1 does.
	a := MustRational(1<<62, 3)
	b := MustRational(3, 1<<62)
	got, err := a.Mul(b)
	require.NoError(t, err)
	assert.True(t, got.Equal(Integer(1)))

	got, err = MustRational(1<<62, 48000-1).Mul(MustRational(48000-1, 1<<61))
	require.NoError(t, err)
	assert.True(t, got.Equal(Integer(2)))
}

func TestRational_MulOverflow(t *testing.T) {
	_, err := Integer(1 << 40).Mul(Integer(1 << 40))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOverflow))

	_, err = MustRational(1<<62, 3).Mul(MustRational(5, 7))
	assert.True(t, IsOverflow(err))
}

func TestRational_Ordering(t *testing.T) {
	assert.True(t, MustRational(1, 5).Less(MustRational(1, 3)))
	assert.True(t, MustRational(1, 2).Less(MustRational(3, 2)))
	assert.True(t, MustRational(-1, 2).Less(MustRational(1, 3)))
	assert.False(t, MustRational(1, 3).Less(MustRational(1, 3)))
	assert.Equal(t, 0, MustRational(2, 4).Cmp(MustRational(1, 2)))

	// Cross products exceed 64 bits: n(n-2) < (n-1)^2.
	a := MustRational(math.MaxInt64, math.MaxInt64-1)
	b := MustRational(math.MaxInt64-1, math.MaxInt64-2)
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 1, a.Cmp(Integer(1)))
	assert.Equal(t, -1, Integer(math.MinInt64).Cmp(Integer(math.MaxInt64)))
}

func TestRational_String(t *testing.T) {
	assert.Equal(t, "375", Integer(375).String())
	assert.Equal(t, "375/16", MustRational(375, 16).String())
	assert.Equal(t, "-1/3", MustRational(1, -3).String())
}

func TestMulDiv(t *testing.T) {
	q, rem, ok := mulDiv(49_766_400_000, 192_000, 48_000)
	require.True(t, ok)
	assert.Equal(t, int64(199_065_600_000), q)
	assert.Equal(t, int64(0), rem)

	q, rem, ok = mulDiv(-7, 1, 2)
	require.True(t, ok)
	assert.Equal(t, int64(-3), q, "truncates toward zero")
	assert.Equal(t, int64(-1), rem)

	_, _, ok = mulDiv(math.MaxInt64, 4, 3)
	assert.False(t, ok)

	q, _, ok = mulDiv(math.MaxInt64, math.MaxInt64, math.MaxInt64)
	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), q)
}
