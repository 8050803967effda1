package timebase

// Rebase re-expresses q as a quantity of unit To at rate to.
//
// The cross ratio from q's unit to seconds to the target unit is folded into
// a single factor, to / q.rate, and applied with a 128-bit intermediate.
// The result truncates toward zero.
func Rebase[To, From Unit](q Quantity[From], to Rate) (Quantity[To], error) {
	out, _, err := RebaseResidual[To](q, to)
	return out, err
}

// RebaseResidual is Rebase that also returns the truncated part of the
// result, as a fraction of one target unit in (-1, 1) with the sign of q.
func RebaseResidual[To, From Unit](q Quantity[From], to Rate) (Quantity[To], Rational, error) {
	if !q.Valid() {
		return Quantity[To]{}, Rational{}, newError(ErrCodeInvalidOperand, "rebase", "invalid source %s", unitName[From]())
	}
	if !to.Valid() {
		return Quantity[To]{}, Rational{}, newError(ErrCodeInvalidOperand, "rebase", "invalid target rate")
	}
	inv, err := q.rate.ratio.Inverse()
	if err != nil {
		return Quantity[To]{}, Rational{}, err
	}
	factor, err := inv.Mul(to.ratio)
	if err != nil {
		return Quantity[To]{}, Rational{}, err
	}
	v, rem, ok := mulDiv(q.value, factor.num, factor.denominator())
	if !ok {
		return Quantity[To]{}, Rational{}, newError(ErrCodeOverflow, "rebase", "%s at %s", q, to)
	}
	residual, err := NewRational(rem, factor.denominator())
	if err != nil {
		return Quantity[To]{}, Rational{}, err
	}
	return Quantity[To]{value: v, rate: to}, residual, nil
}

// Remap is Rebase within a single unit.
func Remap[U Unit](q Quantity[U], to Rate) (Quantity[U], error) {
	return Rebase[U](q, to)
}

// DeriveRate solves the inverse problem of Rebase: given that target.Value()
// units of To elapsed over delta, it returns the rate of To that makes the
// correlation exact. The rate of target is not consulted beyond validity.
//
// Both operands must be valid and non-zero, with the same sign.
func DeriveRate[To, From Unit](delta Quantity[From], target Quantity[To]) (Rate, error) {
	if !delta.Valid() || delta.value == 0 {
		return Rate{}, newError(ErrCodeInvalidOperand, "derive rate", "elapsed %s must be valid and non-zero", unitName[From]())
	}
	if !target.Valid() || target.value == 0 {
		return Rate{}, newError(ErrCodeInvalidOperand, "derive rate", "elapsed %s must be valid and non-zero", unitName[To]())
	}
	if (delta.value < 0) != (target.value < 0) {
		return Rate{}, newError(ErrCodeInvalidOperand, "derive rate", "%d %s over %d %s implies a negative rate",
			target.value, unitName[To](), delta.value, unitName[From]())
	}
	perUnit, err := NewRational(target.value, delta.value)
	if err != nil {
		return Rate{}, err
	}
	ratio, err := perUnit.Mul(delta.rate.ratio)
	if err != nil {
		return Rate{}, err
	}
	return Rate{ratio: ratio}, nil
}

// UnitRate is DeriveRate for a single unit of To elapsing over delta.
func UnitRate[To, From Unit](delta Quantity[From]) (Rate, error) {
	return DeriveRate(delta, Quantity[To]{value: 1, rate: delta.rate})
}

// AlignBases returns a and b expressed at the faster of their two rates.
// Rebasing from the slower rate up is the direction that preserves precision.
func AlignBases[U Unit](a, b Quantity[U]) (Quantity[U], Quantity[U], error) {
	if !a.Valid() || !b.Valid() {
		return Quantity[U]{}, Quantity[U]{}, newError(ErrCodeInvalidOperand, "align", "invalid %s", unitName[U]())
	}
	switch a.rate.Cmp(b.rate) {
	case 0:
		return a, b, nil
	case -1:
		up, err := Remap(a, b.rate)
		if err != nil {
			return Quantity[U]{}, Quantity[U]{}, err
		}
		return up, b, nil
	default:
		up, err := Remap(b, a.rate)
		if err != nil {
			return Quantity[U]{}, Quantity[U]{}, err
		}
		return a, up, nil
	}
}
