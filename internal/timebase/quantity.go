package timebase

import "fmt"

// Tick marks musical-time quantities.
type Tick struct{}

// Frame marks transport-time quantities.
type Frame struct{}

// Unit constrains Quantity to the two clock domains.
type Unit interface {
	Tick | Frame
}

// Quantity is an amount of time in unit U: a signed count of units, each
// 1/rate seconds long.
//
// A Quantity is valid iff its rate is valid. The zero value is the invalid
// "null" quantity. Quantities at different rates compare exactly; they add
// after AlignBases rebases the slower one onto the faster rate.
type Quantity[U Unit] struct {
	value int64
	rate  Rate
}

// NewQuantity returns value units at rate.
func NewQuantity[U Unit](value int64, rate Rate) Quantity[U] {
	return Quantity[U]{value: value, rate: rate}
}

// Ticks returns a tick quantity.
func Ticks(value int64, rate Rate) Quantity[Tick] {
	return Quantity[Tick]{value: value, rate: rate}
}

// Frames returns a frame quantity.
func Frames(value int64, rate Rate) Quantity[Frame] {
	return Quantity[Frame]{value: value, rate: rate}
}

// Value returns the raw unit count.
func (q Quantity[U]) Value() int64 { return q.value }

// Rate returns the rate defining the unit size.
func (q Quantity[U]) Rate() Rate { return q.rate }

// Valid reports whether q has a usable rate.
func (q Quantity[U]) Valid() bool { return q.rate.Valid() }

// Offset returns q advanced by n units at its own rate.
func (q Quantity[U]) Offset(n int64) (Quantity[U], error) {
	if !q.Valid() {
		return Quantity[U]{}, newError(ErrCodeInvalidOperand, "offset", "invalid %s", unitName[U]())
	}
	v, ok := addInt64(q.value, n)
	if !ok {
		return Quantity[U]{}, newError(ErrCodeOverflow, "offset", "%d + %d", q.value, n)
	}
	return Quantity[U]{value: v, rate: q.rate}, nil
}

// Add returns q+o at the faster of the two rates.
// Adding an invalid quantity is always an error.
func (q Quantity[U]) Add(o Quantity[U]) (Quantity[U], error) {
	a, b, err := AlignBases(q, o)
	if err != nil {
		return Quantity[U]{}, err
	}
	v, ok := addInt64(a.value, b.value)
	if !ok {
		return Quantity[U]{}, newError(ErrCodeOverflow, "add", "%d + %d", a.value, b.value)
	}
	return Quantity[U]{value: v, rate: a.rate}, nil
}

// Sub returns q-o at the faster of the two rates.
func (q Quantity[U]) Sub(o Quantity[U]) (Quantity[U], error) {
	a, b, err := AlignBases(q, o)
	if err != nil {
		return Quantity[U]{}, err
	}
	v, ok := subInt64(a.value, b.value)
	if !ok {
		return Quantity[U]{}, newError(ErrCodeOverflow, "subtract", "%d - %d", a.value, b.value)
	}
	return Quantity[U]{value: v, rate: a.rate}, nil
}

// Cmp compares the durations of q and o exactly: with n/d = o.rate/q.rate,
// q < o  <=>  q.value*n < o.value*d, taken in 128 bits. It fails with
// ErrCodeInvalidOperand when either side is invalid.
func (q Quantity[U]) Cmp(o Quantity[U]) (int, error) {
	if !q.Valid() || !o.Valid() {
		return 0, newError(ErrCodeInvalidOperand, "compare", "invalid %s", unitName[U]())
	}
	if q.rate.Equal(o.rate) {
		return cmpProducts(q.value, 1, o.value, 1), nil
	}
	inv, err := q.rate.ratio.Inverse()
	if err != nil {
		return 0, err
	}
	ratio, err := o.rate.ratio.Mul(inv)
	if err != nil {
		return 0, err
	}
	c := cmpProducts(q.value, ratio.num, o.value, ratio.denominator())
	if o.rate.ratio.Sign() < 0 {
		c = -c
	}
	return c, nil
}

// Equal reports whether q and o denote the same amount of time.
// Two invalid quantities are equal to each other and to nothing else.
func (q Quantity[U]) Equal(o Quantity[U]) bool {
	if !q.Valid() || !o.Valid() {
		return !q.Valid() && !o.Valid()
	}
	c, err := q.Cmp(o)
	return err == nil && c == 0
}

// Less reports whether q is strictly shorter than o.
// Invalid quantities are unordered: Less returns false.
func (q Quantity[U]) Less(o Quantity[U]) bool {
	c, err := q.Cmp(o)
	return err == nil && c < 0
}

// String returns e.g. "50 frames@48000/s".
func (q Quantity[U]) String() string {
	if !q.Valid() {
		return fmt.Sprintf("invalid %s", unitName[U]())
	}
	return fmt.Sprintf("%d %s@%s", q.value, unitName[U](), q.rate)
}

func unitName[U Unit]() string {
	var u U
	switch any(u).(type) {
	case Tick:
		return "ticks"
	default:
		return "frames"
	}
}
