package anchor

import (
	"fmt"

	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// Anchor is the correlation point "relative occurred at absolute".
//
// R is the unit queries are expressed in and A the unit answers come back
// in. The zero value is invalid.
type Anchor[R, A timebase.Unit] struct {
	relative timebase.Quantity[R]
	absolute timebase.Quantity[A]
}

// Sync is the anchor a scheduler holds: ticks mapped onto frames.
type Sync = Anchor[timebase.Tick, timebase.Frame]

// New returns the anchor relative@absolute. Both members must be valid.
func New[R, A timebase.Unit](relative timebase.Quantity[R], absolute timebase.Quantity[A]) (Anchor[R, A], error) {
	if !relative.Valid() || !absolute.Valid() {
		return Anchor[R, A]{}, fmt.Errorf("new anchor %s @ %s: %w", relative, absolute, timebase.ErrInvalidOperand)
	}
	return Anchor[R, A]{relative: relative, absolute: absolute}, nil
}

// Valid reports whether both members are valid.
func (a Anchor[R, A]) Valid() bool {
	return a.relative.Valid() && a.absolute.Valid()
}

// Relative returns the relative member.
func (a Anchor[R, A]) Relative() timebase.Quantity[R] { return a.relative }

// Absolute returns the absolute member.
func (a Anchor[R, A]) Absolute() timebase.Quantity[A] { return a.absolute }

// Flip returns the same correlation point with the domains swapped.
// ToAbsolute on the flipped anchor is ToRelative on the original.
func (a Anchor[R, A]) Flip() Anchor[A, R] {
	return Anchor[A, R]{relative: a.absolute, absolute: a.relative}
}

// ToAbsolute maps q onto the absolute domain:
// absolute + Rebase(q - relative, absolute.Rate()).
func (a Anchor[R, A]) ToAbsolute(q timebase.Quantity[R]) (timebase.Quantity[A], error) {
	if !a.Valid() {
		return timebase.Quantity[A]{}, fmt.Errorf("map %s: anchor: %w", q, timebase.ErrInvalidOperand)
	}
	offset, err := q.Sub(a.relative)
	if err != nil {
		return timebase.Quantity[A]{}, fmt.Errorf("map %s: %w", q, err)
	}
	rebased, err := timebase.Rebase[A](offset, a.absolute.Rate())
	if err != nil {
		return timebase.Quantity[A]{}, fmt.Errorf("map %s: %w", q, err)
	}
	out, err := a.absolute.Add(rebased)
	if err != nil {
		return timebase.Quantity[A]{}, fmt.Errorf("map %s: %w", q, err)
	}
	return out, nil
}

// ToRelative maps q back onto the relative domain.
func (a Anchor[R, A]) ToRelative(q timebase.Quantity[A]) (timebase.Quantity[R], error) {
	return a.Flip().ToAbsolute(q)
}

// AbsoluteAt maps the relative position v, counted at the anchor's own
// relative rate.
func (a Anchor[R, A]) AbsoluteAt(v int64) (timebase.Quantity[A], error) {
	return a.ToAbsolute(timebase.NewQuantity[R](v, a.relative.Rate()))
}

// RelativeAt maps the absolute position v, counted at the anchor's own
// absolute rate.
func (a Anchor[R, A]) RelativeAt(v int64) (timebase.Quantity[R], error) {
	return a.ToRelative(timebase.NewQuantity[A](v, a.absolute.Rate()))
}

// Reanchor moves the origin to q without changing the rate, so every
// mapping of the returned anchor agrees with a (up to truncation at q).
func (a Anchor[R, A]) Reanchor(q timebase.Quantity[R]) (Anchor[R, A], error) {
	at, err := timebase.Remap(q, a.relative.Rate())
	if err != nil {
		return Anchor[R, A]{}, fmt.Errorf("reanchor: %w", err)
	}
	abs, err := a.ToAbsolute(at)
	if err != nil {
		return Anchor[R, A]{}, fmt.Errorf("reanchor: %w", err)
	}
	return Anchor[R, A]{relative: at, absolute: abs}, nil
}

// Resync is the hard-sync protocol. Given that relative position
// newRelative was observed at observed, it derives the relative rate that
// makes the elapsed spans since a agree exactly and returns the anchor
// newRelative@observed at that rate.
//
// newRelative is counted at the anchor's relative rate. Positions mapped
// before the returned anchor is published keep their old answers.
func (a Anchor[R, A]) Resync(newRelative timebase.Quantity[R], observed timebase.Quantity[A]) (Anchor[R, A], error) {
	if !a.Valid() {
		return Anchor[R, A]{}, fmt.Errorf("resync: anchor: %w", timebase.ErrInvalidOperand)
	}
	at, err := timebase.Remap(newRelative, a.relative.Rate())
	if err != nil {
		return Anchor[R, A]{}, fmt.Errorf("resync: %w", err)
	}
	deltaRel, err := at.Sub(a.relative)
	if err != nil {
		return Anchor[R, A]{}, fmt.Errorf("resync: %w", err)
	}
	deltaAbs, err := observed.Sub(a.absolute)
	if err != nil {
		return Anchor[R, A]{}, fmt.Errorf("resync: %w", err)
	}
	rate, err := timebase.DeriveRate(deltaAbs, deltaRel)
	if err != nil {
		return Anchor[R, A]{}, fmt.Errorf("resync %s @ %s: %w", at, observed, err)
	}
	return Anchor[R, A]{
		relative: timebase.NewQuantity[R](at.Value(), rate),
		absolute: observed,
	}, nil
}

// Identical reports whether a and b hold the same values at the same rates.
// Equal positions at different rates are not identical.
func (a Anchor[R, A]) Identical(b Anchor[R, A]) bool {
	return a.relative.Value() == b.relative.Value() &&
		a.relative.Rate().Equal(b.relative.Rate()) &&
		a.absolute.Value() == b.absolute.Value() &&
		a.absolute.Rate().Equal(b.absolute.Rate())
}

// String returns e.g. "1 ticks@375/s @ 128 frames@48000/s".
func (a Anchor[R, A]) String() string {
	return fmt.Sprintf("%s @ %s", a.relative, a.absolute)
}
