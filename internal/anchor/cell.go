package anchor

import (
	"sync/atomic"

	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// Cell holds the current anchor shared between a reader (the block loop)
// and writers (hard syncs from a control thread).
//
// Thread-safety: all methods are safe for concurrent use. Load never
// blocks. Update retries on contention and never loses a concurrent update.
type Cell[R, A timebase.Unit] struct {
	p atomic.Pointer[Anchor[R, A]]
}

// SyncCell is the cell a scheduler shares.
type SyncCell = Cell[timebase.Tick, timebase.Frame]

// NewCell returns a cell publishing initial.
func NewCell[R, A timebase.Unit](initial Anchor[R, A]) *Cell[R, A] {
	c := &Cell[R, A]{}
	c.Store(initial)
	return c
}

// Load returns the current anchor, or the invalid zero anchor if nothing
// was ever stored.
func (c *Cell[R, A]) Load() Anchor[R, A] {
	if p := c.p.Load(); p != nil {
		return *p
	}
	return Anchor[R, A]{}
}

// Store publishes a unconditionally.
func (c *Cell[R, A]) Store(a Anchor[R, A]) {
	c.p.Store(&a)
}

// Update publishes fn(current) and returns the previous and new anchors.
// fn may run more than once and must not have side effects.
// If fn fails nothing is published.
func (c *Cell[R, A]) Update(fn func(Anchor[R, A]) (Anchor[R, A], error)) (prev, next Anchor[R, A], err error) {
	for {
		old := c.p.Load()
		var cur Anchor[R, A]
		if old != nil {
			cur = *old
		}
		n, err := fn(cur)
		if err != nil {
			return cur, Anchor[R, A]{}, err
		}
		if c.p.CompareAndSwap(old, &n) {
			return cur, n, nil
		}
	}
}

// Resync applies Anchor.Resync to the current anchor and publishes the
// result.
func (c *Cell[R, A]) Resync(newRelative timebase.Quantity[R], observed timebase.Quantity[A]) (Anchor[R, A], error) {
	_, next, err := c.Update(func(cur Anchor[R, A]) (Anchor[R, A], error) {
		return cur.Resync(newRelative, observed)
	})
	return next, err
}
