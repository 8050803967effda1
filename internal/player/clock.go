package player

import "sync/atomic"

// Clock stamps every block, tick and sync a player emits with a strictly
// increasing sequence number.
//
// Sequence numbers order the trace without consulting wall time, so a
// replayed session produces the same numbering.
//
// Thread-safety: Clock is safe for concurrent use. Step and HardSync may
// draw from it on different goroutines.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start.
// Used to continue a journaled session.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
