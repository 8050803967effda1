// Package player schedules ticks onto fixed-size blocks of frames.
//
// A Player walks the transport timeline one block at a time and emits every
// tick whose frame, as mapped by the current anchor, falls before the end of
// the block. Hard syncs replace the anchor between blocks; ticks already
// emitted are never revisited.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// DefaultBlockSize is the number of frames per block when none is given.
const DefaultBlockSize = 64

// ErrInvalidOptions is returned by New for unusable options.
var ErrInvalidOptions = errors.New("invalid player options")

// Player is the block-stepping scheduler.
//
// Thread-safety model:
//   - Step(): must be called from exactly one goroutine
//   - HardSync(): safe from any goroutine; publishes through the anchor cell
//     between blocks, so the last tick it reads is the one the published
//     anchor's block ended on
//   - NextTick(), Position(), LastTick(), Anchor(): safe from any goroutine
type Player struct {
	cell         *anchor.SyncCell
	clock        *Clock
	logger       *slog.Logger
	observers    []Observer
	blockSize    int64
	ticksPerBeat int64

	// mu orders block emission against hard syncs. Observers run outside it.
	mu sync.Mutex

	frame    atomic.Int64 // start of the next block
	block    atomic.Int64 // index of the next block
	lastTick atomic.Int64
}

// Option configures a Player.
type Option func(*Player)

// WithBlockSize sets the number of frames per block.
func WithBlockSize(n int64) Option {
	return func(p *Player) { p.blockSize = n }
}

// WithTicksPerBeat sets the resolution used to report tempos.
func WithTicksPerBeat(n int64) Option {
	return func(p *Player) { p.ticksPerBeat = n }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// WithClock sets the sequence clock, e.g. to resume a journaled session.
func WithClock(c *Clock) Option {
	return func(p *Player) { p.clock = c }
}

// WithObserver adds an observer. Observers are notified in the order added.
func WithObserver(o Observer) Option {
	return func(p *Player) { p.observers = append(p.observers, o) }
}

// New creates a player positioned at the cell's current anchor: the anchor
// tick counts as already emitted and the first block starts at the anchor
// frame.
func New(cell *anchor.SyncCell, opts ...Option) (*Player, error) {
	p := &Player{
		cell:         cell,
		clock:        NewClock(),
		logger:       slog.Default(),
		blockSize:    DefaultBlockSize,
		ticksPerBeat: timebase.DefaultTicksPerBeat,
	}
	for _, opt := range opts {
		opt(p)
	}

	if cell == nil {
		return nil, fmt.Errorf("%w: nil anchor cell", ErrInvalidOptions)
	}
	if p.blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidOptions, p.blockSize)
	}
	if p.ticksPerBeat <= 0 {
		return nil, fmt.Errorf("%w: ticks per beat %d", ErrInvalidOptions, p.ticksPerBeat)
	}
	a := cell.Load()
	if !a.Valid() {
		return nil, fmt.Errorf("%w: anchor: %w", ErrInvalidOptions, timebase.ErrInvalidOperand)
	}

	p.frame.Store(a.Absolute().Value())
	p.lastTick.Store(a.Relative().Value())
	return p, nil
}

// Step processes the next block and returns it with the ticks it emitted.
//
// The anchor is loaded once, so a hard sync published concurrently takes
// effect from the next block on.
func (p *Player) Step(ctx context.Context) (Block, error) {
	if err := ctx.Err(); err != nil {
		return Block{}, err
	}

	p.mu.Lock()
	a := p.cell.Load()
	start := p.frame.Load()
	end := start + p.blockSize
	b := Block{
		Seq:   p.clock.Next(),
		Index: p.block.Load(),
		Start: start,
		End:   end,
	}

	tick := p.lastTick.Load()
	for {
		next := tick + 1
		f, err := a.AbsoluteAt(next)
		if err != nil {
			p.mu.Unlock()
			return Block{}, fmt.Errorf("block %d: map tick %d: %w", b.Index, next, err)
		}
		if f.Value() >= end {
			break
		}
		b.Ticks = append(b.Ticks, TickEvent{
			Seq:   p.clock.Next(),
			Tick:  next,
			Frame: f.Value(),
			Late:  f.Value() < start,
		})
		tick = next
	}

	p.lastTick.Store(tick)
	p.frame.Store(end)
	p.block.Add(1)
	p.mu.Unlock()

	for _, tk := range b.Ticks {
		if tk.Late {
			p.logger.Warn("late tick", "tick", tk.Tick, "frame", tk.Frame, "block", b.Index, "block_start", start)
		}
	}
	p.logger.Debug("block processed", "block", b.Index, "start", start, "end", end, "ticks", len(b.Ticks))

	for _, o := range p.observers {
		if err := o.OnBlock(ctx, b); err != nil {
			return b, fmt.Errorf("block %d: observer: %w", b.Index, err)
		}
	}
	return b, nil
}

// Run steps n blocks and returns them.
func (p *Player) Run(ctx context.Context, n int) ([]Block, error) {
	blocks := make([]Block, 0, n)
	for i := 0; i < n; i++ {
		b, err := p.Step(ctx)
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// HardSync tells the player that tick was observed at frame. It derives
// the tempo joining the new correlation point to the origin chosen by from
// and publishes the resulting anchor. Both values are counted at the
// current anchor's rates.
func (p *Player) HardSync(ctx context.Context, tick, frame int64, from SyncFrom) (SyncEvent, error) {
	if err := ctx.Err(); err != nil {
		return SyncEvent{}, err
	}
	p.mu.Lock()
	last := p.lastTick.Load()
	prev, next, err := p.cell.Update(func(cur anchor.Sync) (anchor.Sync, error) {
		return ApplySync(cur, tick, frame, last, from)
	})
	var seq int64
	if err == nil {
		seq = p.clock.Next()
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("hard sync rejected", "tick", tick, "frame", frame, "from", from.String(), "error", err)
		return SyncEvent{}, fmt.Errorf("hard sync tick %d at frame %d from %s: %w", tick, frame, from, err)
	}

	e := SyncEvent{
		Seq:      seq,
		Tick:     tick,
		Frame:    frame,
		From:     from,
		LastTick: last,
		Anchor:   next,
		Previous: prev,
	}

	p.logger.Info("hard sync",
		"seq", e.Seq,
		"tick", tick,
		"frame", frame,
		"from", from.String(),
		"rate", next.Relative().Rate().String(),
		"bpm", next.Relative().Rate().Tempo(p.ticksPerBeat),
	)

	for _, o := range p.observers {
		if err := o.OnSync(ctx, e); err != nil {
			return e, fmt.Errorf("hard sync: observer: %w", err)
		}
	}
	return e, nil
}

// ApplySync computes the anchor a hard sync publishes: tick observed at
// frame, derived from cur or, with SyncFromLastTick, from lastTick mapped
// through cur. Values are counted at cur's rates.
func ApplySync(cur anchor.Sync, tick, frame, lastTick int64, from SyncFrom) (anchor.Sync, error) {
	base := cur
	if from == SyncFromLastTick {
		moved, err := cur.Reanchor(timebase.Ticks(lastTick, cur.Relative().Rate()))
		if err != nil {
			return anchor.Sync{}, err
		}
		base = moved
	}
	return base.Resync(
		timebase.Ticks(tick, base.Relative().Rate()),
		timebase.Frames(frame, base.Absolute().Rate()),
	)
}

// NextTick returns the next tick to be emitted and the frame it maps to
// under the current anchor.
func (p *Player) NextTick() (int64, timebase.Quantity[timebase.Frame], error) {
	next := p.lastTick.Load() + 1
	f, err := p.cell.Load().AbsoluteAt(next)
	if err != nil {
		return next, timebase.Quantity[timebase.Frame]{}, fmt.Errorf("map tick %d: %w", next, err)
	}
	return next, f, nil
}

// Position returns the first frame of the next block.
func (p *Player) Position() int64 { return p.frame.Load() }

// LastTick returns the last emitted tick.
func (p *Player) LastTick() int64 { return p.lastTick.Load() }

// Anchor returns the current anchor.
func (p *Player) Anchor() anchor.Sync { return p.cell.Load() }

// TicksPerBeat returns the resolution used to report tempos.
func (p *Player) TicksPerBeat() int64 { return p.ticksPerBeat }
