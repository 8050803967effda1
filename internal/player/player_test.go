package player

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
	"github.com/TomatoPi/5FX-Syncer/internal/testutil"
	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

type recorder struct {
	mu     sync.Mutex
	blocks []Block
	syncs  []SyncEvent
	err    error
}

func (r *recorder) OnBlock(_ context.Context, b Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks = append(r.blocks, b)
	return r.err
}

func (r *recorder) OnSync(_ context.Context, e SyncEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncs = append(r.syncs, e)
	return r.err
}

func newPlayer(t *testing.T, bpm float64, opts ...Option) *Player {
	t.Helper()
	p, err := New(anchor.NewCell(testutil.Origin(t, bpm)), append([]Option{WithLogger(testutil.Quiet())}, opts...)...)
	require.NoError(t, err)
	return p
}

type tick struct {
	seq, tick, frame int64
	late             bool
}

func ticksOf(b Block) []tick {
	out := make([]tick, 0, len(b.Ticks))
	for _, tk := range b.Ticks {
		out = append(out, tick{tk.Seq, tk.Tick, tk.Frame, tk.Late})
	}
	return out
}

func TestNew_Options(t *testing.T) {
	a := testutil.Origin(t, 60)

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = New(anchor.NewCell(a), WithBlockSize(0))
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = New(anchor.NewCell(a), WithTicksPerBeat(-1))
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = New(&anchor.SyncCell{})
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.ErrorIs(t, err, timebase.ErrInvalidOperand)

	p, err := New(anchor.NewCell(a), WithLogger(testutil.Quiet()))
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Position())
	assert.Equal(t, int64(0), p.LastTick())
	assert.Equal(t, int64(timebase.DefaultTicksPerBeat), p.TicksPerBeat())
}

func TestStep_SteadyTempo(t *testing.T) {
	// 120bpm at 48kHz: one tick every 25 frames.
	p := newPlayer(t, 120, WithBlockSize(100))
	ctx := context.Background()

	b, err := p.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.Seq)
	assert.Equal(t, int64(0), b.Index)
	assert.Equal(t, int64(0), b.Start)
	assert.Equal(t, int64(100), b.End)
	assert.Equal(t, []tick{{2, 1, 25, false}, {3, 2, 50, false}, {4, 3, 75, false}}, ticksOf(b))

	b, err = p.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.Seq)
	assert.Equal(t, []tick{{6, 4, 100, false}, {7, 5, 125, false}, {8, 6, 150, false}, {9, 7, 175, false}}, ticksOf(b))

	assert.Equal(t, int64(200), p.Position())
	assert.Equal(t, int64(7), p.LastTick())

	next, f, err := p.NextTick()
	require.NoError(t, err)
	assert.Equal(t, int64(8), next)
	assert.Equal(t, int64(200), f.Value())
}

func TestHardSync_Recovery(t *testing.T) {
	obs := &recorder{}
	p := newPlayer(t, 60, WithObserver(obs))
	ctx := context.Background()

	blocks, err := p.Run(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []tick{{2, 1, 50, false}}, ticksOf(blocks[0]))
	assert.Equal(t, []tick{{4, 2, 100, false}}, ticksOf(blocks[1]))

	e, err := p.HardSync(ctx, 1, 128, SyncFromAnchor)
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.Seq)
	assert.Equal(t, int64(2), e.LastTick)
	assert.True(t, e.Anchor.Relative().Rate().Equal(timebase.MustBPM(23.4375)))
	assert.Equal(t, 23.4375, e.Anchor.Relative().Rate().Tempo(p.TicksPerBeat()))
	assert.True(t, e.Previous.Relative().Rate().Equal(timebase.MustBPM(60)))

	// Tick 3 now maps to 384, which opens block 6.
	blocks, err = p.Run(ctx, 5)
	require.NoError(t, err)
	for _, b := range blocks[:4] {
		assert.Empty(t, b.Ticks, "block %d", b.Index)
	}
	assert.Equal(t, int64(384), blocks[4].Start)
	assert.Equal(t, []tick{{11, 3, 384, false}}, ticksOf(blocks[4]))

	e, err = p.HardSync(ctx, 4, 484, SyncFromLastTick)
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.LastTick)
	assert.True(t, e.Anchor.Relative().Rate().Equal(timebase.MustBPM(30)))

	b, err := p.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, []tick{{14, 4, 484, false}}, ticksOf(b))

	assert.Len(t, obs.blocks, 8)
	assert.Len(t, obs.syncs, 2)
}

func TestHardSync_LateTicks(t *testing.T) {
	p := newPlayer(t, 60)
	ctx := context.Background()

	_, err := p.Step(ctx)
	require.NoError(t, err)

	e, err := p.HardSync(ctx, 4, 64, SyncFromAnchor)
	require.NoError(t, err)
	assert.Equal(t, 187.5, e.Anchor.Relative().Rate().Tempo(p.TicksPerBeat()))

	b, err := p.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, []tick{
		{5, 2, 32, true},
		{6, 3, 48, true},
		{7, 4, 64, false},
		{8, 5, 80, false},
		{9, 6, 96, false},
		{10, 7, 112, false},
	}, ticksOf(b))
}

func TestHardSync_Rejected(t *testing.T) {
	p := newPlayer(t, 60)
	ctx := context.Background()
	before := p.Anchor()

	_, err := p.HardSync(ctx, 0, 128, SyncFromAnchor)
	require.Error(t, err)
	assert.True(t, timebase.IsInvalidOperand(err))
	assert.True(t, p.Anchor().Identical(before), "failed sync publishes nothing")

	// From the last tick, which is still the anchor tick, the same sync fails too.
	_, err = p.HardSync(ctx, 0, 128, SyncFromLastTick)
	assert.True(t, timebase.IsInvalidOperand(err))
}

func TestStep_ObserverError(t *testing.T) {
	boom := errors.New("boom")
	p := newPlayer(t, 60, WithObserver(&recorder{err: boom}))

	_, err := p.Step(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(64), p.Position(), "the block was still processed")

	_, err = p.HardSync(context.Background(), 1, 128, SyncFromAnchor)
	assert.ErrorIs(t, err, boom)
}

func TestStep_ContextCancelled(t *testing.T) {
	p := newPlayer(t, 60)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = p.HardSync(ctx, 1, 128, SyncFromAnchor)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), p.Position())
}

func TestHardSync_ConcurrentWithStep(t *testing.T) {
	p := newPlayer(t, 60)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= 20; i++ {
			_, err := p.HardSync(ctx, 1000*i, 48_000*i, SyncFromAnchor)
			assert.NoError(t, err)
		}
	}()

	prev := int64(0)
	for i := 0; i < 200; i++ {
		b, err := p.Step(ctx)
		require.NoError(t, err)
		for _, tk := range b.Ticks {
			assert.Equal(t, prev+1, tk.Tick, "ticks are emitted in order without gaps")
			prev = tk.Tick
		}
	}
	wg.Wait()
}

func TestHardSync_LastTickConcurrentWithStep(t *testing.T) {
	obs := &recorder{}
	p := newPlayer(t, 240, WithObserver(obs))
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			next, f, err := p.NextTick()
			if err != nil {
				continue
			}
			// Rejections are expected when Step moves past next first.
			_, _ = p.HardSync(ctx, next, f.Value()+1, SyncFromLastTick)
		}
	}()

	_, err := p.Run(ctx, 500)
	require.NoError(t, err)
	wg.Wait()

	// A sync reanchors at the last tick of the blocks sequenced before it.
	for _, e := range obs.syncs {
		var want int64
		for _, b := range obs.blocks {
			if b.Seq > e.Seq {
				continue
			}
			for _, tk := range b.Ticks {
				want = max(want, tk.Tick)
			}
		}
		assert.Equal(t, want, e.LastTick, "sync seq %d", e.Seq)
	}
}

func TestParseSyncFrom(t *testing.T) {
	tests := []struct {
		in   string
		want SyncFrom
	}{
		{"", SyncFromAnchor},
		{"anchor", SyncFromAnchor},
		{"last_tick", SyncFromLastTick},
		{"Last-Tick", SyncFromLastTick},
	}
	for _, tt := range tests {
		got, err := ParseSyncFrom(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseSyncFrom("midi")
	assert.Error(t, err)

	assert.Equal(t, "anchor", SyncFromAnchor.String())
	assert.Equal(t, "last_tick", SyncFromLastTick.String())
}
