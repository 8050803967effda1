package timebase

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secondsIn72h      = 259_200
	framesIn72h192kHz = 49_766_400_000
	framesIn72h96kHz  = 24_883_200_000
	framesIn72h48kHz  = 12_441_600_000
)

func TestRebase_OneSecond(t *testing.T) {
	kHz48 := MustKilohertz(48)

	f, err := Rebase[Frame](Ticks(DefaultTicksPerBeat, MustBPM(60)), kHz48)
	require.NoError(t, err)
	assert.Equal(t, int64(48_000), f.Value())
	assert.True(t, f.Rate().Equal(kHz48))

	f, err = Rebase[Frame](Ticks(2*DefaultTicksPerBeat, MustBPM(120)), kHz48)
	require.NoError(t, err)
	assert.Equal(t, int64(48_000), f.Value())

	tk, err := Rebase[Tick](Frames(48_000, kHz48), MustBPM(60))
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultTicksPerBeat), tk.Value())

	tk, err = Rebase[Tick](Frames(48_000, kHz48), MustBPM(120))
	require.NoError(t, err)
	assert.Equal(t, int64(2*DefaultTicksPerBeat), tk.Value())
}

func TestRemap_SampleRatesAndTempos(t *testing.T) {
	tests := []struct {
		name string
		q    Quantity[Frame]
		to   Rate
		want int64
	}{
		{"48k to 96k", Frames(48_000, MustKilohertz(48)), MustKilohertz(96), 96_000},
		{"96k to 48k", Frames(96_000, MustKilohertz(96)), MustKilohertz(48), 48_000},
		{"192k to itself", Frames(192_000, MustKilohertz(192)), MustKilohertz(192), 192_000},
		{"192k to 48k", Frames(192_000, MustKilohertz(192)), MustKilohertz(48), 48_000},
		{"48k to 192k", Frames(48_000, MustKilohertz(48)), MustKilohertz(192), 192_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Remap(tt.q, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Value())
		})
	}

	got, err := Remap(Ticks(DefaultTicksPerBeat, MustBPM(60)), MustBPM(120))
	require.NoError(t, err)
	assert.Equal(t, int64(2*DefaultTicksPerBeat), got.Value())

	got, err = Remap(Ticks(2*DefaultTicksPerBeat, MustBPM(120)), MustBPM(60))
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultTicksPerBeat), got.Value())
}

func TestRebase_StableFor72Hours(t *testing.T) {
	kHz192 := MustKilohertz(192)

	tests := []struct {
		name string
		q    Quantity[Frame]
	}{
		{"192k", Frames(framesIn72h192kHz, kHz192)},
		{"96k", Frames(framesIn72h96kHz, MustKilohertz(96))},
		{"48k", Frames(framesIn72h48kHz, MustKilohertz(48))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Remap(tt.q, kHz192)
			require.NoError(t, err)
			assert.Equal(t, int64(framesIn72h192kHz), got.Value())
		})
	}

	f, err := Rebase[Frame](Ticks(DefaultTicksPerBeat*secondsIn72h, MustBPM(60)), kHz192)
	require.NoError(t, err)
	assert.Equal(t, int64(framesIn72h192kHz), f.Value())

	f, err = Rebase[Frame](Ticks(4*DefaultTicksPerBeat*secondsIn72h, MustBPM(240)), kHz192)
	require.NoError(t, err)
	assert.Equal(t, int64(framesIn72h192kHz), f.Value())

	tk, err := Rebase[Tick](Frames(framesIn72h192kHz, kHz192), MustBPM(240))
	require.NoError(t, err)
	assert.Equal(t, int64(4*DefaultTicksPerBeat*secondsIn72h), tk.Value())
}

func TestRebase_StableAt196kHz(t *testing.T) {
	kHz196 := MustKilohertz(196)
	const frames = 50_803_200_000

	got, err := Remap(Frames(frames, kHz196), kHz196)
	require.NoError(t, err)
	assert.Equal(t, int64(frames), got.Value())

	got, err = Remap(Frames(24_883_200_000, MustKilohertz(96)), kHz196)
	require.NoError(t, err)
	assert.Equal(t, int64(frames), got.Value())

	got, err = Remap(Frames(framesIn72h48kHz, MustKilohertz(48)), kHz196)
	require.NoError(t, err)
	assert.Equal(t, int64(frames), got.Value())
}

func TestRebase_RoundTripExact(t *testing.T) {
	pairs := []struct {
		name     string
		from, to Rate
	}{
		{"48k via 192k", MustKilohertz(48), MustKilohertz(192)},
		{"96k via 192k", MustKilohertz(96), MustKilohertz(192)},
		{"44.1k via 88.2k", MustHertz(44_100), MustHertz(88_200)},
		{"60bpm via 48k", MustBPM(60), MustKilohertz(48)},
		{"120bpm via 240bpm", MustBPM(120), MustBPM(240)},
	}
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			for _, v := range []int64{0, 1, -1, 7, 959, 48_000, framesIn72h48kHz / 4} {
				q := Frames(v, p.from)
				there, err := Remap(q, p.to)
				require.NoError(t, err)
				back, err := Remap(there, p.from)
				require.NoError(t, err)
				assert.True(t, back.Equal(q), "%s -> %s -> %s", q, there, back)
				assert.Equal(t, v, back.Value())
			}
		})
	}
}

func TestRebase_RoundTripBoundedTruncation(t *testing.T) {
	cd, dat := MustHertz(44_100), MustKilohertz(48)
	for v := int64(0); v < 5_000; v++ {
		there, err := Remap(Frames(v, cd), dat)
		require.NoError(t, err)
		back, err := Remap(there, cd)
		require.NoError(t, err)
		diff := v - back.Value()
		assert.True(t, diff == 0 || diff == 1, "v=%d came back as %d", v, back.Value())
	}
}

func TestRebase_TruncatesTowardZero(t *testing.T) {
	kHz48 := MustKilohertz(48)

	tk, err := Rebase[Tick](Frames(-47_936, kHz48), MustBPM(60))
	require.NoError(t, err)
	assert.Equal(t, int64(-958), tk.Value())

	tk, err = Rebase[Tick](Frames(-49, kHz48), MustBPM(60))
	require.NoError(t, err)
	assert.Equal(t, int64(0), tk.Value())
}

func TestRebaseResidual(t *testing.T) {
	kHz48 := MustKilohertz(48)

	tk, residual, err := RebaseResidual[Tick](Frames(1, kHz48), MustBPM(60))
	require.NoError(t, err)
	assert.Equal(t, int64(0), tk.Value())
	assert.True(t, residual.Equal(MustRational(1, 50)))

	tk, residual, err = RebaseResidual[Tick](Frames(-51, kHz48), MustBPM(60))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), tk.Value())
	assert.True(t, residual.Equal(MustRational(-1, 50)))

	_, residual, err = RebaseResidual[Frame](Ticks(3, MustBPM(60)), kHz48)
	require.NoError(t, err)
	assert.True(t, residual.IsZero())
}

func TestRebase_InvalidOperands(t *testing.T) {
	_, err := Rebase[Frame](Quantity[Tick]{}, MustKilohertz(48))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOperand))

	_, err = Rebase[Frame](Ticks(1, MustBPM(60)), Rate{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOperand))
	assert.False(t, IsInvalidRate(err))
}

func TestRebase_Overflow(t *testing.T) {
	_, err := Remap(Frames(math.MaxInt64, MustKilohertz(48)), MustKilohertz(96))
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
}

func TestDeriveRate_TempoFromFrames(t *testing.T) {
	kHz48 := MustKilohertz(48)

	rate, err := DeriveRate(Frames(128, kHz48), Ticks(1, MustBPM(60)))
	require.NoError(t, err)
	assert.True(t, rate.Equal(MustBPM(23.4375)))
	bpm, err := rate.BeatsPerMinute(DefaultTicksPerBeat)
	require.NoError(t, err)
	assert.True(t, bpm.Equal(MustRational(375, 16)), "got %s", bpm)

	rate, err = UnitRate[Tick](Frames(100, kHz48))
	require.NoError(t, err)
	assert.True(t, rate.Equal(MustBPM(30)))

	rate, err = DeriveRate(Frames(192_000, MustKilohertz(192)), Ticks(DefaultTicksPerBeat, MustBPM(1)))
	require.NoError(t, err)
	assert.True(t, rate.Equal(MustBPM(60)))

	rate, err = DeriveRate(Frames(96_000, MustKilohertz(192)), Ticks(DefaultTicksPerBeat, MustBPM(1)))
	require.NoError(t, err)
	assert.True(t, rate.Equal(MustBPM(120)))
}

func TestDeriveRate_InverseOfRebase(t *testing.T) {
	tempo := MustBPM(150)
	ticks := Ticks(4*DefaultTicksPerBeat, tempo)
	frames, err := Rebase[Frame](ticks, MustKilohertz(48))
	require.NoError(t, err)

	rate, err := DeriveRate(frames, ticks)
	require.NoError(t, err)
	assert.True(t, rate.Equal(tempo), "derived %s, want %s", rate, tempo)
}

func TestDeriveRate_SampleRateFromTicks(t *testing.T) {
	rate, err := DeriveRate(Ticks(DefaultTicksPerBeat, MustBPM(60)), Frames(44_100, MustKilohertz(48)))
	require.NoError(t, err)
	assert.True(t, rate.Equal(MustHertz(44_100)))
}

func TestDeriveRate_InvalidOperands(t *testing.T) {
	kHz48 := MustKilohertz(48)
	tests := []struct {
		name   string
		delta  Quantity[Frame]
		target Quantity[Tick]
	}{
		{"zero delta", Frames(0, kHz48), Ticks(1, MustBPM(60))},
		{"invalid delta", Quantity[Frame]{}, Ticks(1, MustBPM(60))},
		{"zero target", Frames(128, kHz48), Ticks(0, MustBPM(60))},
		{"invalid target", Frames(128, kHz48), Quantity[Tick]{}},
		{"opposite signs", Frames(-128, kHz48), Ticks(1, MustBPM(60))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveRate(tt.delta, tt.target)
			require.Error(t, err)
			assert.True(t, IsInvalidOperand(err), "got %v", err)
		})
	}
}

func TestDeriveRate_BothNegative(t *testing.T) {
	rate, err := DeriveRate(Frames(-128, MustKilohertz(48)), Ticks(-1, MustBPM(60)))
	require.NoError(t, err)
	assert.True(t, rate.Equal(MustBPM(23.4375)))
}

func TestAlignBases(t *testing.T) {
	a, b, err := AlignBases(Ticks(90, MustBPM(120)), Ticks(200, MustBPM(240)))
	require.NoError(t, err)
	assert.Equal(t, int64(180), a.Value())
	assert.Equal(t, int64(200), b.Value())
	assert.True(t, a.Rate().Equal(MustBPM(240)))
	assert.True(t, b.Rate().Equal(MustBPM(240)))

	fa, fb, err := AlignBases(Frames(1, MustKilohertz(96)), Frames(1, MustKilohertz(48)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), fa.Value())
	assert.Equal(t, int64(2), fb.Value())
	assert.True(t, fb.Rate().Equal(MustKilohertz(96)))

	_, _, err = AlignBases(Frames(1, MustKilohertz(96)), Quantity[Frame]{})
	assert.True(t, IsInvalidOperand(err))
}
