// Package testutil holds fixtures shared by the player, journal and CLI
// tests.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// SampleRate48k is the transport rate most fixtures run at.
var SampleRate48k = timebase.MustKilohertz(48)

// Origin returns the anchor tick 0 @ frame 0 at bpm (960 ticks per beat)
// and 48 kHz.
func Origin(t testing.TB, bpm float64) anchor.Sync {
	t.Helper()
	return OriginAt(t, timebase.MustBPM(bpm), SampleRate48k)
}

// OriginAt returns the anchor tick 0 @ frame 0 at the given rates.
func OriginAt(t testing.TB, tempo, sampleRate timebase.Rate) anchor.Sync {
	t.Helper()
	a, err := anchor.New(timebase.Ticks(0, tempo), timebase.Frames(0, sampleRate))
	require.NoError(t, err)
	return a
}

// Quiet returns a logger that discards everything.
func Quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
