package journal

import (
	"fmt"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// Reason tells why an anchor was published.
type Reason string

const (
	ReasonStart    Reason = "start"
	ReasonHardSync Reason = "hard_sync"
)

// Session describes one player run.
type Session struct {
	ID           string
	Name         string
	TicksPerBeat int64
	SampleRate   timebase.Rate
	BlockSize    int64

	// Progress, updated as blocks are processed.
	Blocks   int64
	Position int64
	LastTick int64
	LastSeq  int64
}

// Record is one journaled anchor.
type Record struct {
	SessionID string
	Seq       int64
	Reason    Reason

	// Hard sync inputs; zero for the start record.
	SyncFrom      string
	ObservedTick  int64
	ObservedFrame int64
	LastTick      int64

	Anchor anchor.Sync
}

// anchorColumns flattens an anchor into its six stored integers.
func anchorColumns(a anchor.Sync) []any {
	rel, abs := a.Relative(), a.Absolute()
	return []any{
		rel.Value(), rel.Rate().Ratio().Num(), rel.Rate().Ratio().Den(),
		abs.Value(), abs.Rate().Ratio().Num(), abs.Rate().Ratio().Den(),
	}
}

// anchorFromColumns rebuilds an anchor from its stored integers.
func anchorFromColumns(relValue, relNum, relDen, absValue, absNum, absDen int64) (anchor.Sync, error) {
	relRatio, err := timebase.NewRational(relNum, relDen)
	if err != nil {
		return anchor.Sync{}, fmt.Errorf("relative rate: %w", err)
	}
	absRatio, err := timebase.NewRational(absNum, absDen)
	if err != nil {
		return anchor.Sync{}, fmt.Errorf("absolute rate: %w", err)
	}
	return anchor.New(
		timebase.Ticks(relValue, timebase.RateOf(relRatio)),
		timebase.Frames(absValue, timebase.RateOf(absRatio)),
	)
}
