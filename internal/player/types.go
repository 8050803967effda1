package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
)

// SyncFrom selects the origin a hard sync derives its tempo from.
type SyncFrom int

const (
	// SyncFromAnchor derives the tempo over the whole span since the
	// current anchor.
	SyncFromAnchor SyncFrom = iota

	// SyncFromLastTick first moves the anchor to the last emitted tick, so
	// the tempo is derived over the span since that tick only.
	SyncFromLastTick
)

func (s SyncFrom) String() string {
	switch s {
	case SyncFromAnchor:
		return "anchor"
	case SyncFromLastTick:
		return "last_tick"
	}
	return fmt.Sprintf("SyncFrom(%d)", int(s))
}

// ParseSyncFrom parses "anchor" or "last_tick". Empty means anchor.
func ParseSyncFrom(s string) (SyncFrom, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "anchor":
		return SyncFromAnchor, nil
	case "last_tick", "last-tick":
		return SyncFromLastTick, nil
	}
	return SyncFromAnchor, fmt.Errorf("unknown sync origin %q (want anchor or last_tick)", s)
}

// TickEvent is one tick scheduled inside a block.
type TickEvent struct {
	Seq   int64
	Tick  int64
	Frame int64

	// Late is set when the tick maps before the block it was emitted in,
	// which happens after a hard sync pulls the timeline backwards.
	Late bool
}

// Block is one processed block of frames [Start, End) and the ticks it
// emitted, in order.
type Block struct {
	Seq   int64
	Index int64
	Start int64
	End   int64
	Ticks []TickEvent
}

// SyncEvent records a hard sync applied to the player.
type SyncEvent struct {
	Seq   int64
	Tick  int64
	Frame int64
	From  SyncFrom

	// LastTick is the last tick emitted when the sync was applied.
	LastTick int64

	Anchor   anchor.Sync
	Previous anchor.Sync
}

// Observer receives everything a player emits. Callbacks run on the
// goroutine that called Step or HardSync. A callback error aborts that
// call but the state change it reports has already happened.
type Observer interface {
	OnBlock(ctx context.Context, b Block) error
	OnSync(ctx context.Context, e SyncEvent) error
}
