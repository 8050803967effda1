package journal

import (
	"context"
	"fmt"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
	"github.com/TomatoPi/5FX-Syncer/internal/player"
)

// Recorder journals a running player. It implements player.Observer.
//
// Recorder is not safe for concurrent use: the player's Step and HardSync
// calls it observes must not run concurrently.
type Recorder struct {
	journal  *Journal
	session  Session
	blocks   int64
	lastTick int64
	lastSeq  int64
}

var _ player.Observer = (*Recorder)(nil)

// NewRecorder returns a recorder for an existing session.
func NewRecorder(j *Journal, s Session) *Recorder {
	return &Recorder{journal: j, session: s}
}

// Session returns the recorded session.
func (r *Recorder) Session() Session { return r.session }

// Start journals the anchor the player starts from, at seq 0.
func (r *Recorder) Start(ctx context.Context, a anchor.Sync) error {
	r.lastTick = a.Relative().Value()
	err := r.journal.AppendAnchor(ctx, Record{
		SessionID: r.session.ID,
		Seq:       0,
		Reason:    ReasonStart,
		Anchor:    a,
	})
	if err != nil {
		return fmt.Errorf("record start: %w", err)
	}
	return nil
}

// OnBlock records session progress.
func (r *Recorder) OnBlock(ctx context.Context, b player.Block) error {
	r.blocks++
	r.lastSeq = max(r.lastSeq, b.Seq)
	if n := len(b.Ticks); n > 0 {
		r.lastTick = b.Ticks[n-1].Tick
		r.lastSeq = max(r.lastSeq, b.Ticks[n-1].Seq)
	}
	return r.journal.UpdateProgress(ctx, r.session.ID, r.blocks, b.End, r.lastTick, r.lastSeq)
}

// OnSync journals the anchor a hard sync published.
func (r *Recorder) OnSync(ctx context.Context, e player.SyncEvent) error {
	r.lastSeq = max(r.lastSeq, e.Seq)
	err := r.journal.AppendAnchor(ctx, Record{
		SessionID:     r.session.ID,
		Seq:           e.Seq,
		Reason:        ReasonHardSync,
		SyncFrom:      e.From.String(),
		ObservedTick:  e.Tick,
		ObservedFrame: e.Frame,
		LastTick:      e.LastTick,
		Anchor:        e.Anchor,
	})
	if err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	return nil
}
