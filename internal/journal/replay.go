package journal

import (
	"context"
	"fmt"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
	"github.com/TomatoPi/5FX-Syncer/internal/player"
)

// Mismatch is a journaled anchor that replay could not reproduce.
type Mismatch struct {
	Seq  int64
	Want anchor.Sync
	Got  anchor.Sync
	Err  error // set when the sync itself failed on replay
}

// ReplayResult reports whether a session's anchor chain is reproducible.
type ReplayResult struct {
	SessionID     string
	Records       int
	Deterministic bool
	Mismatches    []Mismatch
	Final         anchor.Sync
}

// Replay re-applies every journaled hard sync of a session, starting from
// its start anchor, and compares each recomputed anchor with the journaled
// one. Each step starts from the journaled anchor of the previous step, so
// one mismatch does not cascade.
func (j *Journal) Replay(ctx context.Context, sessionID string) (ReplayResult, error) {
	records, err := j.Anchors(ctx, sessionID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", sessionID, err)
	}
	if len(records) == 0 {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", sessionID, ErrNoAnchors)
	}
	if records[0].Reason != ReasonStart {
		return ReplayResult{}, fmt.Errorf("replay %s: first anchor seq %d has reason %q, want %q",
			sessionID, records[0].Seq, records[0].Reason, ReasonStart)
	}

	result := ReplayResult{
		SessionID:  sessionID,
		Records:    len(records),
		Mismatches: []Mismatch{},
	}

	cur := records[0].Anchor
	for _, r := range records[1:] {
		if err := ctx.Err(); err != nil {
			return ReplayResult{}, err
		}
		if r.Reason != ReasonHardSync {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq:  r.Seq,
				Want: r.Anchor,
				Err:  fmt.Errorf("unexpected reason %q", r.Reason),
			})
			cur = r.Anchor
			continue
		}

		from, err := player.ParseSyncFrom(r.SyncFrom)
		if err != nil {
			result.Mismatches = append(result.Mismatches, Mismatch{Seq: r.Seq, Want: r.Anchor, Err: err})
			cur = r.Anchor
			continue
		}

		got, err := player.ApplySync(cur, r.ObservedTick, r.ObservedFrame, r.LastTick, from)
		switch {
		case err != nil:
			result.Mismatches = append(result.Mismatches, Mismatch{Seq: r.Seq, Want: r.Anchor, Err: err})
		case !got.Identical(r.Anchor):
			result.Mismatches = append(result.Mismatches, Mismatch{Seq: r.Seq, Want: r.Anchor, Got: got})
		}
		cur = r.Anchor
	}

	result.Final = cur
	result.Deterministic = len(result.Mismatches) == 0
	return result, nil
}
