package journal

import (
	"context"
	"fmt"

	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// CreateSession inserts a session. An empty ID is replaced by a fresh
// UUIDv7. Returns the stored session.
func (j *Journal) CreateSession(ctx context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = NewSessionID()
	}
	if !s.SampleRate.Valid() {
		return Session{}, fmt.Errorf("create session: sample rate: %w", timebase.ErrInvalidRate)
	}
	ratio := s.SampleRate.Ratio()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, name, ticks_per_beat, sample_rate_num, sample_rate_den, block_size)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		s.ID,
		s.Name,
		s.TicksPerBeat,
		ratio.Num(),
		ratio.Den(),
		s.BlockSize,
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// AppendAnchor journals a record.
// Uses ON CONFLICT DO NOTHING for idempotency - a record already journaled
// under the same (session, seq) is silently kept.
//
// Note: the session referenced by SessionID must exist (foreign key constraint).
func (j *Journal) AppendAnchor(ctx context.Context, r Record) error {
	if !r.Anchor.Valid() {
		return fmt.Errorf("append anchor seq %d: %w", r.Seq, timebase.ErrInvalidOperand)
	}

	args := []any{
		r.SessionID,
		r.Seq,
		string(r.Reason),
		r.SyncFrom,
		r.ObservedTick,
		r.ObservedFrame,
		r.LastTick,
	}
	args = append(args, anchorColumns(r.Anchor)...)

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO anchors
		(session_id, seq, reason, sync_from, observed_tick, observed_frame, last_tick,
		 relative_value, relative_num, relative_den,
		 absolute_value, absolute_num, absolute_den)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, args...)
	if err != nil {
		return fmt.Errorf("append anchor seq %d: %w", r.Seq, err)
	}
	return nil
}

// UpdateProgress records how far a session has played.
func (j *Journal) UpdateProgress(ctx context.Context, sessionID string, blocks, position, lastTick, lastSeq int64) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE sessions
		SET blocks = ?, position = ?, last_tick = ?, last_seq = ?
		WHERE id = ?
	`, blocks, position, lastTick, lastSeq, sessionID)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update progress %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}
