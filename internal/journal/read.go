package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const sessionColumns = `id, name, ticks_per_beat, sample_rate_num, sample_rate_den, block_size,
	blocks, position, last_tick, last_seq`

func scanSession(row rowScanner) (Session, error) {
	var (
		s        Session
		num, den int64
	)
	if err := row.Scan(&s.ID, &s.Name, &s.TicksPerBeat, &num, &den, &s.BlockSize,
		&s.Blocks, &s.Position, &s.LastTick, &s.LastSeq); err != nil {
		return Session{}, err
	}
	ratio, err := timebase.NewRational(num, den)
	if err != nil {
		return Session{}, fmt.Errorf("session %s sample rate: %w", s.ID, err)
	}
	s.SampleRate = timebase.RateOf(ratio)
	return s, nil
}

// GetSession returns one session.
func (j *Journal) GetSession(ctx context.Context, id string) (Session, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("get session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return s, nil
}

// ListSessions returns every session in creation order.
// Returns an empty slice (not nil) when the journal is empty.
func (j *Journal) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r                        Record
		reason                   string
		relValue, relNum, relDen int64
		absValue, absNum, absDen int64
	)
	if err := row.Scan(&r.SessionID, &r.Seq, &reason, &r.SyncFrom,
		&r.ObservedTick, &r.ObservedFrame, &r.LastTick,
		&relValue, &relNum, &relDen, &absValue, &absNum, &absDen); err != nil {
		return Record{}, err
	}
	r.Reason = Reason(reason)

	a, err := anchorFromColumns(relValue, relNum, relDen, absValue, absNum, absDen)
	if err != nil {
		return Record{}, fmt.Errorf("anchor seq %d: %w", r.Seq, err)
	}
	r.Anchor = a
	return r, nil
}

const recordColumns = `session_id, seq, reason, sync_from, observed_tick, observed_frame, last_tick,
	relative_value, relative_num, relative_den, absolute_value, absolute_num, absolute_den`

// Anchors returns every record of a session ordered by seq.
// Returns an empty slice (not nil) if none exist.
func (j *Journal) Anchors(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM anchors
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query anchors: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan anchor: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anchors: %w", err)
	}
	return records, nil
}

// Latest returns the most recent record of a session.
func (j *Journal) Latest(ctx context.Context, sessionID string) (Record, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM anchors
		WHERE session_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, sessionID)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("latest anchor of %s: %w", sessionID, ErrNoAnchors)
	}
	if err != nil {
		return Record{}, fmt.Errorf("latest anchor of %s: %w", sessionID, err)
	}
	return r, nil
}
