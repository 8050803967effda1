package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TomatoPi/5FX-Syncer/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID     string   `json:"session_id"`
	Name          string   `json:"name"`
	Anchors       int      `json:"anchors"`
	Deterministic bool     `json:"deterministic"`
	Mismatches    []string `json:"mismatches,omitempty"`
	Final         string   `json:"final"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled anchors and verify determinism",
		Long: `Replay the anchor journal to verify that every hard sync reproduces
the journaled anchor exactly.

Each session is replayed from its start anchor. A hard sync that fails on
replay or produces a different anchor is reported as a mismatch.

Exit codes:
  0 - All sessions are deterministic
  1 - Determinism verification failed (mismatches detected)
  2 - Command error (database not found, etc.)

Examples:
  syncer replay --db ./syncer.db
  syncer replay --db ./syncer.db --session 0190...
  syncer replay --db ./syncer.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default from config)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := opts.formatter(cmd)

	path, err := databasePath(opts.RootOptions, opts.Database)
	if err != nil {
		return fail(out, "no database", err)
	}
	j, err := journal.Open(path)
	if err != nil {
		return fail(out, "failed to open database", err)
	}
	defer j.Close()

	var sessions []journal.Session
	if opts.SessionID != "" {
		s, err := j.GetSession(ctx, opts.SessionID)
		if err != nil {
			return fail(out, "failed to load session", err)
		}
		sessions = []journal.Session{s}
	} else {
		sessions, err = j.ListSessions(ctx)
		if err != nil {
			return fail(out, "failed to list sessions", err)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}
	for _, s := range sessions {
		r, err := j.Replay(ctx, s.ID)
		if err != nil {
			return fail(out, fmt.Sprintf("failed to replay session %s", s.ID), err)
		}
		sr := ReplaySessionResult{
			SessionID:     s.ID,
			Name:          s.Name,
			Anchors:       r.Records,
			Deterministic: r.Deterministic,
			Final:         r.Final.String(),
		}
		for _, m := range r.Mismatches {
			sr.Mismatches = append(sr.Mismatches, describeMismatch(m))
		}
		if !r.Deterministic {
			result.AllDeterministic = false
		}
		opts.Logger().Debug("replayed session", "session", s.ID, "anchors", r.Records, "deterministic", r.Deterministic)
		result.Sessions = append(result.Sessions, sr)
	}

	if err := out.Success(result, replayText(result)); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func describeMismatch(m journal.Mismatch) string {
	if m.Err != nil {
		return fmt.Sprintf("seq %d: %v", m.Seq, m.Err)
	}
	return fmt.Sprintf("seq %d: journaled %s, replayed %s", m.Seq, m.Want, m.Got)
}

func replayText(result ReplayResult) string {
	if result.TotalSessions == 0 {
		return "No sessions found in database.\n"
	}

	var b strings.Builder
	for _, s := range result.Sessions {
		status := "OK"
		if !s.Deterministic {
			status = "MISMATCH"
		}
		fmt.Fprintf(&b, "%-8s %s %s (%d anchors)\n", status, s.SessionID, s.Name, s.Anchors)
		for _, m := range s.Mismatches {
			fmt.Fprintf(&b, "         %s\n", m)
		}
	}
	if result.AllDeterministic {
		fmt.Fprintf(&b, "\nAll %d sessions deterministic.\n", result.TotalSessions)
	} else {
		b.WriteString("\nDeterminism verification FAILED.\n")
	}
	return b.String()
}

// databasePath returns flag, or the configured database.
func databasePath(opts *RootOptions, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := opts.Config()
	if err != nil {
		return "", err
	}
	if cfg.Database == "" {
		return "", fmt.Errorf("--db not set and config has no database")
	}
	return cfg.Database, nil
}
