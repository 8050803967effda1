package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TomatoPi/5FX-Syncer/internal/journal"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database string
}

// SessionInfo is one row of the sessions command.
type SessionInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TicksPerBeat int64  `json:"ticks_per_beat"`
	SampleRate   string `json:"sample_rate"`
	BlockSize    int64  `json:"block_size"`
	Blocks       int64  `json:"blocks"`
	Position     int64  `json:"position"`
	LastTick     int64  `json:"last_tick"`
	Anchor       string `json:"anchor,omitempty"`
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List journaled sessions",
		Long: `List the sessions in an anchor journal, oldest first, with their
progress and latest anchor.

Examples:
  syncer sessions --db ./syncer.db
  syncer sessions --db ./syncer.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default from config)")

	return cmd
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
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

	sessions, err := j.ListSessions(ctx)
	if err != nil {
		return fail(out, "failed to list sessions", err)
	}

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		info := SessionInfo{
			ID:           s.ID,
			Name:         s.Name,
			TicksPerBeat: s.TicksPerBeat,
			SampleRate:   s.SampleRate.String(),
			BlockSize:    s.BlockSize,
			Blocks:       s.Blocks,
			Position:     s.Position,
			LastTick:     s.LastTick,
		}
		if rec, err := j.Latest(ctx, s.ID); err == nil {
			info.Anchor = rec.Anchor.String()
		}
		infos = append(infos, info)
	}

	var b strings.Builder
	if len(infos) == 0 {
		b.WriteString("No sessions found in database.\n")
	}
	for _, s := range infos {
		fmt.Fprintf(&b, "%s  %-20s blocks %-8s frame %-12s tick %s\n",
			s.ID, s.Name, out.Count(s.Blocks), out.Count(s.Position), out.Count(s.LastTick))
		if s.Anchor != "" {
			fmt.Fprintf(&b, "    anchor %s\n", s.Anchor)
		}
	}
	return out.Success(infos, b.String())
}
