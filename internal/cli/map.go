package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
	"github.com/TomatoPi/5FX-Syncer/internal/journal"
)

// MapOptions holds flags for the map command.
type MapOptions struct {
	*RootOptions
	Tick      int64
	Frame     int64
	Database  string
	SessionID string
}

// MapResult is the JSON payload of the map command.
type MapResult struct {
	Anchor string `json:"anchor"`
	Tick   int64  `json:"tick"`
	Frame  int64  `json:"frame"`
	Source string `json:"source"` // "config" or a session ID
}

// NewMapCommand creates the map command.
func NewMapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map a tick to its frame, or a frame to its tick",
		Long: `Map a position through an anchor.

The anchor is tick 0 at frame 0 with the configured tempo and sample rate,
or the latest journaled anchor of --session.

Exit codes:
  0 - Mapping succeeded
  2 - Command error (session not found, overflow)

Examples:
  syncer map --tick 960
  syncer map --frame 48000 --config syncer.yaml
  syncer map --tick 3840 --db ./syncer.db --session 0190...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Tick, "tick", 0, "tick to map to a frame")
	cmd.Flags().Int64Var(&opts.Frame, "frame", 0, "frame to map to a tick")
	cmd.MarkFlagsOneRequired("tick", "frame")
	cmd.MarkFlagsMutuallyExclusive("tick", "frame")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default from config)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "map through the latest anchor of this session")

	return cmd
}

func runMap(opts *MapOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := opts.formatter(cmd)

	a, source, err := resolveAnchor(ctx, opts)
	if err != nil {
		return fail(out, "failed to resolve anchor", err)
	}

	result := MapResult{Anchor: a.String(), Source: source}
	var text string
	if cmd.Flags().Changed("frame") {
		tick, err := a.RelativeAt(opts.Frame)
		if err != nil {
			return fail(out, "mapping failed", err)
		}
		result.Frame, result.Tick = opts.Frame, tick.Value()
		text = fmt.Sprintf("frame %s -> tick %s\n", out.Count(result.Frame), out.Count(result.Tick))
	} else {
		frame, err := a.AbsoluteAt(opts.Tick)
		if err != nil {
			return fail(out, "mapping failed", err)
		}
		result.Tick, result.Frame = opts.Tick, frame.Value()
		text = fmt.Sprintf("tick %s -> frame %s\n", out.Count(result.Tick), out.Count(result.Frame))
	}

	opts.Logger().Debug("mapped", "anchor", result.Anchor, "tick", result.Tick, "frame", result.Frame)
	return out.Success(result, text)
}

// resolveAnchor returns the journaled anchor of --session, or the
// configured start anchor.
func resolveAnchor(ctx context.Context, opts *MapOptions) (anchor.Sync, string, error) {
	cfg, err := opts.Config()
	if err != nil {
		return anchor.Sync{}, "", err
	}
	if opts.SessionID == "" {
		a, err := cfg.Session()
		return a, "config", err
	}

	path := opts.Database
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		return anchor.Sync{}, "", errors.New("--session needs --db or a configured database")
	}
	j, err := journal.Open(path)
	if err != nil {
		return anchor.Sync{}, "", err
	}
	defer j.Close()

	rec, err := j.Latest(ctx, opts.SessionID)
	if err != nil {
		return anchor.Sync{}, "", err
	}
	return rec.Anchor, opts.SessionID, nil
}
