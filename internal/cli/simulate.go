package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TomatoPi/5FX-Syncer/internal/harness"
	"github.com/TomatoPi/5FX-Syncer/internal/journal"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Database string
	Quiet    bool
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run a player scenario",
		Long: `Drive a block player through a YAML scenario of blocks and hard syncs,
print the resulting trace and check the scenario assertions.

With --db the run is journaled into that database and can be replayed
later; otherwise an in-memory journal is used.

Exit codes:
  0 - All assertions passed
  1 - Scenario failed (assertion or replay mismatch)
  2 - Command error (file not found, invalid scenario)

Examples:
  syncer simulate scenarios/hard_sync.yaml
  syncer simulate scenarios/hard_sync.yaml --db ./syncer.db
  syncer simulate scenarios/hard_sync.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal the run into this SQLite database")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "omit the trace from text output")

	return cmd
}

func runSimulate(opts *SimulateOptions, cmd *cobra.Command, path string) error {
	out := opts.formatter(cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return fail(out, "failed to load scenario", err)
	}

	runOpts := []harness.Option{harness.WithLogger(opts.Logger())}
	if opts.Database != "" {
		j, err := journal.Open(opts.Database)
		if err != nil {
			return fail(out, "failed to open database", err)
		}
		defer j.Close()
		runOpts = append(runOpts, harness.WithJournal(j))
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return fail(out, "failed to run scenario", err)
	}

	var text strings.Builder
	if !opts.Quiet {
		text.WriteString(result.Text())
	}
	if result.Pass {
		fmt.Fprintf(&text, "PASS %s (session %s)\n", scenario.Name, result.SessionID)
	} else {
		fmt.Fprintf(&text, "FAIL %s (session %s)\n", scenario.Name, result.SessionID)
		for _, e := range result.Errors {
			fmt.Fprintf(&text, "  - %s\n", e)
		}
	}

	if err := out.Success(result, text.String()); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}
