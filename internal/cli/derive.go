package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TomatoPi/5FX-Syncer/internal/config"
	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// DeriveOptions holds flags for the derive command.
type DeriveOptions struct {
	*RootOptions
	Frames     int64
	SampleRate string
	Ticks      int64
}

// DeriveResult is the JSON payload of the derive command.
type DeriveResult struct {
	Frames     int64   `json:"frames"`
	SampleRate string  `json:"sample_rate"`
	Ticks      int64   `json:"ticks"`
	Rate       string  `json:"rate"`
	BPM        string  `json:"bpm"`
	Tempo      float64 `json:"tempo"`
}

// NewDeriveCommand creates the derive command.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeriveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the tempo of ticks spanning a frame count",
		Long: `Derive the exact tick rate at which --ticks ticks span --frames frames.

Exit codes:
  0 - A tempo was derived
  2 - Command error (zero or opposite-sign operands)

Examples:
  syncer derive --frames 24000
  syncer derive --frames 2048 --sample-rate 48kHz --ticks 960`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerive(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Frames, "frames", 0, "elapsed frames (required)")
	_ = cmd.MarkFlagRequired("frames")
	cmd.Flags().StringVar(&opts.SampleRate, "sample-rate", "", "sample rate of --frames (default from config)")
	cmd.Flags().Int64Var(&opts.Ticks, "ticks", 1, "ticks elapsed over --frames")

	return cmd
}

func runDerive(opts *DeriveOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	literal := opts.SampleRate
	if literal == "" {
		literal = cfg.SampleRate
	}
	sampleRate, kind, err := config.ParseRate(literal, cfg.TicksPerBeat)
	if err != nil {
		return fail(out, "invalid sample rate", err)
	}
	if kind != config.KindSampleRate {
		return fail(out, "invalid sample rate",
			fmt.Errorf("%q is a %s: %w", literal, kind, timebase.ErrInvalidRate))
	}

	rate, err := timebase.DeriveRate(
		timebase.Frames(opts.Frames, sampleRate),
		timebase.Ticks(opts.Ticks, sampleRate),
	)
	if err != nil {
		return fail(out, "cannot derive tempo", err)
	}
	bpm, err := rate.BeatsPerMinute(cfg.TicksPerBeat)
	if err != nil {
		return fail(out, "cannot derive tempo", err)
	}

	result := DeriveResult{
		Frames:     opts.Frames,
		SampleRate: sampleRate.String(),
		Ticks:      opts.Ticks,
		Rate:       rate.String(),
		BPM:        bpm.String(),
		Tempo:      bpm.Float64(),
	}
	text := fmt.Sprintf("%s bpm (%s ticks/s at %d ticks per beat)\n",
		formatTempo(result.Tempo), rate.Ratio(), cfg.TicksPerBeat)
	return out.Success(result, text)
}

// formatTempo prints a tempo without trailing zeros.
func formatTempo(bpm float64) string {
	return fmt.Sprintf("%g", bpm)
}
