package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TomatoPi/5FX-Syncer/internal/config"
	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	To string
}

// ConvertResult is the JSON payload of the convert command.
type ConvertResult struct {
	Input    string `json:"input"`
	From     string `json:"from"`
	To       string `json:"to"`
	Value    int64  `json:"value"`
	Unit     string `json:"unit"`
	Residual string `json:"residual"`
	Exact    bool   `json:"exact"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <value@rate>",
		Short: "Convert a quantity to another rate",
		Long: `Convert a tick or frame count to another tempo or sample rate.

The source is written value@rate. A rate ending in bpm makes the value
ticks, any other rate makes it frames. The result truncates toward zero
and the truncated fraction is reported as the residual. A negative source
must follow -- so it is not read as a flag.

Exit codes:
  0 - Conversion succeeded
  2 - Command error (bad literal, overflow)

Examples:
  syncer convert 960@60bpm --to 48kHz
  syncer convert 48000@48kHz --to 120bpm
  syncer convert 1000@48kHz --to 44.1kHz --format json
  syncer convert --to 44.1kHz -- -3@48kHz`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "target rate, e.g. 48kHz or 120bpm (required)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runConvert(opts *ConvertOptions, cmd *cobra.Command, input string) error {
	out := opts.formatter(cmd)
	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	value, from, fromKind, err := parseQuantity(input, cfg.TicksPerBeat)
	if err != nil {
		return fail(out, "invalid quantity", err)
	}
	to, toKind, err := config.ParseRate(opts.To, cfg.TicksPerBeat)
	if err != nil {
		return fail(out, "invalid target rate", err)
	}

	converted, residual, err := convertValue(value, from, fromKind, to, toKind)
	if err != nil {
		return fail(out, "conversion failed", err)
	}

	opts.Logger().Debug("converted",
		"input", input,
		"from", from,
		"to", to,
		"value", converted,
		"residual", residual)

	result := ConvertResult{
		Input:    input,
		From:     from.String(),
		To:       to.String(),
		Value:    converted,
		Unit:     unitLabel(toKind),
		Residual: residual.String(),
		Exact:    residual.IsZero(),
	}
	text := fmt.Sprintf("%s %s\n", out.Count(converted), result.Unit)
	if !result.Exact {
		text += fmt.Sprintf("residual: %s %s truncated\n", result.Residual, result.Unit)
	}
	return out.Success(result, text)
}

// parseQuantity splits a value@rate literal.
func parseQuantity(s string, ticksPerBeat int64) (int64, timebase.Rate, config.RateKind, error) {
	number, rate, ok := strings.Cut(s, "@")
	if !ok {
		return 0, timebase.Rate{}, 0, fmt.Errorf("%q: want value@rate", s)
	}
	value, err := strconv.ParseInt(strings.TrimSpace(number), 10, 64)
	if err != nil {
		return 0, timebase.Rate{}, 0, fmt.Errorf("%q: %w", s, err)
	}
	r, kind, err := config.ParseRate(rate, ticksPerBeat)
	if err != nil {
		return 0, timebase.Rate{}, 0, err
	}
	return value, r, kind, nil
}

// convertValue rebases value across the four tick/frame combinations.
func convertValue(value int64, from timebase.Rate, fromKind config.RateKind, to timebase.Rate, toKind config.RateKind) (int64, timebase.Rational, error) {
	switch {
	case fromKind == config.KindTempo && toKind == config.KindTempo:
		q, res, err := timebase.RebaseResidual[timebase.Tick](timebase.Ticks(value, from), to)
		return q.Value(), res, err
	case fromKind == config.KindTempo:
		q, res, err := timebase.RebaseResidual[timebase.Frame](timebase.Ticks(value, from), to)
		return q.Value(), res, err
	case toKind == config.KindTempo:
		q, res, err := timebase.RebaseResidual[timebase.Tick](timebase.Frames(value, from), to)
		return q.Value(), res, err
	default:
		q, res, err := timebase.RebaseResidual[timebase.Frame](timebase.Frames(value, from), to)
		return q.Value(), res, err
	}
}

func unitLabel(kind config.RateKind) string {
	if kind == config.KindTempo {
		return "ticks"
	}
	return "frames"
}

// fail reports err through the formatter and returns a command error.
// In JSON mode the error is already on stdout, so the message is not
// repeated.
func fail(out *OutputFormatter, message string, err error) error {
	_ = out.Error(ErrorCode(err), fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitCommandError, message, err)
}
