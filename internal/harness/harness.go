package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
	"github.com/TomatoPi/5FX-Syncer/internal/config"
	"github.com/TomatoPi/5FX-Syncer/internal/journal"
	"github.com/TomatoPi/5FX-Syncer/internal/player"
	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// Harness is the scenario execution engine. Each run owns a fresh player
// and a fresh journal.
type Harness struct {
	journal *journal.Journal
	player  *player.Player
	tpb     int64
}

// Option configures a run.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	journal *journal.Journal
}

// WithLogger routes player logs to l. By default they are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithJournal records the run into j instead of a private in-memory
// journal. The caller keeps ownership of j.
func WithJournal(j *journal.Journal) Option {
	return func(o *options) { o.journal = j }
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Parse the scenario rates and build the start anchor
// 2. Open a journal session and record the start anchor
// 3. Execute the steps against a fresh player
// 4. Replay the journal and check the anchor chain is reproducible
// 5. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	ctx := context.Background()

	cfg := config.Default()
	cfg.Tempo = scenario.Tempo
	cfg.SampleRate = scenario.SampleRate
	if scenario.TicksPerBeat > 0 {
		cfg.TicksPerBeat = scenario.TicksPerBeat
	}
	if scenario.BlockSize > 0 {
		cfg.BlockSize = scenario.BlockSize
	}
	start, err := cfg.Session()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	j := o.journal
	if j == nil {
		j, err = journal.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
		}
		defer j.Close()
	}

	session, err := j.CreateSession(ctx, journal.Session{
		Name:         scenario.Name,
		TicksPerBeat: cfg.TicksPerBeat,
		SampleRate:   start.Absolute().Rate(),
		BlockSize:    cfg.BlockSize,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	rec := journal.NewRecorder(j, session)
	if err := rec.Start(ctx, start); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	p, err := player.New(anchor.NewCell(start),
		player.WithBlockSize(cfg.BlockSize),
		player.WithTicksPerBeat(cfg.TicksPerBeat),
		player.WithLogger(o.logger),
		player.WithObserver(rec),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	h := &Harness{
		journal: j,
		player:  p,
		tpb:     cfg.TicksPerBeat,
	}

	result := NewResult()
	result.SessionID = session.ID
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	result.Final = p.Anchor()

	replay, err := j.Replay(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to replay journal: %w", err)
	}
	for _, m := range replay.Mismatches {
		result.AddError(fmt.Sprintf("journal replay: anchor seq %d not reproducible", m.Seq))
	}

	for _, msg := range h.evaluate(ctx, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSteps runs each step, stopping at the first unexpected failure.
// Failures caused by the scenario are recorded in result; infrastructure
// failures are returned.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		if step.Sync == nil {
			blocks, err := h.player.Run(ctx, step.Blocks)
			for _, b := range blocks {
				result.Trace = append(result.Trace, blockEvents(b)...)
			}
			if err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
			continue
		}

		s := step.Sync
		from, err := player.ParseSyncFrom(s.From)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		e, err := h.player.HardSync(ctx, s.Tick, s.Frame, from)
		switch {
		case err != nil && s.ExpectError:
			result.Trace = append(result.Trace, TraceEvent{
				Type: EventReject, Tick: s.Tick, Frame: s.Frame, From: from.String(),
			})
		case err != nil:
			result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
			return nil
		case s.ExpectError:
			result.AddError(fmt.Sprintf("steps[%d]: sync tick %d @ %d was accepted, expected rejection", i, s.Tick, s.Frame))
			result.Trace = append(result.Trace, syncEvent(e, h.tpb))
		default:
			result.Trace = append(result.Trace, syncEvent(e, h.tpb))
		}
	}
	return nil
}

func blockEvents(b player.Block) []TraceEvent {
	events := make([]TraceEvent, 0, len(b.Ticks)+1)
	events = append(events, TraceEvent{
		Type:  EventBlock,
		Seq:   b.Seq,
		Index: b.Index,
		Start: b.Start,
		End:   b.End,
	})
	for _, tk := range b.Ticks {
		events = append(events, TraceEvent{
			Type:  EventTick,
			Seq:   tk.Seq,
			Tick:  tk.Tick,
			Frame: tk.Frame,
			Late:  tk.Late,
		})
	}
	return events
}

func syncEvent(e player.SyncEvent, tpb int64) TraceEvent {
	rate := e.Anchor.Relative().Rate()
	return TraceEvent{
		Type:  EventSync,
		Seq:   e.Seq,
		Tick:  e.Tick,
		Frame: e.Frame,
		From:  e.From.String(),
		Rate:  rate.String(),
		BPM:   rate.Tempo(tpb),
	}
}

// finalTempo parses want at the scenario's resolution.
func (h *Harness) finalTempo(want string) (timebase.Rate, error) {
	rate, kind, err := config.ParseRate(want, h.tpb)
	if err != nil {
		return timebase.Rate{}, err
	}
	if kind != config.KindTempo {
		return timebase.Rate{}, fmt.Errorf("%q is a %s, want bpm", want, kind)
	}
	return rate, nil
}
