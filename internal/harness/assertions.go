package harness

import (
	"context"
	"fmt"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Index   int
	Type    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %d (%s): %s", e.Index, e.Type, e.Message)
}

// evaluate checks every assertion and returns one message per failure.
func (h *Harness) evaluate(ctx context.Context, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTickAt:
			err = assertTickAt(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalTempo:
			err = h.assertFinalTempo(result, a)
		case AssertAnchorCount:
			err = h.assertAnchorCount(ctx, result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, (&AssertionError{Index: i, Type: a.Type, Message: err.Error()}).Error())
		}
	}
	return errs
}

func assertTickAt(trace []TraceEvent, a Assertion) error {
	for _, e := range trace {
		if e.Type != EventTick || e.Tick != a.Tick {
			continue
		}
		if e.Frame != a.Frame {
			return fmt.Errorf("tick %d at frame %d, expected %d", a.Tick, e.Frame, a.Frame)
		}
		if a.Late != nil && e.Late != *a.Late {
			return fmt.Errorf("tick %d late=%t, expected %t", a.Tick, e.Late, *a.Late)
		}
		return nil
	}
	return fmt.Errorf("tick %d never emitted", a.Tick)
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, e := range trace {
		switch {
		case a.Event == EventLate && e.Type == EventTick && e.Late:
			count++
		case e.Type == a.Event:
			count++
		}
	}
	if count != a.Count {
		return fmt.Errorf("%d %s events, expected %d", count, a.Event, a.Count)
	}
	return nil
}

func (h *Harness) assertFinalTempo(result *Result, a Assertion) error {
	want, err := h.finalTempo(a.Tempo)
	if err != nil {
		return err
	}
	got := result.Final.Relative().Rate()
	if !got.Equal(want) {
		return fmt.Errorf("final tempo %s (%g bpm), expected %s", got, got.Tempo(h.tpb), want)
	}
	return nil
}

func (h *Harness) assertAnchorCount(ctx context.Context, result *Result, a Assertion) error {
	records, err := h.journal.Anchors(ctx, result.SessionID)
	if err != nil {
		return err
	}
	if len(records) != a.Count {
		return fmt.Errorf("%d journaled anchors, expected %d", len(records), a.Count)
	}
	return nil
}
