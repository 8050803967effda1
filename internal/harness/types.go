package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
)

// Trace event types.
const (
	EventBlock  = "block"
	EventTick   = "tick"
	EventLate   = "late" // counts late ticks; never an event type itself
	EventSync   = "sync"
	EventReject = "reject"
)

// TraceEvent is one line of a scenario trace.
type TraceEvent struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq,omitempty"` // zero for rejected syncs

	// block
	Index int64 `json:"index,omitempty"`
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`

	// tick and sync
	Tick  int64 `json:"tick,omitempty"`
	Frame int64 `json:"frame,omitempty"`
	Late  bool  `json:"late,omitempty"`

	// sync
	From string  `json:"from,omitempty"`
	Rate string  `json:"rate,omitempty"`
	BPM  float64 `json:"bpm,omitempty"`
}

// String renders the event as one golden trace line.
func (e TraceEvent) String() string {
	seq := "----"
	if e.Seq != 0 {
		seq = fmt.Sprintf("%04d", e.Seq)
	}
	switch e.Type {
	case EventBlock:
		return fmt.Sprintf("%s block %d [%d, %d)", seq, e.Index, e.Start, e.End)
	case EventTick:
		line := fmt.Sprintf("%s tick %d @ %d", seq, e.Tick, e.Frame)
		if e.Late {
			line += " late"
		}
		return line
	case EventSync:
		return fmt.Sprintf("%s sync tick %d @ %d from %s rate %s bpm %s",
			seq, e.Tick, e.Frame, e.From, e.Rate, strconv.FormatFloat(e.BPM, 'f', -1, 64))
	case EventReject:
		return fmt.Sprintf("%s sync tick %d @ %d from %s rejected", seq, e.Tick, e.Frame, e.From)
	}
	return fmt.Sprintf("%s %s", seq, e.Type)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every block, tick and sync in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the anchor in effect when the scenario ended.
	Final anchor.Sync `json:"-"`

	// SessionID is the journal session the run was recorded under.
	SessionID string `json:"session_id"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Text renders the trace, one event per line.
func (r *Result) Text() string {
	var b strings.Builder
	for _, e := range r.Trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
