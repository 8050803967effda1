package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TomatoPi/5FX-Syncer/internal/player"
)

// Scenario defines a player scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tempo is the initial tempo literal, e.g. "60bpm".
	Tempo string `yaml:"tempo"`

	// SampleRate is the transport rate literal, e.g. "48kHz".
	SampleRate string `yaml:"sample_rate"`

	// TicksPerBeat defaults to 960.
	TicksPerBeat int64 `yaml:"ticks_per_beat,omitempty"`

	// BlockSize defaults to 64 frames.
	BlockSize int64 `yaml:"block_size,omitempty"`

	// Steps drive the player in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: tick_at, trace_count, final_tempo, anchor_count
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is either a run of blocks or a hard sync.
type Step struct {
	// Blocks is the number of blocks to process.
	Blocks int `yaml:"blocks,omitempty"`

	// Sync applies a hard sync.
	Sync *SyncStep `yaml:"sync,omitempty"`
}

// SyncStep is a hard sync: Tick was observed at Frame.
type SyncStep struct {
	Tick  int64  `yaml:"tick"`
	Frame int64  `yaml:"frame"`
	From  string `yaml:"from,omitempty"`

	// ExpectError marks a sync the player must reject.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "tick_at": tick Tick was emitted at Frame (and Late, if given)
	// - "trace_count": Event appears exactly Count times
	// - "final_tempo": the final anchor runs at Tempo
	// - "anchor_count": the journal holds exactly Count anchors
	Type string `yaml:"type"`

	Tick  int64 `yaml:"tick,omitempty"`
	Frame int64 `yaml:"frame,omitempty"`
	Late  *bool `yaml:"late,omitempty"`

	// Event is one of block, tick, late, sync, reject (used by trace_count).
	Event string `yaml:"event,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Tempo is a bpm literal (used by final_tempo).
	Tempo string `yaml:"tempo,omitempty"`
}

// Assertion type constants.
const (
	AssertTickAt      = "tick_at"
	AssertTraceCount  = "trace_count"
	AssertFinalTempo  = "final_tempo"
	AssertAnchorCount = "anchor_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Tempo == "" {
		return fmt.Errorf("tempo is required")
	}
	if s.SampleRate == "" {
		return fmt.Errorf("sample_rate is required")
	}
	if s.TicksPerBeat < 0 {
		return fmt.Errorf("ticks_per_beat must be positive")
	}
	if s.BlockSize < 0 {
		return fmt.Errorf("block_size must be positive")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch {
	case step.Sync != nil && step.Blocks != 0:
		return fmt.Errorf("steps[%d]: blocks and sync are mutually exclusive", index)
	case step.Sync != nil:
		if _, err := player.ParseSyncFrom(step.Sync.From); err != nil {
			return fmt.Errorf("steps[%d].sync: %w", index, err)
		}
	case step.Blocks <= 0:
		return fmt.Errorf("steps[%d]: blocks must be positive or sync must be set", index)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTickAt:
		// tick and frame may legitimately be zero
	case AssertTraceCount:
		switch a.Event {
		case EventBlock, EventTick, EventLate, EventSync, EventReject:
		default:
			return fmt.Errorf("assertions[%d]: unknown event %q", index, a.Event)
		}
	case AssertFinalTempo:
		if a.Tempo == "" {
			return fmt.Errorf("assertions[%d]: tempo is required for final_tempo", index)
		}
	case AssertAnchorCount:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
