// Package config loads syncer settings from YAML or CUE files and turns the
// rate literals they contain into timebase values.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/TomatoPi/5FX-Syncer/internal/anchor"
	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

//go:embed schema.cue
var schemaSource string

// Config holds the settings shared by every syncer command.
type Config struct {
	// TicksPerBeat is the tempo resolution.
	TicksPerBeat int64 `yaml:"ticks_per_beat" json:"ticks_per_beat"`

	// Tempo is the initial tempo literal, e.g. "120bpm".
	Tempo string `yaml:"tempo" json:"tempo"`

	// SampleRate is the transport rate literal, e.g. "48kHz".
	SampleRate string `yaml:"sample_rate" json:"sample_rate"`

	// BlockSize is the number of frames the player advances per step.
	BlockSize int64 `yaml:"block_size" json:"block_size"`

	// Database is the anchor journal path. Empty disables journaling.
	Database string `yaml:"database,omitempty" json:"database,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TicksPerBeat: timebase.DefaultTicksPerBeat,
		Tempo:        "120bpm",
		SampleRate:   "48kHz",
		BlockSize:    64,
		LogLevel:     "info",
	}
}

// Load reads a configuration file. The format follows the extension:
// .yaml/.yml are decoded strictly, .cue is unified with the built-in
// schema. Fields absent from the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = decodeYAML(data)
	case ".cue":
		cfg, err = decodeCUE(path, data)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse YAML: %w", err)
	}
	return cfg, nil
}

func decodeCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return Config{}, fmt.Errorf("compile CUE: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validate CUE: %w", err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode CUE: %w", err)
	}
	return cfg, nil
}

// Validate checks every field and parses the rate literals.
func (c Config) Validate() error {
	if c.TicksPerBeat <= 0 {
		return fmt.Errorf("ticks_per_beat must be positive, got %d", c.TicksPerBeat)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be positive, got %d", c.BlockSize)
	}
	if _, err := c.TempoRate(); err != nil {
		return err
	}
	if _, err := c.SampleRateValue(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// TempoRate parses Tempo. Tempo must be a bpm literal.
func (c Config) TempoRate() (timebase.Rate, error) {
	rate, kind, err := ParseRate(c.Tempo, c.TicksPerBeat)
	if err != nil {
		return timebase.Rate{}, fmt.Errorf("tempo: %w", err)
	}
	if kind != KindTempo {
		return timebase.Rate{}, fmt.Errorf("tempo %q is a %s, want bpm", c.Tempo, kind)
	}
	return rate, nil
}

// SampleRateValue parses SampleRate. SampleRate must be a Hz or kHz literal.
func (c Config) SampleRateValue() (timebase.Rate, error) {
	rate, kind, err := ParseRate(c.SampleRate, c.TicksPerBeat)
	if err != nil {
		return timebase.Rate{}, fmt.Errorf("sample_rate: %w", err)
	}
	if kind != KindSampleRate {
		return timebase.Rate{}, fmt.Errorf("sample_rate %q is a %s, want Hz", c.SampleRate, kind)
	}
	return rate, nil
}

// Session returns the initial anchor: tick 0 at frame 0.
func (c Config) Session() (anchor.Sync, error) {
	tempo, err := c.TempoRate()
	if err != nil {
		return anchor.Sync{}, err
	}
	sampleRate, err := c.SampleRateValue()
	if err != nil {
		return anchor.Sync{}, err
	}
	return anchor.New(timebase.Ticks(0, tempo), timebase.Frames(0, sampleRate))
}

// SlogLevel parses LogLevel. An empty level means info.
func (c Config) SlogLevel() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
