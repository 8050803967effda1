package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TomatoPi/5FX-Syncer/internal/timebase"
)

// RateKind tells a tempo literal from a sample rate literal.
type RateKind int

const (
	KindTempo RateKind = iota
	KindSampleRate
)

func (k RateKind) String() string {
	switch k {
	case KindTempo:
		return "tempo"
	case KindSampleRate:
		return "sample rate"
	}
	return fmt.Sprintf("RateKind(%d)", int(k))
}

// ParseRate parses a rate literal:
//
//	"120bpm", "23.4375 BPM"   tempo at ticksPerBeat
//	"48kHz", "44.1khz"        sample rate, must be a whole number of Hz
//	"44100Hz", "48000"        sample rate; a bare number is Hz
//
// Non-positive and malformed values fail with timebase.ErrInvalidRate.
func ParseRate(s string, ticksPerBeat int64) (timebase.Rate, RateKind, error) {
	lit := strings.ToLower(strings.TrimSpace(s))
	number, unit := splitUnit(lit)

	switch unit {
	case "bpm":
		bpm, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return timebase.Rate{}, KindTempo, invalidRate(s, err)
		}
		rate, err := timebase.BPMWithResolution(bpm, ticksPerBeat)
		if err != nil {
			return timebase.Rate{}, KindTempo, fmt.Errorf("rate %q: %w", s, err)
		}
		return rate, KindTempo, nil
	case "khz":
		hz, err := parseMilli(number)
		if err != nil {
			return timebase.Rate{}, KindSampleRate, invalidRate(s, err)
		}
		rate, err := timebase.Hertz(hz)
		if err != nil {
			return timebase.Rate{}, KindSampleRate, fmt.Errorf("rate %q: %w", s, err)
		}
		return rate, KindSampleRate, nil
	case "hz", "":
		hz, err := strconv.ParseInt(number, 10, 64)
		if err != nil {
			return timebase.Rate{}, KindSampleRate, invalidRate(s, err)
		}
		rate, err := timebase.Hertz(hz)
		if err != nil {
			return timebase.Rate{}, KindSampleRate, fmt.Errorf("rate %q: %w", s, err)
		}
		return rate, KindSampleRate, nil
	}
	return timebase.Rate{}, KindSampleRate, invalidRate(s, fmt.Errorf("unknown unit %q", unit))
}

func splitUnit(lit string) (number, unit string) {
	i := strings.IndexFunc(lit, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-' && r != '+'
	})
	if i < 0 {
		return lit, ""
	}
	return strings.TrimSpace(lit[:i]), strings.TrimSpace(lit[i:])
}

// parseMilli parses a decimal with at most three fractional digits and
// returns it times 1000.
func parseMilli(number string) (int64, error) {
	whole, frac, _ := strings.Cut(number, ".")
	if len(frac) > 3 {
		return 0, fmt.Errorf("%s kHz is not a whole number of Hz", number)
	}
	frac += strings.Repeat("0", 3-len(frac))
	v, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func invalidRate(s string, cause error) error {
	return fmt.Errorf("rate %q: %w: %v", s, timebase.ErrInvalidRate, cause)
}
