package timebase

import (
	"math"
)

// DefaultTicksPerBeat is the tick resolution (PPQN) used by BPM.
const DefaultTicksPerBeat = 960

const secondsPerMinute = 60

// Rate is the number of domain units elapsing per second, as an exact ratio.
//
// A tempo and a sample rate share this representation; they differ only in
// how their constructors build the ratio. The zero value is invalid.
type Rate struct {
	ratio Rational
}

// RateOf wraps an existing ratio. The result is valid iff r != 0.
func RateOf(r Rational) Rate {
	return Rate{ratio: r}
}

// BPM returns the tick rate of a tempo at DefaultTicksPerBeat.
func BPM(bpm float64) (Rate, error) {
	return BPMWithResolution(bpm, DefaultTicksPerBeat)
}

// BPMWithResolution returns round(bpm*ticksPerBeat) ticks per 60 seconds.
func BPMWithResolution(bpm float64, ticksPerBeat int64) (Rate, error) {
	if ticksPerBeat <= 0 {
		return Rate{}, newError(ErrCodeInvalidRate, "bpm", "ticks per beat must be positive, got %d", ticksPerBeat)
	}
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return Rate{}, newError(ErrCodeInvalidRate, "bpm", "tempo must be a positive finite number, got %v", bpm)
	}
	scaled := math.Round(bpm * float64(ticksPerBeat))
	if scaled >= math.MaxInt64 {
		return Rate{}, newError(ErrCodeOverflow, "bpm", "%v bpm at %d ticks per beat", bpm, ticksPerBeat)
	}
	if scaled < 1 {
		return Rate{}, newError(ErrCodeInvalidRate, "bpm", "%v bpm rounds to zero ticks at %d ticks per beat", bpm, ticksPerBeat)
	}
	r, err := NewRational(int64(scaled), secondsPerMinute)
	if err != nil {
		return Rate{}, err
	}
	return Rate{ratio: r}, nil
}

// Hertz returns a sample rate of n frames per second.
func Hertz(n int64) (Rate, error) {
	if n <= 0 {
		return Rate{}, newError(ErrCodeInvalidRate, "hertz", "sample rate must be positive, got %d", n)
	}
	return Rate{ratio: Integer(n)}, nil
}

// Kilohertz returns a sample rate of n*1000 frames per second.
func Kilohertz(n int64) (Rate, error) {
	if n > math.MaxInt64/1000 {
		return Rate{}, newError(ErrCodeOverflow, "kilohertz", "%d kHz", n)
	}
	return Hertz(n * 1000)
}

// MustBPM is like BPM but panics on error.
func MustBPM(bpm float64) Rate {
	return must(BPM(bpm))
}

// MustHertz is like Hertz but panics on error.
func MustHertz(n int64) Rate {
	return must(Hertz(n))
}

// MustKilohertz is like Kilohertz but panics on error.
func MustKilohertz(n int64) Rate {
	return must(Kilohertz(n))
}

func must(r Rate, err error) Rate {
	if err != nil {
		panic(err)
	}
	return r
}

// Ratio returns units per second.
func (r Rate) Ratio() Rational { return r.ratio }

// Valid reports whether the rate is non-zero.
func (r Rate) Valid() bool { return r.ratio.num != 0 }

// Cmp compares two rates by their ratio.
func (r Rate) Cmp(o Rate) int { return r.ratio.Cmp(o.ratio) }

// Equal reports whether both rates have the same ratio.
func (r Rate) Equal(o Rate) bool { return r.ratio.Equal(o.ratio) }

// Less reports whether r is slower than o.
func (r Rate) Less(o Rate) bool { return r.ratio.Less(o.ratio) }

// BeatsPerMinute reads r as a tempo at the given resolution, exactly.
func (r Rate) BeatsPerMinute(ticksPerBeat int64) (Rational, error) {
	if !r.Valid() {
		return Rational{}, newError(ErrCodeInvalidRate, "beats per minute", "zero rate")
	}
	perBeat, err := NewRational(secondsPerMinute, ticksPerBeat)
	if err != nil {
		return Rational{}, err
	}
	return r.ratio.Mul(perBeat)
}

// Tempo is BeatsPerMinute as a float64, for display. Invalid input yields 0.
func (r Rate) Tempo(ticksPerBeat int64) float64 {
	bpm, err := r.BeatsPerMinute(ticksPerBeat)
	if err != nil {
		return 0
	}
	return bpm.Float64()
}

// String returns the ratio per second, e.g. "48000/s" or "375/2/s".
func (r Rate) String() string {
	return r.ratio.String() + "/s"
}
