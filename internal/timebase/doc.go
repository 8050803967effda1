// Package timebase provides exact rational time arithmetic for the syncer.
//
// Two clock domains are modelled: musical time counted in ticks at a tempo,
// and transport time counted in frames at a sample rate. Both are expressed
// as a Quantity, an integer count paired with the Rate (units per second)
// that defines its unit size. The unit is a type parameter, so tick and frame
// quantities cannot be mixed without going through Rebase.
//
// Key constraints:
//   - No floating point in arithmetic. Float input is accepted only by the
//     BPM constructors, which round once to an exact ratio.
//   - Products of two int64 terms are computed in 128 bits (math/bits), so
//     72 hours of frames at 192 kHz never overflow an intermediate.
//   - Integer division truncates toward zero. RebaseResidual reports the
//     dropped remainder for callers that need to accumulate it.
//   - Every operation is pure and allocation-free. Failures are returned as
//     *Error values carrying an ErrorCode; nothing is clamped.
//
// This package imports nothing internal and performs no I/O.
package timebase
