package timebase

import (
	"errors"
	"fmt"
)

// Error represents a detected violation of a timebase invariant.
//
// Errors carry a Code for programmatic handling and the name of the
// operation that failed. Two errors match under errors.Is when their codes
// are equal, so callers can test against the Err* sentinels:
//
//	if errors.Is(err, timebase.ErrOverflow) { ... }
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the failing operation (e.g. "rebase", "derive rate").
	Op string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes timebase errors.
type ErrorCode string

const (
	// ErrCodeInvalidRate indicates a zero or malformed rate.
	ErrCodeInvalidRate ErrorCode = "INVALID_RATE"

	// ErrCodeInvalidOperand indicates a zero or invalid quantity was used
	// where a valid one is required.
	ErrCodeInvalidOperand ErrorCode = "INVALID_OPERAND"

	// ErrCodeDivideByZero indicates the inverse of a zero rational.
	ErrCodeDivideByZero ErrorCode = "DIVIDE_BY_ZERO"

	// ErrCodeOverflow indicates a result that does not fit in int64 even
	// after double-width intermediate arithmetic.
	ErrCodeOverflow ErrorCode = "OVERFLOW"
)

// Sentinels for use with errors.Is.
var (
	ErrInvalidRate    = &Error{Code: ErrCodeInvalidRate, Message: "invalid rate"}
	ErrInvalidOperand = &Error{Code: ErrCodeInvalidOperand, Message: "invalid operand"}
	ErrDivideByZero   = &Error{Code: ErrCodeDivideByZero, Message: "divide by zero"}
	ErrOverflow       = &Error{Code: ErrCodeOverflow, Message: "integer overflow"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func newError(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsInvalidRate returns true if err is an invalid rate error.
// Uses errors.As to handle wrapped errors.
func IsInvalidRate(err error) bool {
	return hasCode(err, ErrCodeInvalidRate)
}

// IsInvalidOperand returns true if err is an invalid operand error.
func IsInvalidOperand(err error) bool {
	return hasCode(err, ErrCodeInvalidOperand)
}

// IsOverflow returns true if err is an overflow error.
func IsOverflow(err error) bool {
	return hasCode(err, ErrCodeOverflow)
}

// IsDivideByZero returns true if err is a divide by zero error.
func IsDivideByZero(err error) bool {
	return hasCode(err, ErrCodeDivideByZero)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
