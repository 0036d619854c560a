package calibration

import "fmt"

// ErrorCode categorizes calibration failures.
type ErrorCode string

const (
	// ErrConfig indicates an invalid or inconsistent configuration. Fatal
	// to module initialization; the command is never registered.
	ErrConfig ErrorCode = "CONFIG"

	// ErrNotHomed indicates one or more axes were unhomed at invocation.
	ErrNotHomed ErrorCode = "NOT_HOMED"

	// ErrAlignmentNotApplied indicates the required leveling pass has not run.
	ErrAlignmentNotApplied ErrorCode = "ALIGNMENT_NOT_APPLIED"

	// ErrOutOfBounds indicates a computed or measured value outside the
	// configured envelope.
	ErrOutOfBounds ErrorCode = "OUT_OF_BOUNDS"

	// ErrProbe indicates a probing operation failed.
	ErrProbe ErrorCode = "PROBE"

	// ErrMotion indicates a move or offset command failed.
	ErrMotion ErrorCode = "MOTION"
)

// Error is the calibration module's error type.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(err error, code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err is a calibration Error with the given code.
func Is(err error, code ErrorCode) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}

// BoundsError reports which bound a value violated.
type BoundsError struct {
	What  string  // "offset" or "endstop"
	Value float64 // computed or measured value
	Limit float64 // the violated bound
	Low   bool    // true if the minimum was violated
}

func (e *BoundsError) Error() string {
	side := "maximum"
	if e.Low {
		side = "minimum"
	}
	return fmt.Sprintf("AutoOffsetZ: %s %.6f is outside the configured %s of %.6f",
		e.What, e.Value, side, e.Limit)
}

func boundsError(what string, value, limit float64, low bool) *Error {
	be := &BoundsError{What: what, Value: value, Limit: limit, Low: low}
	return &Error{Code: ErrOutOfBounds, Message: be.Error(), Err: be}
}
