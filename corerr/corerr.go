// Package corerr defines the closed error-code enumeration shared by every
// phase of the engine, plus a small typed-error wrapper modeled on the
// idiom the rest of the codebase uses for fmt.Errorf-based wrapping.
package corerr

import "fmt"

// Code is the closed set of error codes the engine can report. It is not
// meant to grow casually, so callers may safely switch over it.
type Code int

const (
	Success Code = iota
	NullPointer
	InvalidParameter
	OutOfMemory
	CapacityExceeded
	KeyTooLong
	NameTooLong
	NotFound
	Overflow
	EventExecutionFailed
	MiddlewareFailed
	Reentrancy
	MemoryLimitExceeded
	InvalidFunctionPointer
	TimeConversion
	SignalInterrupted
)

var codeNames = [...]string{
	"Success",
	"NullPointer",
	"InvalidParameter",
	"OutOfMemory",
	"CapacityExceeded",
	"KeyTooLong",
	"NameTooLong",
	"NotFound",
	"Overflow",
	"EventExecutionFailed",
	"MiddlewareFailed",
	"Reentrancy",
	"MemoryLimitExceeded",
	"InvalidFunctionPointer",
	"TimeConversion",
	"SignalInterrupted",
}

// String returns the stable textual name for code, matching
// event_chain_error_string in the source library.
func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "Unknown error"
}

// DetailLevel controls how much information a CoreError's Error() method
// exposes; Minimal is used by hosts that don't want to leak message text
// (e.g. across a trust boundary) but still want a code to branch on.
type DetailLevel int

const (
	DetailFull DetailLevel = iota
	DetailMinimal
)

// CoreError is the engine's error type: a stable code plus a human message.
// It implements the standard error interface and supports unwrapping so
// callers can still get at an underlying cause with errors.Is/As.
type CoreError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *CoreError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Message
}

func (e *CoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New builds a CoreError carrying the given code and message, formatted
// under detail to match the result detail-level contract used throughout
// the engine.
func New(code Code, detail DetailLevel, message string) *CoreError {
	if detail == DetailMinimal {
		return &CoreError{Code: code, Message: fmt.Sprintf("Error code: %d", code)}
	}
	if message == "" {
		message = code.String()
	}
	return &CoreError{Code: code, Message: message}
}

// Wrap attaches code and a formatted message to cause, the way the rest of
// the codebase wraps lower-level errors with fmt.Errorf("...: %w", err).
func Wrap(code Code, cause error, format string, args ...any) *CoreError {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, cause.Error())
	}
	return &CoreError{Code: code, Message: msg, Cause: cause}
}
