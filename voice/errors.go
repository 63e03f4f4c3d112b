package voice

import "fmt"

// ErrorType classifies session failures so callers can decide whether to
// surface, retry or ignore them.
type ErrorType string

const (
	ErrorTypeConnection ErrorType = "connection" // could not establish the session
	ErrorTypeProvider   ErrorType = "provider"   // the provider reported a failure mid-session
	ErrorTypeClosed     ErrorType = "closed"     // operation on an ended session
)

// Error is a classified voice-session error.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewConnectionError wraps a failed connection attempt.
func NewConnectionError(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeConnection, Message: msg, Cause: cause}
}

// NewProviderError wraps a mid-session provider failure.
func NewProviderError(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeProvider, Message: msg, Cause: cause}
}

// NewClosedError marks an operation attempted on an ended session.
func NewClosedError(msg string) *Error {
	return &Error{Type: ErrorTypeClosed, Message: msg}
}

// ErrUnsupported is returned by optional Client capabilities the provider
// does not implement, such as server-side volume control.
var ErrUnsupported = &Error{Type: ErrorTypeProvider, Message: "operation not supported by provider"}
