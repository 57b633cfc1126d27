package usecase

import "fmt"

type ErrorCode string

const (
	// Submission rejected before any state change.
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorBusy         ErrorCode = "BUSY"

	// Dispatch failures. Logged and recorded, never rendered as a message.
	ErrorRequest   ErrorCode = "REQUEST_ERROR"
	ErrorTransport ErrorCode = "TRANSPORT_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsValidation reports whether the submission was refused without touching
// the conversation.
func (e *Error) IsValidation() bool {
	return e != nil && (e.Code == ErrorInvalidInput || e.Code == ErrorBusy)
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
