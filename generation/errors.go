package generation

import (
	"errors"
	"fmt"

	"github.com/vitwit/x402gen/utils"
)

// Error kinds. Match with errors.Is.
var (
	ErrInput          = errors.New("invalid input")
	ErrSubmission     = errors.New("submission failed")
	ErrRemoteJob      = errors.New("generation failed")
	ErrPollingTimeout = errors.New("polling timed out")
	ErrTransport      = errors.New("transport error")
)

// Error is returned by every Client operation. Kind is one of the sentinels
// above; Err, when set, is the underlying cause.
type Error struct {
	Kind    error
	Message string
	TaskID  string
	Status  int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Body != "" {
		msg += ": " + utils.Truncate(e.Body, 512)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func inputError(format string, args ...any) *Error {
	return &Error{Kind: ErrInput, Message: fmt.Sprintf(format, args...)}
}

func transportError(taskID, op string, err error) *Error {
	return &Error{Kind: ErrTransport, TaskID: taskID, Message: op, Err: err}
}
