package financials

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed client input.
	ErrValidation = errors.New("validation error")
	// ErrRecordNotFound is returned for unknown record ids.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidState is returned when an operation does not fit the record's status.
	ErrInvalidState = errors.New("invalid record state")
	// ErrLocked is returned by a Locker when the key is already held.
	ErrLocked = errors.New("record is locked")
)

// Error carries a client-facing message for one of the sentinels above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Invalid builds an ErrValidation with a message.
func Invalid(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflict builds an ErrInvalidState with a message.
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrInvalidState, Msg: fmt.Sprintf(format, args...)}
}
