package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrConsistency = errors.New("ledger inconsistent")
)

// Error is a typed ledger failure. Kind is one of the Err* sentinels, so
// callers branch with errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func expiredf(format string, args ...any) error {
	return &Error{Kind: ErrExpired, Msg: fmt.Sprintf(format, args...)}
}

func consistencyf(format string, args ...any) error {
	return &Error{Kind: ErrConsistency, Msg: fmt.Sprintf(format, args...)}
}
