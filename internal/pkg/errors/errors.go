package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")
	ErrNoIndex      = errors.New("no index found")
	ErrNoImage      = errors.New("no image uploaded")
	ErrNoDocuments  = errors.New("no documents uploaded")
	ErrBackend      = errors.New("ai backend failed")
)

// messageError keeps the sentinel for errors.Is and carries text meant for the user.
type messageError struct {
	err error
	msg string
}

func (e *messageError) Error() string {
	return e.msg
}

func (e *messageError) Unwrap() error {
	return e.err
}

func WithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &messageError{err: err, msg: msg}
}

// Message returns the user facing text attached with WithMessage, or "".
func Message(err error) string {
	var me *messageError
	if errors.As(err, &me) {
		return me.msg
	}
	return ""
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Backend marks err as a failed AI call while keeping err matchable.
func Backend(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrBackend, err)
}
