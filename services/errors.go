package services

import (
	"errors"
	"fmt"

	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
)

var (
	ErrNotFound           = database.ErrNotFound
	ErrConflict           = database.ErrConflict
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRateLimited        = errors.New("too many requests")
)

// ValidationError reports a missing or malformed field in a request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Error gives one of the sentinel errors above a message fit for clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}
