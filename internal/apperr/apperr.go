// Package apperr defines the error taxonomy shared by handlers and services.
package apperr

import (
	"errors"

	"gorm.io/gorm"
)

// Kind classifies an error for the response boundary.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindNotFound
	KindConflict
	KindGateway
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindGateway:
		return "gateway"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// PersistenceMessage is what callers see instead of raw store failures.
const PersistenceMessage = "Something went wrong while processing your request. Please try again."

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error { return newError(KindValidation, msg, nil) }

func Auth(msg string) *Error { return newError(KindAuth, msg, nil) }

func NotFound(msg string) *Error { return newError(KindNotFound, msg, nil) }

func Conflict(msg string) *Error { return newError(KindConflict, msg, nil) }

// Gateway wraps a payment provider failure. msg is shown to the caller.
func Gateway(msg string, err error) *Error { return newError(KindGateway, msg, err) }

// Persistence wraps a store failure. The cause is kept for logging only.
func Persistence(err error) *Error { return newError(KindPersistence, PersistenceMessage, err) }

// From classifies err. Already classified errors are returned unchanged.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return newError(KindNotFound, "record not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return newError(KindConflict, "record already exists", err)
	}

	return Persistence(err)
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return From(err).Kind == kind
}
