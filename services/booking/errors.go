package booking

import (
	"errors"
	"fmt"

	"roomkeeper/database/repository"
)

// ErrorKind classifies engine failures for callers.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindInvalidRoomState  ErrorKind = "invalid_room_state"
	KindConflict          ErrorKind = "conflict"
	// KindUnavailable is the only retryable kind.
	KindUnavailable ErrorKind = "store_unavailable"
)

// EngineError is returned by every engine operation that fails for a reason the caller can act on.
type EngineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed later unchanged.
func (e *EngineError) Retryable() bool {
	return e.Kind == KindUnavailable
}

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

func notFoundError(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args...)
}

func invalidTransition(format string, args ...interface{}) error {
	return newError(KindInvalidTransition, format, args...)
}

func invalidRoomState(format string, args ...interface{}) error {
	return newError(KindInvalidRoomState, format, args...)
}

func conflictError(format string, args ...interface{}) error {
	return newError(KindConflict, format, args...)
}

// KindOf returns the kind of err, or "" for unclassified internal errors.
func KindOf(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// IsKind reports whether err is an EngineError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// storeError turns a repository or guard failure into an EngineError.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return err
	}
	kind := ErrorKind("")
	switch {
	case errors.Is(err, repository.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, repository.ErrVersionConflict), errors.Is(err, repository.ErrStateMismatch):
		kind = KindConflict
	case errors.Is(err, repository.ErrUnavailable), errors.Is(err, ErrHoldTimeout), errors.Is(err, ErrLockUnavailable):
		kind = KindUnavailable
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
	return &EngineError{Kind: kind, Message: op, Err: err}
}
