package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthzReason identifies the first access rule a caller violated.
type AuthzReason int

const (
	Unauthenticated AuthzReason = iota
	UnverifiedIdentity
	RoleMismatch
	NotOwner
)

func (r AuthzReason) String() string {
	switch r {
	case Unauthenticated:
		return "not authenticated"
	case UnverifiedIdentity:
		return "email address not verified"
	case RoleMismatch:
		return "operation not allowed for this role"
	case NotOwner:
		return "not the owner of this resource"
	}
	return "permission denied"
}

// AuthorizationError denies an operation. Never retried.
type AuthorizationError struct {
	Reason AuthzReason
}

func NewAuthorizationError(reason AuthzReason) error {
	return &AuthorizationError{Reason: reason}
}

func (err AuthorizationError) Error() string { return err.Reason.String() }

// ConflictError reports a lost race or duplicate on a natural key
// (course full, already enrolled, already graded). Safe to retry after re-reading state.
type ConflictError struct {
	Err error
}

func NewConflictError(err error) error { return &ConflictError{Err: err} }

func (err ConflictError) Error() string { return err.Err.Error() }

// StateError rejects an operation the current record state does not allow
// (not enrolled, not submitted, past due, course inactive). Not retried.
type StateError struct {
	Err error
}

func NewStateError(err error) error { return &StateError{Err: err} }

func (err StateError) Error() string { return err.Err.Error() }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
