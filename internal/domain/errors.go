package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the settlement paths. Handlers map these onto HTTP
// status codes; everything unrecognized is treated as an infrastructure
// failure.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSessionNotFound     = errors.New("no active game session")
	ErrCacheMiss           = errors.New("cache miss")

	ErrInvalidSignature   = errors.New("invalid signature")
	ErrStaleTimestamp     = errors.New("timestamp outside allowed window")
	ErrIPNotAllowed       = errors.New("source ip not allowed")
	ErrSecretUnconfigured = errors.New("provider secret not configured")
)

// ValidationError reports a malformed or business-rule-violating request
// field. Surfaced verbatim to the caller with a 400.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// DependencyError wraps a failure of an external collaborator (ledger,
// cache, rate feed). Mutations fail whole; reads may degrade.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

func NewDependencyError(dependency string, err error) *DependencyError {
	return &DependencyError{Dependency: dependency, Err: err}
}
