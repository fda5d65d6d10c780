// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is / errors.As to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorForbidden  = errors.New("forbidden")
	ErrorValidation = errors.New("validation error")

	// Auth errors (invalid or malformed token, bad credentials).
	ErrInvalidToken       = errors.New("invalid token")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorInvalidAuthHeader = errors.New("invalid auth header format")
)

// VersionConflictError is returned when an optimistic (version-checked)
// update finds a different stored version than the writer expected.
// CurrentVersion carries the version actually stored, so the client can
// reload and retry.
type VersionConflictError struct {
	CurrentVersion int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: current version is %d", e.CurrentVersion)
}
