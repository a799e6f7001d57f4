// Package common defines shared constants and sentinel errors used across
// the authd layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Registration errors.
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidInput      = errors.New("invalid input")

	// Authentication errors.
	ErrInvalidCredential      = errors.New("invalid credential")
	ErrInvalidSession         = errors.New("invalid session")
	ErrInsufficientPermission = errors.New("insufficient permission")

	// Storage transport errors.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
