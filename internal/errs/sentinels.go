// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication. Deliberately carries no
	// detail: wrong secret, revoked and expired all map here.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an ownership mismatch on an otherwise valid request.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates malformed caller input.
	ErrValidation = errors.New("validation")

	// ErrAlreadyRevoked indicates a repeated revoke of the same token.
	ErrAlreadyRevoked = errors.New("already revoked")

	// ErrNotConfigured indicates a missing deployment secret (signing or
	// encryption key). Requests that need the secret fail closed.
	ErrNotConfigured = errors.New("not configured")
)
