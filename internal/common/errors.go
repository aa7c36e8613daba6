// Package common defines shared constants and sentinel errors used across
// the client and server layers. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid, malformed, or wrong-class token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Password-reset errors. Unknown, expired, and already-used tokens all
	// map to this one value so callers cannot tell them apart.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)
