// Package common defines the sentinel errors and small helpers shared by the
// identity core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Input errors. Always caller-fixable.
	ErrorInvalidArgument = errors.New("invalid argument")

	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrorStoreUnavailable wraps any failure reported by the backing store.
	ErrorStoreUnavailable = errors.New("store unavailable")

	// Credential mismatch. Returned both for unknown principals and wrong
	// passwords.
	ErrorAuthFailed = errors.New("authentication failed")

	// Token verification errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
