package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")

	// Denylist errors
	ErrDenylistNotLoaded = errors.New("common password list not loaded")

	// Infrastructure errors. Store implementations wrap transport failures
	// with ErrStoreUnavailable so callers can tell "try again later" apart
	// from an authentication failure.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
