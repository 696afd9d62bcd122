package models

import "errors"

// Validation errors reported back to the offending connection as an
// "error" event. Their text is what the client displays.
var (
	ErrUsernameRequired     = errors.New("Username is required")
	ErrNotRegistered        = errors.New("User not registered")
	ErrInvalidBossDirection = errors.New("Invalid boss direction")
	ErrMalformedMessage     = errors.New("Malformed message")
)
