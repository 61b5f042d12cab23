package auth

import "errors"

var (
	// ErrValidation covers missing or mismatched required fields.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a username is already taken.
	ErrConflict = errors.New("username already in use")
	// ErrUserNotFound is returned when no account matches the username.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the password comparison fails.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
