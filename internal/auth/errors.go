package auth

import "errors"

var (
	// ErrInvalidToken covers missing, malformed, forged and expired tokens alike.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidCredentials does not distinguish an unknown user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrWeakSecret = errors.New("token signing secret must be at least 32 characters")
)
