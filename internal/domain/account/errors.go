package account

import "errors"

var (
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword indicates a password below the minimum length.
	ErrWeakPassword = errors.New("password too short")
	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound indicates no account exists for the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound indicates the token doesn't name a session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session has passed its expiry.
	ErrSessionExpired = errors.New("session expired")
)
