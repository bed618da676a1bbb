package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSignedIn indicates a document operation without a session.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrOffline indicates the backend could not be reached.
	ErrOffline = errors.New("backend unreachable")
)

// AuthError reports a failed sign-up, sign-in, sign-out or session restore.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// WriteError reports a failed create, update or delete.
type WriteError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *WriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// SubscriptionError reports a rejected or failed live query.
type SubscriptionError struct {
	Collection string
	Err        error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscribe %s: %v", e.Collection, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }
