package docstore

import "errors"

var (
	// ErrNotFound indicates the document doesn't exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidQuery indicates a malformed query or filter.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidDocument indicates a malformed collection name or field set.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrClosed indicates the store no longer accepts subscriptions.
	ErrClosed = errors.New("document store closed")
)
