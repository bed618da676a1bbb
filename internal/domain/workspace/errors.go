package workspace

import "errors"

var (
	// ErrPermissionDenied indicates the user may not read or write the target.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidFields indicates the document fails its collection schema.
	ErrInvalidFields = errors.New("invalid fields")
	// ErrUnknownCollection indicates a collection outside projects and tasks.
	ErrUnknownCollection = errors.New("unknown collection")
)
