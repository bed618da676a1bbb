package syncview

import "github.com/ganot/taskboard/internal/docstore"

// Schema describes the items of one collection to a ListView.
type Schema[T any] struct {
	Collection string
	Decode     func(docstore.Document) T
	ID         func(T) string
	Label      func(T) string
	Actions    []Action
	// Required lists the text fields a create must carry non-blank.
	Required []string
	// EditForm builds the update form for an item.
	EditForm func(T) EditRequest
	// Normalize canonicalizes or rejects a submitted value. Optional.
	Normalize func(field, value string) (string, error)
}
