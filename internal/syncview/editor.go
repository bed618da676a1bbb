package syncview

import (
	"context"
	"errors"
)

// ErrCancelled is returned by an Editor when the user dismisses the form.
var ErrCancelled = errors.New("edit cancelled")

// EditField is one input of an edit form. A field with Options is a choice.
type EditField struct {
	Name     string
	Label    string
	Value    string
	Options  []string
	Required bool
}

// EditRequest describes the form shown for an update gesture.
type EditRequest struct {
	Title  string
	Fields []EditField
}

// Editor collects replacement values for an item. It returns the submitted
// values keyed by field name, or ErrCancelled.
type Editor interface {
	Edit(ctx context.Context, req EditRequest) (map[string]string, error)
}

// EditorFunc adapts a function to Editor.
type EditorFunc func(ctx context.Context, req EditRequest) (map[string]string, error)

func (f EditorFunc) Edit(ctx context.Context, req EditRequest) (map[string]string, error) {
	return f(ctx, req)
}
