package syncview

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/ganot/taskboard/internal/backend"
	"github.com/ganot/taskboard/internal/docstore"
)

var (
	// ErrBlankField is returned when a create is missing a required text field.
	ErrBlankField = errors.New("required field is blank")
	// ErrUnknownItem is returned for a gesture on an item not in the list.
	ErrUnknownItem = errors.New("item not in list")
)

// Source is the part of the backend a list view needs.
type Source interface {
	Create(ctx context.Context, collection string, fields docstore.Fields) (string, error)
	Update(ctx context.Context, collection, id string, fields docstore.Fields) error
	Delete(ctx context.Context, collection, id string) error
	Subscribe(ctx context.Context, q docstore.Query, onSnapshot func(docstore.Snapshot), onError func(error)) (backend.Subscription, error)
}

// ListView is a list bound to at most one live query.
//
// Every snapshot callback is tagged with the generation it was opened in and
// dropped unless that generation is still current, so once Stop or a new
// Start returns nothing from the old subscription reaches the list.
type ListView[T any] struct {
	source Source
	schema Schema[T]
	logger *slog.Logger

	mu       sync.Mutex
	gen      uint64
	sub      backend.Subscription
	query    *docstore.Query
	items    []T
	view     View
	onRender func(View)
}

// New creates an unsubscribed list view.
func New[T any](source Source, schema Schema[T], logger *slog.Logger) *ListView[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ListView[T]{
		source: source,
		schema: schema,
		logger: logger.With("collection", schema.Collection),
		view:   View{Rows: []Row{}},
	}
}

// OnRender sets the function called with every new rendering. It runs with
// the view locked and must not call back into the view.
func (v *ListView[T]) OnRender(fn func(View)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onRender = fn
}

// Start binds the list to q, replacing any previous subscription. The list
// is emptied until the first snapshot of q arrives.
func (v *ListView[T]) Start(ctx context.Context, q docstore.Query) error {
	v.mu.Lock()
	v.stopLocked()
	gen := v.gen
	v.mu.Unlock()

	sub, err := v.source.Subscribe(ctx, q,
		func(s docstore.Snapshot) { v.apply(gen, s) },
		func(err error) { v.logger.Error("subscription error", "error", err) },
	)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.logger.Error("failed to subscribe", "error", err)
		if gen == v.gen {
			v.renderLocked()
		}
		return err
	}
	if gen != v.gen {
		// Stopped or restarted while subscribing.
		sub.Cancel()
		return nil
	}
	v.sub = sub
	v.query = &q
	v.view.Live = true
	v.renderLocked()
	return nil
}

// Stop cancels the active subscription and empties the list. No-op when
// unsubscribed.
func (v *ListView[T]) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sub == nil && v.query == nil && len(v.items) == 0 {
		v.gen++
		return
	}
	v.stopLocked()
	v.renderLocked()
}

func (v *ListView[T]) stopLocked() {
	v.gen++
	if v.sub != nil {
		v.sub.Cancel()
		v.sub = nil
	}
	v.query = nil
	v.items = nil
	v.view = View{Rows: []Row{}}
}

// Query returns the filter the list is bound to, if any.
func (v *ListView[T]) Query() (docstore.Query, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.query == nil {
		return docstore.Query{}, false
	}
	return *v.query, true
}

// View returns the current rendering.
func (v *ListView[T]) View() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.view
}

// Items returns the decoded items of the last snapshot.
func (v *ListView[T]) Items() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]T, len(v.items))
	copy(out, v.items)
	return out
}

// Item returns the listed item with id.
func (v *ListView[T]) Item(id string) (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, it := range v.items {
		if v.schema.ID(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Create writes a new item. Blank required fields abort without a backend
// call. clear runs only after the backend accepted the write. The list is
// not touched; the item appears with the next snapshot.
func (v *ListView[T]) Create(ctx context.Context, fields docstore.Fields, clear func()) error {
	for _, name := range v.schema.Required {
		if s, _ := fields[name].(string); strings.TrimSpace(s) == "" {
			return ErrBlankField
		}
	}

	id, err := v.source.Create(ctx, v.schema.Collection, fields)
	if err != nil {
		v.logger.Error("failed to create item", "error", err)
		return err
	}

	v.logger.Debug("item created", "id", id)
	if clear != nil {
		clear()
	}
	return nil
}

// Update asks editor for new values and writes the fields that changed.
// Cancellation, a blank required value or an unchanged form make no
// backend call.
func (v *ListView[T]) Update(ctx context.Context, id string, editor Editor) error {
	item, ok := v.Item(id)
	if !ok {
		v.logger.Warn("update of unlisted item", "id", id)
		return ErrUnknownItem
	}

	req := v.schema.EditForm(item)
	values, err := editor.Edit(ctx, req)
	if errors.Is(err, ErrCancelled) {
		return nil
	}
	if err != nil {
		v.logger.Error("edit form failed", "id", id, "error", err)
		return err
	}

	changes := docstore.Fields{}
	for _, f := range req.Fields {
		val, ok := values[f.Name]
		if !ok {
			continue
		}
		if strings.TrimSpace(val) == "" {
			if f.Required {
				return nil
			}
			continue
		}
		if v.schema.Normalize != nil {
			if val, err = v.schema.Normalize(f.Name, val); err != nil {
				v.logger.Warn("rejected edit", "id", id, "field", f.Name, "error", err)
				return err
			}
		}
		if val != f.Value {
			changes[f.Name] = val
		}
	}
	if len(changes) == 0 {
		return nil
	}

	if err := v.source.Update(ctx, v.schema.Collection, id, changes); err != nil {
		v.logger.Error("failed to update item", "id", id, "error", err)
		return err
	}
	return nil
}

// Delete removes an item without confirmation.
func (v *ListView[T]) Delete(ctx context.Context, id string) error {
	if err := v.source.Delete(ctx, v.schema.Collection, id); err != nil {
		v.logger.Error("failed to delete item", "id", id, "error", err)
		return err
	}
	return nil
}

func (v *ListView[T]) apply(gen uint64, s docstore.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		v.logger.Debug("dropped stale snapshot", "seq", s.Seq)
		return
	}

	items := make([]T, 0, len(s.Documents))
	for _, doc := range s.Documents {
		items = append(items, v.schema.Decode(doc))
	}
	v.items = items

	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, Row{
			ID:      v.schema.ID(it),
			Label:   v.schema.Label(it),
			Actions: v.schema.Actions,
		})
	}
	v.view = View{Rows: rows, Live: true}
	v.renderLocked()
}

func (v *ListView[T]) renderLocked() {
	if v.onRender != nil {
		v.onRender(v.view)
	}
}

