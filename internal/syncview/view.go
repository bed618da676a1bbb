// Package syncview binds a rendered list to a live backend query. Every
// snapshot replaces the whole list; create, update and delete gestures go
// back through the backend and show up once the next snapshot arrives.
package syncview

// Action is a gesture a row offers.
type Action string

const (
	ActionSelect Action = "select"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Row is one rendered list item. Actions apply to the item with ID.
type Row struct {
	ID      string
	Label   string
	Actions []Action
}

// View is an immutable rendering of a list.
type View struct {
	Rows []Row
	// Live is true while a subscription feeds the list.
	Live bool
}

// Len returns the number of rows.
func (v View) Len() int { return len(v.Rows) }

// Labels returns the row labels in order.
func (v View) Labels() []string {
	out := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Label
	}
	return out
}
