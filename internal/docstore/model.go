package docstore

import "time"

// Fields holds the named values of a document.
type Fields map[string]any

// String returns the named field as a string, or "" when absent or not a string.
func (f Fields) String(name string) string {
	v, _ := f[name].(string)
	return v
}

// Clone returns a shallow copy of the field set.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Document is a set of fields stored in one collection
type Document struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Fields     Fields    `json:"fields"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshot is the full ordered result set of a live query at one point in time
type Snapshot struct {
	Seq       int64      `json:"seq"`
	Documents []Document `json:"documents"`
}
