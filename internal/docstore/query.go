package docstore

import (
	"fmt"
	"regexp"
	"strings"
)

// Server-assigned timestamp fields. Every document carries both.
const (
	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Condition restricts a query to documents whose field equals Value.
type Condition struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Order sorts query results by one field.
type Order struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Query selects documents of one collection.
type Query struct {
	Collection string      `json:"collection"`
	Where      []Condition `json:"where,omitempty"`
	OrderBy    Order       `json:"order_by"`
}

// Where builds an equality condition.
func Where(field string, value any) Condition {
	return Condition{Field: field, Value: value}
}

// NewestFirst orders by creation time, most recent first.
func NewestFirst() Order {
	return Order{Field: CreatedAtField, Desc: true}
}

// Validate checks that the query can be executed.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Collection) == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidQuery)
	}
	for _, c := range q.Where {
		if !fieldNamePattern.MatchString(c.Field) {
			return fmt.Errorf("%w: bad field name %q", ErrInvalidQuery, c.Field)
		}
		switch c.Value.(type) {
		case string, bool, int, int32, int64, float32, float64:
		default:
			return fmt.Errorf("%w: unsupported value %T for %q", ErrInvalidQuery, c.Value, c.Field)
		}
	}
	if q.OrderBy.Field != "" && !fieldNamePattern.MatchString(q.OrderBy.Field) {
		return fmt.Errorf("%w: bad order field %q", ErrInvalidQuery, q.OrderBy.Field)
	}
	return nil
}

// Equals returns the value the query requires field to equal, if any.
func (q Query) Equals(field string) (any, bool) {
	for _, c := range q.Where {
		if c.Field == field {
			return c.Value, true
		}
	}
	return nil, false
}

// ValidateFields checks that every field name is addressable by a query.
func ValidateFields(fields Fields) error {
	for name := range fields {
		if !fieldNamePattern.MatchString(name) {
			return fmt.Errorf("%w: bad field name %q", ErrInvalidDocument, name)
		}
		if name == CreatedAtField || name == UpdatedAtField {
			return fmt.Errorf("%w: %q is server assigned", ErrInvalidDocument, name)
		}
	}
	return nil
}
