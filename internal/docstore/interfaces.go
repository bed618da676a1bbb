package docstore

import (
	"context"
	"time"
)

// Repository provides persistence for documents.
type Repository interface {
	Insert(ctx context.Context, doc *Document) error
	Get(ctx context.Context, collection, id string) (*Document, error)
	Update(ctx context.Context, collection, id string, fields Fields, updatedAt time.Time) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]Document, error)
}
