package workspace

import (
	"context"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/activity"
)

// Documents is the document store the workspace guards.
type Documents interface {
	Create(ctx context.Context, collection string, fields docstore.Fields) (*docstore.Document, error)
	Get(ctx context.Context, collection, id string) (*docstore.Document, error)
	Update(ctx context.Context, collection, id string, fields docstore.Fields) (*docstore.Document, error)
	Delete(ctx context.Context, collection, id string) error
	Run(ctx context.Context, q docstore.Query) ([]docstore.Document, error)
	Subscribe(ctx context.Context, q docstore.Query, onSnapshot func(docstore.Snapshot), onError func(error)) (*docstore.Subscription, error)
}

// ActivityLogger records mutations.
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID string, entry *activity.ActivityEntry) error
}
