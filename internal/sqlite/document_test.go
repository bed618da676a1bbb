package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/repository"
	"github.com/stretchr/testify/require"
)

func insertDocument(t *testing.T, repo *DocumentRepository, id, collection string, fields docstore.Fields, at time.Time) {
	t.Helper()
	err := repo.Insert(context.Background(), &docstore.Document{
		ID:         id,
		Collection: collection,
		Fields:     fields,
		CreatedAt:  at,
		UpdatedAt:  at,
	})
	require.NoError(t, err)
}

func TestDocumentRepository_InsertGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)

	insertDocument(t, repo, "p1", "projects", docstore.Fields{"name": "Alpha", "owner": "u1"}, at)

	doc, err := repo.Get(ctx, "projects", "p1")
	require.NoError(t, err)
	require.Equal(t, "Alpha", doc.Fields.String("name"))
	require.Equal(t, "u1", doc.Fields.String("owner"))
	require.True(t, at.Equal(doc.CreatedAt))

	_, err = repo.Get(ctx, "tasks", "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.Insert(ctx, &docstore.Document{ID: "p1", Collection: "projects", Fields: docstore.Fields{}})
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestDocumentRepository_UpdateMerges(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	insertDocument(t, repo, "t1", "tasks", docstore.Fields{"name": "Design", "status": "To Do", "projectId": "p1"}, at)

	later := at.Add(time.Minute)
	doc, err := repo.Update(ctx, "tasks", "t1", docstore.Fields{"status": "Completed"}, later)
	require.NoError(t, err)
	require.Equal(t, "Design", doc.Fields.String("name"))
	require.Equal(t, "Completed", doc.Fields.String("status"))
	require.Equal(t, "p1", doc.Fields.String("projectId"))
	require.True(t, later.Equal(doc.UpdatedAt))
	require.True(t, at.Equal(doc.CreatedAt))

	_, err = repo.Update(ctx, "tasks", "missing", docstore.Fields{"name": "x"}, later)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDocumentRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	insertDocument(t, repo, "p1", "projects", docstore.Fields{"name": "Alpha"}, time.Now().UTC())

	require.NoError(t, repo.Delete(ctx, "projects", "p1"))
	require.ErrorIs(t, repo.Delete(ctx, "projects", "p1"), repository.ErrNotFound)
}

func TestDocumentRepository_QueryFilterAndOrder(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	insertDocument(t, repo, "a", "projects", docstore.Fields{"name": "A", "owner": "u1"}, base)
	insertDocument(t, repo, "b", "projects", docstore.Fields{"name": "B", "owner": "u2"}, base.Add(time.Second))
	insertDocument(t, repo, "c", "projects", docstore.Fields{"name": "C", "owner": "u1"}, base.Add(2*time.Second))
	insertDocument(t, repo, "t", "tasks", docstore.Fields{"name": "T", "owner": "u1"}, base.Add(3*time.Second))

	docs, err := repo.Query(ctx, docstore.Query{
		Collection: "projects",
		Where:      []docstore.Condition{docstore.Where("owner", "u1")},
		OrderBy:    docstore.NewestFirst(),
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "c", docs[0].ID)
	require.Equal(t, "a", docs[1].ID)

	docs, err = repo.Query(ctx, docstore.Query{
		Collection: "projects",
		OrderBy:    docstore.Order{Field: "name"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, []string{"A", "B", "C"}, []string{
		docs[0].Fields.String("name"),
		docs[1].Fields.String("name"),
		docs[2].Fields.String("name"),
	})
}

func TestDocumentRepository_QuerySameTimestampUsesInsertOrder(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	insertDocument(t, repo, "first", "projects", docstore.Fields{"name": "1"}, at)
	insertDocument(t, repo, "second", "projects", docstore.Fields{"name": "2"}, at)

	docs, err := repo.Query(ctx, docstore.Query{Collection: "projects", OrderBy: docstore.NewestFirst()})
	require.NoError(t, err)
	require.Equal(t, "second", docs[0].ID)
	require.Equal(t, "first", docs[1].ID)
}

func TestDocumentRepository_QueryEmptyAndTypedValues(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	docs, err := repo.Query(ctx, docstore.Query{Collection: "projects"})
	require.NoError(t, err)
	require.NotNil(t, docs)
	require.Empty(t, docs)

	insertDocument(t, repo, "x", "flags", docstore.Fields{"done": true, "rank": 3}, time.Now().UTC())
	insertDocument(t, repo, "y", "flags", docstore.Fields{"done": false, "rank": 4}, time.Now().UTC())

	docs, err = repo.Query(ctx, docstore.Query{Collection: "flags", Where: []docstore.Condition{docstore.Where("done", true)}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "x", docs[0].ID)

	docs, err = repo.Query(ctx, docstore.Query{Collection: "flags", Where: []docstore.Condition{docstore.Where("rank", 4.0)}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "y", docs[0].ID)
}
