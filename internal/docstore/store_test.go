package docstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*docstore.Store, *sqlite.DocumentRepository) {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	repo := sqlite.NewDocumentRepository(db)
	store := docstore.NewStore(repo, nil)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	return store, repo
}

type collector struct {
	ch   chan docstore.Snapshot
	errs chan error
}

func newCollector() *collector {
	return &collector{ch: make(chan docstore.Snapshot, 16), errs: make(chan error, 16)}
}

func (c *collector) onSnapshot(s docstore.Snapshot) { c.ch <- s }
func (c *collector) onError(err error)              { c.errs <- err }

func (c *collector) next(t *testing.T) docstore.Snapshot {
	t.Helper()
	select {
	case s := <-c.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return docstore.Snapshot{}
	}
}

func (c *collector) none(t *testing.T) {
	t.Helper()
	select {
	case s := <-c.ch:
		t.Fatalf("unexpected snapshot seq=%d with %d documents", s.Seq, len(s.Documents))
	case <-time.After(150 * time.Millisecond):
	}
}

func names(s docstore.Snapshot) []string {
	out := make([]string, 0, len(s.Documents))
	for _, d := range s.Documents {
		out = append(out, d.Fields.String("name"))
	}
	return out
}

func TestStore_CRUD(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Create(ctx, "projects", docstore.Fields{"name": "Alpha", "owner": "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)
	require.False(t, doc.CreatedAt.IsZero())

	got, err := store.Get(ctx, "projects", doc.ID)
	require.NoError(t, err)
	require.Equal(t, "Alpha", got.Fields.String("name"))

	updated, err := store.Update(ctx, "projects", doc.ID, docstore.Fields{"name": "Beta"})
	require.NoError(t, err)
	require.Equal(t, "Beta", updated.Fields.String("name"))
	require.Equal(t, "u1", updated.Fields.String("owner"))

	require.NoError(t, store.Delete(ctx, "projects", doc.ID))
	_, err = store.Get(ctx, "projects", doc.ID)
	require.ErrorIs(t, err, docstore.ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "projects", doc.ID), docstore.ErrNotFound)
	_, err = store.Update(ctx, "projects", doc.ID, docstore.Fields{"name": "x"})
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_CreateValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, " ", docstore.Fields{"name": "x"})
	require.ErrorIs(t, err, docstore.ErrInvalidDocument)

	_, err = store.Create(ctx, "projects", docstore.Fields{"bad field": "x"})
	require.ErrorIs(t, err, docstore.ErrInvalidDocument)

	_, err = store.Create(ctx, "projects", docstore.Fields{docstore.CreatedAtField: "x"})
	require.ErrorIs(t, err, docstore.ErrInvalidDocument)
}

func TestStore_SubscribeDeliversInitialAndChanges(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	c := newCollector()

	q := docstore.Query{
		Collection: "projects",
		Where:      []docstore.Condition{docstore.Where("owner", "u1")},
		OrderBy:    docstore.NewestFirst(),
	}
	sub, err := store.Subscribe(ctx, q, c.onSnapshot, c.onError)
	require.NoError(t, err)
	defer sub.Cancel()

	initial := c.next(t)
	require.EqualValues(t, 1, initial.Seq)
	require.NotNil(t, initial.Documents)
	require.Empty(t, initial.Documents)

	_, err = store.Create(ctx, "projects", docstore.Fields{"name": "Alpha", "owner": "u1"})
	require.NoError(t, err)
	s := c.next(t)
	require.EqualValues(t, 2, s.Seq)
	require.Equal(t, []string{"Alpha"}, names(s))

	// A write outside the filter leaves the result unchanged and is not delivered.
	_, err = store.Create(ctx, "projects", docstore.Fields{"name": "Other", "owner": "u2"})
	require.NoError(t, err)
	c.none(t)

	time.Sleep(time.Millisecond)
	_, err = store.Create(ctx, "projects", docstore.Fields{"name": "Beta", "owner": "u1"})
	require.NoError(t, err)
	s = c.next(t)
	require.Equal(t, []string{"Beta", "Alpha"}, names(s))
}

func TestStore_OtherCollectionsDoNotTrigger(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	c := newCollector()

	sub, err := store.Subscribe(ctx, docstore.Query{Collection: "tasks"}, c.onSnapshot, nil)
	require.NoError(t, err)
	defer sub.Cancel()
	c.next(t)

	_, err = store.Create(ctx, "projects", docstore.Fields{"name": "Alpha"})
	require.NoError(t, err)
	c.none(t)
}

func TestStore_CancelStopsDelivery(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	c := newCollector()

	sub, err := store.Subscribe(ctx, docstore.Query{Collection: "projects"}, c.onSnapshot, nil)
	require.NoError(t, err)
	c.next(t)

	sub.Cancel()
	sub.Cancel()
	<-sub.Done()
	require.Equal(t, 0, store.Active())

	_, err = store.Create(ctx, "projects", docstore.Fields{"name": "Alpha"})
	require.NoError(t, err)
	c.none(t)
}

func TestStore_ContextEndsSubscription(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	c := newCollector()

	sub, err := store.Subscribe(ctx, docstore.Query{Collection: "projects"}, c.onSnapshot, nil)
	require.NoError(t, err)
	c.next(t)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}
	require.Equal(t, 0, store.Active())
}

func TestStore_RefreshPicksUpExternalWrites(t *testing.T) {
	store, repo := newTestStore(t)
	ctx := context.Background()
	c := newCollector()

	sub, err := store.Subscribe(ctx, docstore.Query{Collection: "projects"}, c.onSnapshot, nil)
	require.NoError(t, err)
	defer sub.Cancel()
	c.next(t)

	now := time.Now().UTC()
	require.NoError(t, repo.Insert(ctx, &docstore.Document{
		ID: "ext", Collection: "projects", Fields: docstore.Fields{"name": "External"},
		CreatedAt: now, UpdatedAt: now,
	}))
	c.none(t)

	store.Refresh()
	require.Equal(t, []string{"External"}, names(c.next(t)))
}

func TestStore_SubscribeValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Subscribe(ctx, docstore.Query{}, func(docstore.Snapshot) {}, nil)
	require.ErrorIs(t, err, docstore.ErrInvalidQuery)

	_, err = store.Subscribe(ctx, docstore.Query{
		Collection: "projects",
		Where:      []docstore.Condition{docstore.Where("owner", []string{"a"})},
	}, func(docstore.Snapshot) {}, nil)
	require.ErrorIs(t, err, docstore.ErrInvalidQuery)

	_, err = store.Subscribe(ctx, docstore.Query{Collection: "projects"}, nil, nil)
	require.Error(t, err)
}

func TestStore_CloseCancelsAll(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	c := newCollector()

	sub, err := store.Subscribe(ctx, docstore.Query{Collection: "projects"}, c.onSnapshot, nil)
	require.NoError(t, err)
	c.next(t)

	store.Close()
	<-sub.Done()

	_, err = store.Subscribe(ctx, docstore.Query{Collection: "projects"}, c.onSnapshot, nil)
	require.ErrorIs(t, err, docstore.ErrClosed)
}
