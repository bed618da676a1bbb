package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ganot/taskboard/internal/repository"
	"github.com/google/uuid"
)

// Store layers live query subscriptions over a document repository.
// Every write through the store re-runs the subscriptions watching the
// written collection; Refresh re-runs all of them for writes made elsewhere.
type Store struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewStore creates a new document store.
func NewStore(repo Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Create inserts a new document and returns it with its assigned ID and timestamps.
func (s *Store) Create(ctx context.Context, collection string, fields Fields) (*Document, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, fmt.Errorf("%w: collection is required", ErrInvalidDocument)
	}
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc := &Document{
		ID:         uuid.NewString(),
		Collection: collection,
		Fields:     fields.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	s.notify(collection)
	return doc, nil
}

// Get retrieves a document by collection and ID.
func (s *Store) Get(ctx context.Context, collection, id string) (*Document, error) {
	doc, err := s.repo.Get(ctx, collection, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return doc, nil
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, fields Fields) (*Document, error) {
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}
	doc, err := s.repo.Update(ctx, collection, id, fields, s.now().UTC())
	if err != nil {
		return nil, mapNotFound(err)
	}

	s.notify(collection)
	return doc, nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return mapNotFound(err)
	}

	s.notify(collection)
	return nil
}

// Run executes a query once.
func (s *Store) Run(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	docs, err := s.repo.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	return docs, nil
}

// Subscribe opens a live query. onSnapshot receives the full result set once
// immediately and again whenever it changes. onError, if set, receives query
// failures; the subscription stays open after an error. The subscription ends
// on Cancel, when ctx is done, or when the store is closed.
func (s *Store) Subscribe(ctx context.Context, q Query, onSnapshot func(Snapshot), onError func(error)) (*Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if onSnapshot == nil {
		return nil, errors.New("snapshot callback is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	sub := newSubscription(ctx, s, q, onSnapshot, onError)
	s.subs[sub] = struct{}{}
	sub.trigger()
	go sub.run()

	s.logger.Debug("subscription opened", "collection", q.Collection, "active", len(s.subs))
	return sub, nil
}

// Refresh re-runs every live query. Used when another process may have
// written to the underlying database.
func (s *Store) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		sub.trigger()
	}
}

// Active returns the number of open subscriptions.
func (s *Store) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close cancels every subscription and rejects new ones.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

func (s *Store) notify(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		if sub.query.Collection == collection {
			sub.trigger()
		}
	}
}

func (s *Store) remove(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
