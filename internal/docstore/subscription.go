package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// Subscription is a live query. Snapshots are delivered in order on a
// single goroutine owned by the subscription.
type Subscription struct {
	store      *Store
	query      Query
	onSnapshot func(Snapshot)
	onError    func(error)

	ctx     context.Context
	cancel  context.CancelFunc
	kick    chan struct{}
	done    chan struct{}
	stopped atomic.Bool

	// owned by run
	seq       int64
	last      [sha256.Size]byte
	delivered bool
}

func newSubscription(ctx context.Context, store *Store, q Query, onSnapshot func(Snapshot), onError func(error)) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	return &Subscription{
		store:      store,
		query:      q,
		onSnapshot: onSnapshot,
		onError:    onError,
		ctx:        subCtx,
		cancel:     cancel,
		kick:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Query returns the query this subscription watches.
func (s *Subscription) Query() Query {
	return s.query
}

// Cancel stops future deliveries. It does not wait for a delivery already
// in progress; use Done for that. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s.stopped.Swap(true) {
		return
	}
	s.cancel()
	s.store.remove(s)
}

// Done is closed once the delivery goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// trigger schedules a re-run. Pending kicks collapse into one.
func (s *Subscription) trigger() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.done)
	defer s.Cancel()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.kick:
		}

		docs, err := s.store.repo.Query(s.ctx, s.query)
		if s.stopped.Load() || s.ctx.Err() != nil {
			return
		}
		if err != nil {
			s.store.logger.Warn("live query failed", "collection", s.query.Collection, "error", err)
			if s.onError != nil {
				s.onError(fmt.Errorf("failed to run query: %w", err))
			}
			continue
		}

		sum, err := fingerprint(docs)
		if err == nil && s.delivered && sum == s.last {
			continue
		}
		s.last, s.delivered = sum, true
		s.seq++
		if docs == nil {
			docs = []Document{}
		}
		s.onSnapshot(Snapshot{Seq: s.seq, Documents: docs})
	}
}

func fingerprint(docs []Document) ([sha256.Size]byte, error) {
	data, err := json.Marshal(docs)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(data), nil
}
