package backend

import (
	"maps"
	"slices"
	"sync"

	"github.com/ganot/taskboard/internal/domain/account"
)

// SessionState holds the current session and notifies observers of changes.
type SessionState struct {
	mu        sync.Mutex
	current   *account.Session
	observers map[int]func(*account.Session)
	next      int
}

// NewSessionState creates an empty (signed out) session state.
func NewSessionState() *SessionState {
	return &SessionState{observers: make(map[int]func(*account.Session))}
}

// Current returns the session, or nil when signed out.
func (s *SessionState) Current() *account.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set replaces the session and notifies observers.
func (s *SessionState) Set(sess *account.Session) {
	s.mu.Lock()
	s.current = sess
	fns := s.snapshotObservers()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

// Observe registers fn and calls it with the current session.
func (s *SessionState) Observe(fn func(*account.Session)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.observers[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *SessionState) snapshotObservers() []func(*account.Session) {
	ids := slices.Sorted(maps.Keys(s.observers))
	fns := make([]func(*account.Session), len(ids))
	for i, id := range ids {
		fns[i] = s.observers[id]
	}
	return fns
}
