package session

import (
	"context"
	"sync"

	"github.com/loopkit/loopkit/core"
)

// InMemoryStore is a volatile Store implementation keeping histories in
// a process local map. It is safe for concurrent access and best suited
// for tests or ephemeral demo runs. Returned slices are cloned to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.Item
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]core.Item)}
}

// Items returns the session's history, restricted to the most recent
// limit items when limit is positive.
func (s *InMemoryStore) Items(_ context.Context, sessionID string, limit int) ([]core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.sessions[sessionID]
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return append([]core.Item(nil), items...), nil
}

// AppendItems adds items to the session, creating it lazily.
func (s *InMemoryStore) AppendItems(_ context.Context, sessionID string, items []core.Item) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append(s.sessions[sessionID], items...)
	return nil
}

// PopItem removes and returns the most recently stored item.
func (s *InMemoryStore) PopItem(_ context.Context, sessionID string) (core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.sessions[sessionID]
	if len(items) == 0 {
		return nil, ErrEmptySession
	}
	last := items[len(items)-1]
	s.sessions[sessionID] = items[:len(items)-1]
	return last, nil
}

// Clear removes the session and its history.
func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
