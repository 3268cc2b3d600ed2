package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/loopkit/loopkit/core"
)

// Entry is one remembered conversation fragment.
type Entry struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// Result is a search hit with its relevance score.
type Result struct {
	Entry
	Score float64
}

// Store persists searchable conversation memories scoped by session.
type Store interface {
	// Record stores one memory fragment and returns its ID.
	Record(ctx context.Context, sessionID, content string, metadata map[string]any) (string, error)

	// Search returns the best matches for query, at most limit when
	// limit is positive.
	Search(ctx context.Context, sessionID, query string, limit int) ([]Result, error)

	// Forget removes all memories of a session.
	Forget(ctx context.Context, sessionID string) error
}

// InMemoryStore is a naive process-local Store.
//
// Concurrency: protected by RWMutex.
// Search: linear scan with case-insensitive substring matching assigning
// a constant score of 1.0 to every hit. Suitable only for tests and
// demos.
type InMemoryStore struct {
	mu      sync.RWMutex
	storage map[string][]Entry
}

// NewInMemoryStore creates a new in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{storage: make(map[string][]Entry)}
}

// Record stores one memory fragment.
func (m *InMemoryStore) Record(_ context.Context, sessionID, content string, metadata map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := Entry{ID: core.NewID(), Content: content, Metadata: metadata}
	m.storage[sessionID] = append(m.storage[sessionID], entry)
	return entry.ID, nil
}

// Search scans the session's memories for the query substring.
func (m *InMemoryStore) Search(_ context.Context, sessionID, query string, limit int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query)
	var results []Result
	for _, entry := range m.storage[sessionID] {
		if !strings.Contains(strings.ToLower(entry.Content), needle) {
			continue
		}
		results = append(results, Result{Entry: entry, Score: 1.0})
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results, nil
}

// Forget removes all memories of a session.
func (m *InMemoryStore) Forget(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.storage, sessionID)
	return nil
}

// RecordItems folds the message items of a completed run into memory,
// one entry per message, tagged with the message role.
func RecordItems(ctx context.Context, store Store, sessionID string, items []core.Item) error {
	for _, item := range items {
		msg, ok := item.(core.MessageItem)
		if !ok || msg.Text == "" {
			continue
		}
		if _, err := store.Record(ctx, sessionID, msg.Text, map[string]any{"role": string(msg.Role)}); err != nil {
			return err
		}
	}
	return nil
}
