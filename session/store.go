package session

import (
	"context"
	"errors"

	"github.com/loopkit/loopkit/core"
)

// ErrEmptySession is returned by PopItem when the session holds no
// items.
var ErrEmptySession = errors.New("session has no items")

// Store persists ordered per-session item histories. Implementations
// must be safe for concurrent use; items are treated as immutable once
// stored.
type Store interface {
	// Items returns the session's history in insertion order. A limit
	// greater than zero returns only the most recent limit items, still
	// in insertion order. Unknown sessions yield an empty history.
	Items(ctx context.Context, sessionID string, limit int) ([]core.Item, error)

	// AppendItems adds items to the end of the session's history,
	// creating the session if needed.
	AppendItems(ctx context.Context, sessionID string, items []core.Item) error

	// PopItem removes and returns the most recently stored item, or
	// ErrEmptySession.
	PopItem(ctx context.Context, sessionID string) (core.Item, error)

	// Clear removes the session and its history.
	Clear(ctx context.Context, sessionID string) error
}
