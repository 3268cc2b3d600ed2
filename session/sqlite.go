package session

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/loopkit/loopkit/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_session_items_session_id ON session_items(session_id);
`

// SQLiteStore is a durable Store backed by a SQLite database. Items are
// persisted as self-describing JSON envelopes, one row per item, so the
// schema survives item-type additions.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Items returns the session's history, restricted to the most recent
// limit items when limit is positive.
func (s *SQLiteStore) Items(ctx context.Context, sessionID string, limit int) ([]core.Item, error) {
	query := `SELECT payload FROM session_items WHERE session_id = ? ORDER BY id ASC`
	args := []any{sessionID}
	if limit > 0 {
		query = `SELECT payload FROM (
			SELECT id, payload FROM session_items WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session items: %w", err)
	}
	defer rows.Close()

	var items []core.Item
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan session item: %w", err)
		}
		item, err := core.UnmarshalItem(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode session item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AppendItems adds items to the end of the session's history in one
// transaction.
func (s *SQLiteStore) AppendItems(ctx context.Context, sessionID string, items []core.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO session_items (session_id, payload) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		payload, err := core.MarshalItem(item)
		if err != nil {
			return fmt.Errorf("failed to encode session item: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, sessionID, payload); err != nil {
			return fmt.Errorf("failed to insert session item: %w", err)
		}
	}
	return tx.Commit()
}

// PopItem removes and returns the most recently stored item.
func (s *SQLiteStore) PopItem(ctx context.Context, sessionID string) (core.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	var payload []byte
	row := tx.QueryRowContext(ctx,
		`SELECT id, payload FROM session_items WHERE session_id = ? ORDER BY id DESC LIMIT 1`, sessionID)
	if err := row.Scan(&id, &payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmptySession
		}
		return nil, fmt.Errorf("failed to read session item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_items WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete session item: %w", err)
	}

	item, err := core.UnmarshalItem(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session item: %w", err)
	}
	return item, tx.Commit()
}

// Clear removes the session and its history.
func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_items WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
