package localstate

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// KeySelectedConversation is the persisted slot for the last-selected
// conversation id.
const KeySelectedConversation = "selected_conversation_id"

// Store is a small key/value slot persisted in a local SQLite file
type Store struct {
	db *sql.DB
}

// Open opens (and initializes) the local state database
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local state schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Get reads a key. The second return value reports whether the key exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read local state key %s: %w", key, err)
	}
	return value, true, nil
}

// Put writes a key, replacing any previous value
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write local state key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key; deleting a missing key is a no-op
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete local state key %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
