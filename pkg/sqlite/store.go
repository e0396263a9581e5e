// Package sqlite persists the client's local state in an on-device SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/swifty-companion/student-api/pkg/oauthLocal"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// Store is a key-value table in a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the database file and its parent directory when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

// TokenStore returns an oauthLocal.Store backed by this database.
func (s *Store) TokenStore() oauthLocal.Store {
	return &tokenStore{store: s, key: oauthLocal.StorageKey}
}

type tokenStore struct {
	store *Store
	key   string
}

var _ oauthLocal.Store = (*tokenStore)(nil)

func (s *tokenStore) Load(ctx context.Context) (*oauthLocal.AccessToken, error) {
	var raw string
	err := s.store.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oauthLocal.ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	var tok oauthLocal.AccessToken
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return &tok, nil
}

func (s *tokenStore) Save(ctx context.Context, tok oauthLocal.AccessToken) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, s.key, string(raw))
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}
