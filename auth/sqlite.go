package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteBackend stores the token in a local SQLite database, letting several
// processes on one host share a single token.
type SQLiteBackend struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS oauth_tokens (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	token      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// NewSQLiteBackend opens (and if needed initialises) the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open token database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialise token database: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Close releases the database handle.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Load reads the token row.
func (b *SQLiteBackend) Load(ctx context.Context) (*Token, error) {
	var raw string
	err := b.db.QueryRowContext(ctx,
		`SELECT token FROM oauth_tokens WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("query token: %w", err)
	}

	var token Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("decode stored token: %w", err)
	}
	return &token, nil
}

// Store upserts the token row.
func (b *SQLiteBackend) Store(ctx context.Context, token *Token) error {
	if token == nil {
		return fmt.Errorf("auth: cannot store a nil token")
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO oauth_tokens (id, token, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Delete removes the token row.
func (b *SQLiteBackend) Delete(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE id = 1`); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Exists reports whether a token row is present.
func (b *SQLiteBackend) Exists(ctx context.Context) (bool, error) {
	var count int
	if err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM oauth_tokens WHERE id = 1`).Scan(&count); err != nil {
		return false, fmt.Errorf("query token: %w", err)
	}
	return count > 0, nil
}
