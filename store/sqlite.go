package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hazyhaar/readstyle/dbopen"
)

// Schema is the DDL of the SQLite backend.
const Schema = `
CREATE TABLE IF NOT EXISTS prefs_kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);
`

const upsertSQL = `
	INSERT INTO prefs_kv (key, value, updated_at) VALUES (?, ?, unixepoch())
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SQLite stores values in the prefs_kv table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

// NewSQLite wraps an open database. The schema is applied if missing.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("store: sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs_kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: sqlite get %s: %w", key, err)
	}
	return []byte(v), true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, map[string][]byte{key: value})
}

// SetMany writes all values in one transaction.
func (s *SQLite) SetMany(ctx context.Context, values map[string][]byte) error {
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		for k, v := range values {
			if _, err := tx.ExecContext(ctx, upsertSQL, k, string(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: sqlite set: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
