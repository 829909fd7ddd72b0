// Package dbopen opens the SQLite database behind the readstyle store with
// the pragmas the service relies on: WAL journaling, a busy timeout and
// NORMAL synchronous mode. The modernc.org/sqlite driver is registered here.
//
//	db, err := dbopen.Open("data/readstyle.db", dbopen.WithMkdirAll(), dbopen.WithSchema(schema))
//
// Tests use OpenMemory, which pins the pool to one connection.
package dbopen

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// MemoryPath is the DSN of a private in-memory database.
const MemoryPath = ":memory:"

type options struct {
	busyTimeoutMS int
	synchronous   string
	mkdirAll      bool
	schemas       []string
}

// Option tunes Open.
type Option func(*options)

// WithBusyTimeout sets PRAGMA busy_timeout (milliseconds). Default 5000.
func WithBusyTimeout(ms int) Option { return func(o *options) { o.busyTimeoutMS = ms } }

// WithSynchronous sets PRAGMA synchronous. Default NORMAL.
func WithSynchronous(mode string) Option { return func(o *options) { o.synchronous = mode } }

// WithMkdirAll creates the parent directory of the database file.
func WithMkdirAll() Option { return func(o *options) { o.mkdirAll = true } }

// WithSchema runs DDL after the pragmas. Statements must be idempotent.
func WithSchema(ddl string) Option { return func(o *options) { o.schemas = append(o.schemas, ddl) } }

// Open opens (creating if needed) the database at path.
func Open(path string, opts ...Option) (*sql.DB, error) {
	o := options{busyTimeoutMS: 5000, synchronous: "NORMAL"}
	for _, fn := range opts {
		fn(&o)
	}

	if o.mkdirAll && path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: mkdir %s: %w", filepath.Dir(path), err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dbopen: open %s: %w", path, err)
	}

	stmts := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", o.busyTimeoutMS),
		fmt.Sprintf("PRAGMA synchronous = %s", o.synchronous),
	}
	stmts = append(stmts, o.schemas...)
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: %s: %w", firstLine(stmt), err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbopen: ping: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory database closed at the end of the test.
// Every connection to ":memory:" is a separate database, hence the single
// connection pool.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(MemoryPath, opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
