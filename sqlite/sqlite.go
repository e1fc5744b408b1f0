// Package sqlite provides SQLite-based storage implementations for sitecrawl services.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// pragmas are applied to every connection in order. The journal mode is
// only set for file databases.
var pragmas = []struct {
	name, stmt string
	fileOnly   bool
}{
	{"busy timeout", "PRAGMA busy_timeout = 5000", false},
	{"WAL mode", "PRAGMA journal_mode = WAL", true},
	{"foreign keys", "PRAGMA foreign_keys = ON", false},
}

// Open opens the database connection and creates the schema if needed.
// The connection pool is limited to a single connection, which serializes
// writes from concurrent crawl workers.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, p := range pragmas {
		if p.fileOnly && db.path == ":memory:" {
			continue
		}
		if _, err := conn.Exec(p.stmt); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set %s: %w", p.name, err)
		}
	}

	db.db = conn
	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// createSchema creates the tables if they don't exist. Source and schema
// configuration lives in the main database; the crawl_ tables back the crawl
// engine and are used from each source's own crawl.db.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			base_url TEXT NOT NULL,
			url_processor TEXT NOT NULL DEFAULT '',
			extra_crawl_urls TEXT NOT NULL DEFAULT '',
			exclude_patterns TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS schemas (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
			data_type TEXT NOT NULL,
			priority INTEGER NOT NULL,
			applies_to TEXT NOT NULL DEFAULT '',
			mime_types TEXT NOT NULL DEFAULT '',
			css_filter TEXT NOT NULL DEFAULT '',
			rules TEXT NOT NULL DEFAULT '[]',
			processors TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_schemas_source_id ON schemas(source_id);

		CREATE TABLE IF NOT EXISTS crawl_visited (
			request_id INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS crawl_cookies (
			host TEXT PRIMARY KEY,
			cookies TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS crawl_queue (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			request BLOB NOT NULL
		);
	`

	_, err := db.db.Exec(schema)
	return err
}
