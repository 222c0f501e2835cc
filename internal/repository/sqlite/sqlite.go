// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It's a pure-Go translation of SQLite — no CGo, no C toolchain, painless
// cross-compilation. The blank import below registers it with database/sql
// as the driver named "sqlite".
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and provides the repository methods.
// One DB value owns both tables: users (persistent) and quotes (rebuilt from
// the embedded dataset on every boot).
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite permits a single writer. Funneling the pool through one
	// connection avoids SQLITE_BUSY under concurrent requests, serializes
	// the rate limiter's conditional UPDATE per the store, and keeps
	// ":memory:" databases visible to every query in tests.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables. CREATE TABLE IF NOT EXISTS keeps this
// idempotent, so it's safe to run on every boot.
func (db *DB) migrate() error {
	// identifier is the public lookup key: either an "identity-<hex>" API
	// key or a username — the formats are disjoint, so one UNIQUE column
	// serves both account kinds. last_call is ms since epoch, 0 = never.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			identifier  TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL DEFAULT '',
			email       TEXT NOT NULL UNIQUE,
			secret_hash TEXT NOT NULL,
			last_call   INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS quotes (
			id      INTEGER PRIMARY KEY,
			quote   TEXT NOT NULL,
			author  TEXT NOT NULL,
			context TEXT NOT NULL DEFAULT '',
			source  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_quotes_author ON quotes(author);
		CREATE INDEX IF NOT EXISTS idx_quotes_source ON quotes(source);
	`)
	if err != nil {
		return fmt.Errorf("creating quotes table: %w", err)
	}

	return nil
}
