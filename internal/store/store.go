// Package store provides the embedded SQLite persistence layer for the
// knowledge-base sync engine.
//
// The database runs in embedded mode (ncruces/go-sqlite3) with WAL for
// concurrent readers. Three tables back the reconciliation contract:
//
//   - projects:  durable project entities, keyed (slug, org)
//   - tasks:     durable task entities carrying their source coordinate
//     (source_path, source_line, source_type) for write-back
//   - documents: per-document content hash and last sync time, feeding
//     conflict detection
//
// All methods take a context; multi-entity operations run inside a Batch
// (a single transaction) whose per-entity failures are statement-level
// and do not abort sibling writes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the embedded SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

// querier is satisfied by both *sql.DB and *sql.Tx so the entity
// helpers work identically inside and outside a Batch.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open creates a database connection at the specified path, creating
// the parent directory if needed. The caller must Close when done.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.conn.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the tables and indexes. Idempotent.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		org TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		priority INTEGER NOT NULL DEFAULT 2,
		is_sub_project INTEGER NOT NULL DEFAULT 0,
		parent_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (slug, org)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		owner TEXT,
		due_date TEXT,
		source_type TEXT,
		source_path TEXT,
		source_line INTEGER NOT NULL DEFAULT 0,
		synthetic_id TEXT,
		project_slug TEXT,
		org TEXT,
		section TEXT,
		phase TEXT,
		linked_project TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		last_synced_at TEXT
	);

	CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		last_synced_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_org ON projects(org);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_path ON tasks(source_path);
	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_slug, org);

	-- At most one task per source coordinate: re-running a sync must
	-- never attach a second entity to the same line.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_source
	    ON tasks(source_path, source_line, source_type)
	    WHERE source_path IS NOT NULL AND source_path != '';
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// timeLayout is RFC 3339 with a fixed-width 9-digit fraction. All
// stamps are stored in UTC, so lexicographic comparison in SQL matches
// chronological order (the pending write-back query relies on this).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timeToNullString converts a time pointer to a nullable SQL string.
func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtTime(*t), Valid: true}
}

// nullStringToTime converts a nullable SQL string to a time pointer.
func nullStringToTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
