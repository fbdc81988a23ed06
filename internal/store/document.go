package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Document tracks the last-synced state of one file: its content hash
// at the moment of the last successful sync, and when that sync ran.
// These two fields are the file side of conflict detection.
type Document struct {
	Path         string
	ContentHash  string
	LastSyncedAt time.Time
}

// GetDocument returns the sync record for a path, or (nil, nil) if the
// document has never been synced.
func (db *DB) GetDocument(ctx context.Context, path string) (*Document, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT path, content_hash, last_synced_at FROM documents WHERE path = ?`, path)

	var d Document
	var syncedAt string
	err := row.Scan(&d.Path, &d.ContentHash, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", path, err)
	}
	d.LastSyncedAt = parseTime(syncedAt)
	return &d, nil
}

// UpsertDocument records a successful sync of a document. Called only
// by the sync path after a pass completes for that file; write-back
// never touches it.
func (db *DB) UpsertDocument(ctx context.Context, path, contentHash string, syncedAt time.Time) error {
	return upsertDocument(ctx, db.conn, path, contentHash, syncedAt)
}

func upsertDocument(ctx context.Context, q querier, path, contentHash string, syncedAt time.Time) error {
	_, err := q.ExecContext(ctx, `
	INSERT INTO documents (path, content_hash, last_synced_at)
	VALUES (?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		content_hash = excluded.content_hash,
		last_synced_at = excluded.last_synced_at`,
		path, contentHash, fmtTime(syncedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", path, err)
	}
	return nil
}

// ListDocuments returns all document sync records ordered by path.
func (db *DB) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT path, content_hash, last_synced_at FROM documents ORDER BY path ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var d Document
		var syncedAt string
		if err := rows.Scan(&d.Path, &d.ContentHash, &syncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.LastSyncedAt = parseTime(syncedAt)
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}
