package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task is a durable task entity synced from a document. SourcePath,
// SourceLine, and SourceType form the source coordinate recorded at
// creation so write-back can locate the originating line later; they
// are updated only by the sync path, never by write-back.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      string
	Owner       string
	DueDate     string // ISO date or ""

	SourceType string
	SourcePath string
	SourceLine int

	// SyntheticID is the per-file {slug}-readme-{n} identifier from the
	// last parse. Display only: it shifts when lines move.
	SyntheticID string

	ProjectSlug   string
	Org           string
	Section       string
	Phase         string
	LinkedProject string

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncedAt *time.Time
}

// Validate checks required fields before a write.
func (t *Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(t.Title))
	}
	if t.Status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

const taskColumns = `id, title, description, status, owner, due_date,
	source_type, source_path, source_line, synthetic_id,
	project_slug, org, section, phase, linked_project,
	created_at, updated_at, last_synced_at`

// FindTaskBySource looks up the task linked to a source coordinate.
// Returns (nil, nil) when no task is linked to it.
func (db *DB) FindTaskBySource(ctx context.Context, path string, line int, sourceType string) (*Task, error) {
	return findTaskBySource(ctx, db.conn, path, line, sourceType)
}

func findTaskBySource(ctx context.Context, q querier, path string, line int, sourceType string) (*Task, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE source_path = ? AND source_line = ? AND source_type = ?`,
		path, line, sourceType)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task at %s:%d: %w", path, line, err)
	}
	return t, nil
}

// ListTasksByPath returns all tasks whose source coordinate points into
// the given document, ordered by line.
func (db *DB) ListTasksByPath(ctx context.Context, path string) ([]*Task, error) {
	return listTasks(ctx, db.conn,
		`SELECT `+taskColumns+` FROM tasks WHERE source_path = ? ORDER BY source_line ASC`, path)
}

// ListTasksPendingWriteBack returns tasks whose store record moved
// after their last sync: the set the write-back stage pushes into
// documents.
func (db *DB) ListTasksPendingWriteBack(ctx context.Context) ([]*Task, error) {
	return listTasks(ctx, db.conn,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE source_path IS NOT NULL AND source_path != ''
		   AND last_synced_at IS NOT NULL AND updated_at > last_synced_at
		 ORDER BY source_path ASC, source_line ASC`)
}

// LatestPendingUpdateForPath returns the newest updated_at among the
// document's tasks whose own last_synced_at has not caught up, or nil
// when every task is settled. Write-back marks tasks synced without
// touching the document record, so the store-changed signal has to be
// per task: comparing against the document's sync time would read a
// completed write-back as a divergence forever.
func (db *DB) LatestPendingUpdateForPath(ctx context.Context, path string) (*time.Time, error) {
	var ns sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT MAX(updated_at) FROM tasks
		 WHERE source_path = ? AND last_synced_at IS NOT NULL AND updated_at > last_synced_at`,
		path).Scan(&ns)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest update for %s: %w", path, err)
	}
	return nullStringToTime(ns), nil
}

// CreateTask inserts a new task. A missing ID is filled with a
// generated UUID; timestamps default to now.
func (db *DB) CreateTask(ctx context.Context, t *Task) error {
	return createTask(ctx, db.conn, t)
}

func createTask(ctx context.Context, q querier, t *Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	_, err := q.ExecContext(ctx, `
	INSERT INTO tasks (`+taskColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Status, t.Owner, t.DueDate,
		t.SourceType, t.SourcePath, t.SourceLine, t.SyntheticID,
		t.ProjectSlug, t.Org, t.Section, t.Phase, t.LinkedProject,
		fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt),
		timeToNullString(t.LastSyncedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create task %q: %w", t.Title, err)
	}
	return nil
}

// UpdateTask rewrites the mutable fields of an existing task, including
// its source coordinate (the sync path re-anchors tasks when lines
// move). last_synced_at is deliberately untouched: only MarkTaskSynced
// moves it, so an update always registers as store-side change until a
// sync or write-back confirms the file agrees.
func (db *DB) UpdateTask(ctx context.Context, t *Task) error {
	return updateTask(ctx, db.conn, t)
}

func updateTask(ctx context.Context, q querier, t *Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	t.UpdatedAt = time.Now().UTC()

	res, err := q.ExecContext(ctx, `
	UPDATE tasks
	SET title = ?, description = ?, status = ?, owner = ?, due_date = ?,
	    source_type = ?, source_path = ?, source_line = ?, synthetic_id = ?,
	    project_slug = ?, org = ?, section = ?, phase = ?, linked_project = ?,
	    updated_at = ?
	WHERE id = ?`,
		t.Title, t.Description, t.Status, t.Owner, t.DueDate,
		t.SourceType, t.SourcePath, t.SourceLine, t.SyntheticID,
		t.ProjectSlug, t.Org, t.Section, t.Phase, t.LinkedProject,
		fmtTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s not found", t.ID)
	}
	return nil
}

// MarkTaskSynced stamps last_synced_at without touching updated_at, so
// a successful sync doesn't itself look like a store-side change.
func (db *DB) MarkTaskSynced(ctx context.Context, id string, at time.Time) error {
	return markTaskSynced(ctx, db.conn, id, at)
}

func markTaskSynced(ctx context.Context, q querier, id string, at time.Time) error {
	_, err := q.ExecContext(ctx,
		`UPDATE tasks SET last_synced_at = ? WHERE id = ?`,
		fmtTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to mark task %s synced: %w", id, err)
	}
	return nil
}

// CountTasks returns the number of stored tasks.
func (db *DB) CountTasks(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

func listTasks(ctx context.Context, q querier, query string, args ...any) ([]*Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var desc, owner, due, srcType, srcPath, synthetic sql.NullString
	var slug, org, section, phase, linked sql.NullString
	var createdAt, updatedAt string
	var lastSynced sql.NullString

	err := row.Scan(&t.ID, &t.Title, &desc, &t.Status, &owner, &due,
		&srcType, &srcPath, &t.SourceLine, &synthetic,
		&slug, &org, &section, &phase, &linked,
		&createdAt, &updatedAt, &lastSynced)
	if err != nil {
		return nil, err
	}
	t.Description = desc.String
	t.Owner = owner.String
	t.DueDate = due.String
	t.SourceType = srcType.String
	t.SourcePath = srcPath.String
	t.SyntheticID = synthetic.String
	t.ProjectSlug = slug.String
	t.Org = org.String
	t.Section = section.String
	t.Phase = phase.String
	t.LinkedProject = linked.String
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.LastSyncedAt = nullStringToTime(lastSynced)
	return &t, nil
}
