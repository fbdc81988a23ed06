package store

import (
	"context"
	"fmt"
	"time"
)

// Batch wraps a single transaction for multi-entity sync operations.
//
// Entity-level failures inside a batch are statement-level: a failed
// create or update returns an error for the caller to collect, but the
// transaction stays usable and sibling writes still commit. One bad row
// never rolls back the pass. (SQLite aborts only the failing statement,
// not the enclosing transaction.)
type Batch struct {
	tx  txLike
	ctx context.Context
}

type txLike interface {
	querier
	Commit() error
	Rollback() error
}

// Begin opens a batch transaction.
func (db *DB) Begin(ctx context.Context) (*Batch, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}
	return &Batch{tx: tx, ctx: ctx}, nil
}

// Commit commits every write that succeeded.
func (b *Batch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Rollback discards the batch. Safe to defer after Commit.
func (b *Batch) Rollback() error {
	return b.tx.Rollback()
}

// FindProject is FindProject within the batch transaction.
func (b *Batch) FindProject(slug, org string) (*Project, error) {
	return findProject(b.ctx, b.tx, slug, org)
}

// CreateProject is CreateProject within the batch transaction.
func (b *Batch) CreateProject(p *Project) error {
	return createProject(b.ctx, b.tx, p)
}

// UpdateProject is UpdateProject within the batch transaction.
func (b *Batch) UpdateProject(p *Project) error {
	return updateProject(b.ctx, b.tx, p)
}

// FindTaskBySource is FindTaskBySource within the batch transaction.
func (b *Batch) FindTaskBySource(path string, line int, sourceType string) (*Task, error) {
	return findTaskBySource(b.ctx, b.tx, path, line, sourceType)
}

// CreateTask is CreateTask within the batch transaction.
func (b *Batch) CreateTask(t *Task) error {
	return createTask(b.ctx, b.tx, t)
}

// UpdateTask is UpdateTask within the batch transaction.
func (b *Batch) UpdateTask(t *Task) error {
	return updateTask(b.ctx, b.tx, t)
}

// MarkTaskSynced is MarkTaskSynced within the batch transaction.
func (b *Batch) MarkTaskSynced(id string, at time.Time) error {
	return markTaskSynced(b.ctx, b.tx, id, at)
}

// UpsertDocument is UpsertDocument within the batch transaction.
func (b *Batch) UpsertDocument(path, contentHash string, syncedAt time.Time) error {
	return upsertDocument(b.ctx, b.tx, path, contentHash, syncedAt)
}

// ListTasksByPath is ListTasksByPath within the batch transaction.
func (b *Batch) ListTasksByPath(path string) ([]*Task, error) {
	return listTasks(b.ctx, b.tx,
		`SELECT `+taskColumns+` FROM tasks WHERE source_path = ? ORDER BY source_line ASC`, path)
}
