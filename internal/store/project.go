package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Project is a durable project entity. Projects are keyed by the
// composite (Slug, Org); ID is store-generated.
type Project struct {
	ID           string
	Slug         string
	Org          string
	Name         string
	Status       string
	Priority     int
	IsSubProject bool
	ParentID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks required fields before a write.
func (p *Project) Validate() error {
	if p.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	if p.Org == "" {
		return fmt.Errorf("org is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Priority < 0 || p.Priority > 4 {
		return fmt.Errorf("priority must be between 0 and 4 (got %d)", p.Priority)
	}
	if p.IsSubProject && p.ParentID == "" {
		return fmt.Errorf("sub-project requires a resolved parent")
	}
	return nil
}

const projectColumns = `id, slug, org, name, status, priority, is_sub_project, parent_id, created_at, updated_at`

// FindProject looks up a project by its composite key. Returns
// (nil, nil) when no row matches: absence is the caller's decision to
// surface, not an error.
func (db *DB) FindProject(ctx context.Context, slug, org string) (*Project, error) {
	return findProject(ctx, db.conn, slug, org)
}

func findProject(ctx context.Context, q querier, slug, org string) (*Project, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE slug = ? AND org = ?`, slug, org)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project %s/%s: %w", org, slug, err)
	}
	return p, nil
}

// CreateProject inserts a new project. A missing ID is filled with a
// generated UUID; timestamps default to now.
func (db *DB) CreateProject(ctx context.Context, p *Project) error {
	return createProject(ctx, db.conn, p)
}

func createProject(ctx context.Context, q querier, p *Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}

	_, err := q.ExecContext(ctx, `
	INSERT INTO projects (`+projectColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Org, p.Name, p.Status, p.Priority,
		boolToInt(p.IsSubProject), nullIfEmpty(p.ParentID),
		fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create project %s/%s: %w", p.Org, p.Slug, err)
	}
	return nil
}

// UpdateProject rewrites the mutable fields of an existing project.
func (db *DB) UpdateProject(ctx context.Context, p *Project) error {
	return updateProject(ctx, db.conn, p)
}

func updateProject(ctx context.Context, q querier, p *Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	p.UpdatedAt = time.Now().UTC()

	res, err := q.ExecContext(ctx, `
	UPDATE projects
	SET name = ?, status = ?, priority = ?, is_sub_project = ?, parent_id = ?, updated_at = ?
	WHERE slug = ? AND org = ?`,
		p.Name, p.Status, p.Priority, boolToInt(p.IsSubProject),
		nullIfEmpty(p.ParentID), fmtTime(p.UpdatedAt),
		p.Slug, p.Org,
	)
	if err != nil {
		return fmt.Errorf("failed to update project %s/%s: %w", p.Org, p.Slug, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s/%s not found", p.Org, p.Slug)
	}
	return nil
}

// ListProjects returns projects, optionally filtered by org, ordered by
// org then slug.
func (db *DB) ListProjects(ctx context.Context, org string) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	var args []any
	if org != "" {
		query += ` WHERE org = ?`
		args = append(args, org)
	}
	query += ` ORDER BY org ASC, slug ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// CountProjects returns the number of stored projects.
func (db *DB) CountProjects(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var isSub int
	var parent sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Slug, &p.Org, &p.Name, &p.Status, &p.Priority,
		&isSub, &parent, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.IsSubProject = isSub != 0
	p.ParentID = parent.String
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
