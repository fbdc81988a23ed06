package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/tbushell/kbsync/internal/kb"
	"github.com/tbushell/kbsync/internal/match"
	"github.com/tbushell/kbsync/internal/parse"
	"github.com/tbushell/kbsync/internal/store"
)

// SyncProjects reconciles scanned projects (and the tasks extracted
// from their documents) against the store.
//
// Processing order is strict: all non-sub-project entities first, so
// parents exist in the store, then all sub-projects, so parent lookups
// succeed. All writes for the pass share one batch transaction; an
// entity failure inside it is collected and siblings still commit.
func (r *Reconciler) SyncProjects(ctx context.Context, projects []*kb.ProjectInfo) *Result {
	res := &Result{}

	var parents, subs []*kb.ProjectInfo
	for _, p := range projects {
		if p.IsSubProject {
			subs = append(subs, p)
		} else {
			parents = append(parents, p)
		}
	}

	var batch *store.Batch
	if !r.preview {
		b, err := r.db.Begin(ctx)
		if err != nil {
			res.errf("begin batch: %v", err)
			return res
		}
		defer b.Rollback()
		batch = b
	}

	// Preview issues no writes, so a sub-project's parent lookup would
	// miss any parent this same pass decided to create. Tracking those
	// decisions keeps preview counts equal to apply counts.
	var planned map[string]bool
	if r.preview {
		planned = make(map[string]bool)
	}

	for _, p := range append(parents, subs...) {
		r.syncProject(ctx, batch, p, planned, res)
	}

	if batch != nil {
		if err := batch.Commit(); err != nil {
			res.errf("commit batch: %v", err)
		}
	}
	return res
}

// syncProject reconciles one project entity and then its document's
// extracted tasks. Failures are appended to res and never abort the
// batch.
func (r *Reconciler) syncProject(ctx context.Context, batch *store.Batch, p *kb.ProjectInfo, planned map[string]bool, res *Result) {
	existing, err := r.findProject(ctx, batch, p.Slug, p.Org)
	if err != nil {
		res.errf("project %s/%s: %v", p.Org, p.Slug, err)
		return
	}

	entity := &store.Project{
		Slug:         p.Slug,
		Org:          p.Org,
		Name:         p.Name,
		Status:       p.Status,
		Priority:     p.Priority,
		IsSubProject: p.IsSubProject,
	}
	if p.IsSubProject {
		parent, err := r.findProject(ctx, batch, p.ParentSlug, p.Org)
		if err != nil {
			res.errf("sub-project %s/%s: resolve parent: %v", p.Org, p.Slug, err)
			return
		}
		switch {
		case parent != nil:
			entity.ParentID = parent.ID
		case planned[projectKey(p.ParentSlug, p.Org)]:
			// The parent is a create this preview has already counted;
			// apply would resolve it, so the count stands.
		default:
			// The parent must already hold a store identifier; a
			// missing parent is an entity error, not a reason to
			// invent one.
			res.errf("sub-project %s/%s: parent %s not found", p.Org, p.Slug, p.ParentSlug)
			return
		}
	}

	switch {
	case existing == nil:
		res.Created++
		if planned != nil {
			planned[projectKey(p.Slug, p.Org)] = true
		}
		if !r.preview {
			if err := batch.CreateProject(entity); err != nil {
				res.Created--
				res.errf("create project %s/%s: %v", p.Org, p.Slug, err)
				return
			}
		}
	default:
		res.Found++
		// Priority differences alone do not force a store write; the
		// contract compares only name and normalized status.
		if existing.Name != p.Name || existing.Status != p.Status {
			res.Updated++
			if !r.preview {
				entity.ID = existing.ID
				if err := batch.UpdateProject(entity); err != nil {
					res.Updated--
					res.errf("update project %s/%s: %v", p.Org, p.Slug, err)
					return
				}
			}
		} else {
			res.Skipped++
		}
	}

	r.syncDocumentTasks(ctx, batch, p, res)
}

// syncDocumentTasks reconciles the tasks extracted from one project
// document, guarded by the conflict check: a document that diverged on
// both sides is surfaced and left alone.
func (r *Reconciler) syncDocumentTasks(ctx context.Context, batch *store.Batch, p *kb.ProjectInfo, res *Result) {
	st, err := r.documentStatus(ctx, p.Path, p.Content)
	if err != nil {
		res.errf("document %s: %v", p.Path, err)
		return
	}
	if st.HasConflict && !r.force {
		res.Conflicts = append(res.Conflicts, p.Path)
		r.logger.Printf("conflict: %s changed in both file and store since last sync", p.Path)
		return
	}
	if !st.FileChanged && !r.force {
		// Nothing moved on the file side; re-stamping entities would
		// only churn updated_at.
		res.Skipped += len(p.Tasks)
		return
	}

	now := r.now().UTC()
	for i := range p.Tasks {
		r.syncExtractedTask(ctx, batch, &p.Tasks[i], now, res)
	}

	if !r.preview {
		if err := batch.UpsertDocument(p.Path, st.CurrentHash, now); err != nil {
			res.errf("record sync of %s: %v", p.Path, err)
		}
	}
}

// syncExtractedTask maps one extracted task onto a store task: exact
// source-coordinate match first, then the shared title matcher against
// tasks from the same document, else create.
func (r *Reconciler) syncExtractedTask(ctx context.Context, batch *store.Batch, t *parse.ExtractedTask, now time.Time, res *Result) {
	existing, err := r.findTaskForExtract(ctx, batch, t)
	if err != nil {
		res.errf("task %q (%s:%d): %v", t.Title, t.SourcePath, t.SourceLine, err)
		return
	}

	if existing == nil {
		res.Created++
		if r.preview {
			return
		}
		task := &store.Task{
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			SourceType:  string(t.SourceType),
			SourcePath:  t.SourcePath,
			SourceLine:  t.SourceLine,
			SyntheticID: t.ID,
			ProjectSlug: t.ProjectSlug,
			Org:         t.Org,
			Section:     t.Section,
			Phase:       t.Phase,

			LinkedProject: t.LinkedProject,

			// Stamping all three to the same instant keeps freshly
			// synced tasks out of the pending write-back set.
			CreatedAt:    now,
			UpdatedAt:    now,
			LastSyncedAt: &now,
		}
		if err := batch.CreateTask(task); err != nil {
			res.Created--
			res.errf("create task %q (%s:%d): %v", t.Title, t.SourcePath, t.SourceLine, err)
		}
		return
	}

	res.Found++
	if taskUnchanged(existing, t) {
		res.Skipped++
		return
	}
	res.Updated++
	if r.preview {
		return
	}
	existing.Title = t.Title
	existing.Description = t.Description
	existing.Status = t.Status
	existing.SourceType = string(t.SourceType)
	existing.SourcePath = t.SourcePath
	existing.SourceLine = t.SourceLine
	existing.SyntheticID = t.ID
	existing.Section = t.Section
	existing.Phase = t.Phase
	existing.LinkedProject = t.LinkedProject
	if err := batch.UpdateTask(existing); err != nil {
		res.Updated--
		res.errf("update task %q (%s:%d): %v", t.Title, t.SourcePath, t.SourceLine, err)
		return
	}
	// The file is the source of this update, so the task is in sync
	// the moment the write lands.
	if err := batch.MarkTaskSynced(existing.ID, existing.UpdatedAt); err != nil {
		res.errf("mark task %q synced: %v", t.Title, err)
	}
}

// findTaskForExtract applies the shared matcher order: exact coordinate
// first, then bounded-title containment among tasks of the same type in
// the same document.
func (r *Reconciler) findTaskForExtract(ctx context.Context, batch *store.Batch, t *parse.ExtractedTask) (*store.Task, error) {
	existing, err := r.findTaskBySource(ctx, batch, t.SourcePath, t.SourceLine, string(t.SourceType))
	if err != nil || existing != nil {
		return existing, err
	}

	siblings, err := r.listTasksByPath(ctx, batch, t.SourcePath)
	if err != nil {
		return nil, err
	}
	prefix := match.TitlePrefix(t.Title)
	if prefix == "" {
		return nil, nil
	}
	for _, cand := range siblings {
		if cand.SourceType != string(t.SourceType) {
			continue
		}
		if strings.Contains(match.Normalize(cand.Title), prefix) {
			return cand, nil
		}
	}
	return nil, nil
}

// taskUnchanged reports whether a store task already reflects the
// extracted record, source coordinate included.
func taskUnchanged(s *store.Task, t *parse.ExtractedTask) bool {
	return s.Title == t.Title &&
		s.Description == t.Description &&
		s.Status == t.Status &&
		s.SourceLine == t.SourceLine &&
		s.Section == t.Section &&
		s.Phase == t.Phase &&
		s.SyntheticID == t.ID
}

func projectKey(slug, org string) string {
	return org + "/" + slug
}

// The find/list helpers route through the batch when one is open so
// apply-mode reads see the batch's own writes; preview mode reads the
// database directly.

func (r *Reconciler) findProject(ctx context.Context, batch *store.Batch, slug, org string) (*store.Project, error) {
	if batch != nil {
		return batch.FindProject(slug, org)
	}
	return r.db.FindProject(ctx, slug, org)
}

func (r *Reconciler) findTaskBySource(ctx context.Context, batch *store.Batch, path string, line int, sourceType string) (*store.Task, error) {
	if batch != nil {
		return batch.FindTaskBySource(path, line, sourceType)
	}
	return r.db.FindTaskBySource(ctx, path, line, sourceType)
}

func (r *Reconciler) listTasksByPath(ctx context.Context, batch *store.Batch, path string) ([]*store.Task, error) {
	if batch != nil {
		return batch.ListTasksByPath(path)
	}
	return r.db.ListTasksByPath(ctx, path)
}
