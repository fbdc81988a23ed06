package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/tbushell/kbsync/internal/conflict"
	"github.com/tbushell/kbsync/internal/kb"
	"github.com/tbushell/kbsync/internal/match"
	"github.com/tbushell/kbsync/internal/parse"
	"github.com/tbushell/kbsync/internal/store"
)

// SyncMeetingActions reconciles the Actions tables of meeting documents
// against store tasks. A new task is created for each action row unless
// an existing task matches the same source coordinate, or failing that,
// the shared title matcher finds one among tasks from the same
// document.
func (r *Reconciler) SyncMeetingActions(ctx context.Context, docs []*kb.MeetingDoc) *Result {
	res := &Result{}

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

	for _, doc := range docs {
		r.syncMeetingDoc(ctx, batch, doc, res)
	}

	if batch != nil {
		if err := batch.Commit(); err != nil {
			res.errf("commit batch: %v", err)
		}
	}
	return res
}

func (r *Reconciler) syncMeetingDoc(ctx context.Context, batch *store.Batch, doc *kb.MeetingDoc, res *Result) {
	st, err := r.documentStatus(ctx, doc.Path, doc.Content)
	if err != nil {
		res.errf("document %s: %v", doc.Path, err)
		return
	}
	if st.HasConflict && !r.force {
		res.Conflicts = append(res.Conflicts, doc.Path)
		r.logger.Printf("conflict: %s changed in both file and store since last sync", doc.Path)
		return
	}
	if !st.FileChanged && !r.force {
		res.Skipped += len(doc.Actions)
		return
	}

	now := r.now().UTC()
	for i := range doc.Actions {
		r.syncAction(ctx, batch, doc, &doc.Actions[i], now, res)
	}

	if !r.preview {
		if err := batch.UpsertDocument(doc.Path, st.CurrentHash, now); err != nil {
			res.errf("record sync of %s: %v", doc.Path, err)
		}
	}
}

func (r *Reconciler) syncAction(ctx context.Context, batch *store.Batch, doc *kb.MeetingDoc, a *parse.ParsedAction, now time.Time, res *Result) {
	existing, err := r.findTaskForAction(ctx, batch, doc.Path, a)
	if err != nil {
		res.errf("action %q (%s:%d): %v", a.Action, doc.Path, a.Line, err)
		return
	}

	status := parse.NormalizeActionStatus(a.Status)
	due := r.resolver.Resolve(a.Due)

	if existing == nil {
		res.Created++
		if r.preview {
			return
		}
		task := &store.Task{
			Title:       a.Action,
			Status:      status,
			Owner:       a.Owner,
			DueDate:     due,
			SourceType:  string(parse.SourceMeetingAction),
			SourcePath:  doc.Path,
			SourceLine:  a.Line,
			ProjectSlug: a.Project,
			Org:         doc.Org,

			CreatedAt:    now,
			UpdatedAt:    now,
			LastSyncedAt: &now,
		}
		if err := batch.CreateTask(task); err != nil {
			res.Created--
			res.errf("create action %q (%s:%d): %v", a.Action, doc.Path, a.Line, err)
		}
		return
	}

	res.Found++
	if existing.Title == a.Action && existing.Status == status &&
		existing.Owner == a.Owner && existing.DueDate == due &&
		existing.SourceLine == a.Line {
		res.Skipped++
		return
	}
	res.Updated++
	if r.preview {
		return
	}
	existing.Title = a.Action
	existing.Status = status
	existing.Owner = a.Owner
	existing.DueDate = due
	existing.SourceLine = a.Line
	if err := batch.UpdateTask(existing); err != nil {
		res.Updated--
		res.errf("update action %q (%s:%d): %v", a.Action, doc.Path, a.Line, err)
		return
	}
	if err := batch.MarkTaskSynced(existing.ID, existing.UpdatedAt); err != nil {
		res.errf("mark action %q synced: %v", a.Action, err)
	}
}

// findTaskForAction matches an action row to a store task: exact
// coordinate first, then title containment among the document's
// meeting-action tasks.
func (r *Reconciler) findTaskForAction(ctx context.Context, batch *store.Batch, path string, a *parse.ParsedAction) (*store.Task, error) {
	existing, err := r.findTaskBySource(ctx, batch, path, a.Line, string(parse.SourceMeetingAction))
	if err != nil || existing != nil {
		return existing, err
	}

	siblings, err := r.listTasksByPath(ctx, batch, path)
	if err != nil {
		return nil, err
	}
	prefix := match.TitlePrefix(a.Action)
	if prefix == "" {
		return nil, nil
	}
	for _, cand := range siblings {
		if cand.SourceType != string(parse.SourceMeetingAction) {
			continue
		}
		if strings.Contains(match.Normalize(cand.Title), prefix) {
			return cand, nil
		}
	}
	return nil, nil
}

// documentStatus runs the hash/timestamp divergence check for one
// document path.
func (r *Reconciler) documentStatus(ctx context.Context, path string, content []byte) (conflict.Status, error) {
	doc, err := r.db.GetDocument(ctx, path)
	if err != nil {
		return conflict.Status{}, err
	}
	var storedHash string
	var lastSynced *time.Time
	if doc != nil {
		storedHash = doc.ContentHash
		lastSynced = &doc.LastSyncedAt
	}
	dbUpdated, err := r.db.LatestPendingUpdateForPath(ctx, path)
	if err != nil {
		return conflict.Status{}, err
	}
	return conflict.Detect(content, storedHash, dbUpdated, lastSynced), nil
}
