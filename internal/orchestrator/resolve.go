package orchestrator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tbushell/kbsync/internal/conflict"
	"github.com/tbushell/kbsync/internal/kb"
	"github.com/tbushell/kbsync/internal/parse"
	"github.com/tbushell/kbsync/internal/reconcile"
	"github.com/tbushell/kbsync/internal/writeback"
)

// Winner names which side of a diverged document survives resolution.
type Winner string

const (
	// WinnerFile re-syncs the document into the store, discarding
	// store-side edits made since the last sync.
	WinnerFile Winner = "file"
	// WinnerDatabase writes store statuses back into the document,
	// discarding file-side edits to the tracked lines.
	WinnerDatabase Winner = "database"
)

// ConflictInfo describes one diverged document.
type ConflictInfo struct {
	Path         string    `json:"path" yaml:"path"`
	FileChanged  bool      `json:"file_changed" yaml:"file_changed"`
	DBChanged    bool      `json:"db_changed" yaml:"db_changed"`
	LastSyncedAt time.Time `json:"last_synced_at" yaml:"last_synced_at"`
}

// ListConflicts re-checks every synced document against its current
// file content and returns the ones where both sides moved. Documents
// whose file has disappeared are reported as conflicts too, with
// FileChanged set.
func (o *Orchestrator) ListConflicts(ctx context.Context) ([]*ConflictInfo, error) {
	docs, err := o.db.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var out []*ConflictInfo
	for _, d := range docs {
		content, readErr := os.ReadFile(o.scanner.AbsPath(d.Path))
		if readErr != nil && !os.IsNotExist(readErr) {
			return nil, fmt.Errorf("read %s: %w", d.Path, readErr)
		}

		latest, err := o.db.LatestPendingUpdateForPath(ctx, d.Path)
		if err != nil {
			return nil, fmt.Errorf("latest update for %s: %w", d.Path, err)
		}

		st := conflict.Detect(content, d.ContentHash, latest, &d.LastSyncedAt)
		if os.IsNotExist(readErr) {
			st.FileChanged = true
			st.HasConflict = st.DBChanged
		}
		if !st.HasConflict {
			continue
		}
		out = append(out, &ConflictInfo{
			Path:         d.Path,
			FileChanged:  st.FileChanged,
			DBChanged:    st.DBChanged,
			LastSyncedAt: d.LastSyncedAt,
		})
	}
	return out, nil
}

// ResolveConflict settles one diverged document in favor of the chosen
// winner. Resolution is a real sync: afterwards the document record
// carries the fresh hash and its tasks are no longer pending either
// direction.
func (o *Orchestrator) ResolveConflict(ctx context.Context, relPath string, winner Winner) (*reconcile.Result, error) {
	switch winner {
	case WinnerFile:
		return o.resolveWithFile(ctx, relPath)
	case WinnerDatabase:
		return o.resolveWithDatabase(ctx, relPath)
	default:
		return nil, fmt.Errorf("unknown winner %q (want %q or %q)", winner, WinnerFile, WinnerDatabase)
	}
}

// resolveWithFile re-runs the sync for a single document with the
// conflict gate bypassed, so the file state overwrites the store.
func (o *Orchestrator) resolveWithFile(ctx context.Context, relPath string) (*reconcile.Result, error) {
	rec := reconcile.New(o.db, o.logger, false).Forced()

	if isMeetingPath(relPath) {
		doc, err := o.scanner.LoadMeeting(relPath)
		if err != nil {
			return nil, err
		}
		return rec.SyncMeetingActions(ctx, []*kb.MeetingDoc{doc}), nil
	}

	p, err := o.scanner.LoadProject(relPath)
	if err != nil {
		return nil, err
	}
	return rec.SyncProjects(ctx, []*kb.ProjectInfo{p}), nil
}

// resolveWithDatabase pushes the store status of every task sourced
// from the document back into the file, then records the post-write
// content as the new synced state.
func (o *Orchestrator) resolveWithDatabase(ctx context.Context, relPath string) (*reconcile.Result, error) {
	tasks, err := o.db.ListTasksByPath(ctx, relPath)
	if err != nil {
		return nil, fmt.Errorf("list tasks for %s: %w", relPath, err)
	}

	res := &reconcile.Result{Found: len(tasks)}
	for _, t := range tasks {
		outcome, err := o.engine.Apply(writeback.Request{
			Path:       o.scanner.AbsPath(relPath),
			RelPath:    relPath,
			Line:       t.SourceLine,
			SourceType: parse.SourceType(t.SourceType),
			Title:      t.Title,
			Status:     t.Status,
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("write-back %q: %v", t.Title, err))
			continue
		}
		if outcome.Written {
			res.Updated++
		} else {
			res.Skipped++
		}
		if err := o.db.MarkTaskSynced(ctx, t.ID, t.UpdatedAt); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("mark %q synced: %v", t.Title, err))
		}
	}

	// Unlike ordinary write-back, resolution closes the loop: the file
	// now agrees with the store, so record its content as synced.
	content, err := os.ReadFile(o.scanner.AbsPath(relPath))
	if err != nil {
		return res, fmt.Errorf("read %s after write-back: %w", relPath, err)
	}
	if err := o.db.UpsertDocument(ctx, relPath, conflict.ContentHash(content), time.Now()); err != nil {
		return res, fmt.Errorf("record %s: %w", relPath, err)
	}
	return res, nil
}

func isMeetingPath(relPath string) bool {
	parts := strings.SplitN(relPath, "/", 3)
	return len(parts) >= 2 && parts[1] == "meetings"
}
