// Package orchestrator drives a full document↔store sync pass: scan
// the knowledge-base tree, reconcile projects and meeting actions into
// the store, and optionally push store status changes back into the
// documents.
//
// The orchestrator is the only component that touches both the
// document tree and the store. Work is sequential: documents are
// processed one at a time, which keeps line-addressed write-backs free
// of interleaving hazards.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tbushell/kbsync/internal/kb"
	"github.com/tbushell/kbsync/internal/parse"
	"github.com/tbushell/kbsync/internal/reconcile"
	"github.com/tbushell/kbsync/internal/store"
	"github.com/tbushell/kbsync/internal/writeback"
)

// Mode selects between computing intended changes and applying them.
type Mode string

const (
	// ModePreview runs parsing and matching, reports intended
	// create/update/skip/conflict counts, and mutates nothing.
	ModePreview Mode = "preview"
	// ModeApply performs the writes.
	ModeApply Mode = "apply"
)

// Options configures one sync pass.
type Options struct {
	Mode      Mode
	Org       string // restrict to one organization; "" = all
	WriteBack bool   // run the document write-back stage
}

// WriteBackResult aggregates the write-back stage.
type WriteBackResult struct {
	Attempted  int      `json:"attempted" yaml:"attempted"`
	Written    int      `json:"written" yaml:"written"`
	Skipped    int      `json:"skipped" yaml:"skipped"`
	Advisories []string `json:"advisories,omitempty" yaml:"advisories,omitempty"`
	Errors     []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Summary is the aggregate result of a full pass: one result per
// stage. A stage's internal per-entity errors never prevent later
// stages from running.
type Summary struct {
	Mode      Mode              `json:"mode" yaml:"mode"`
	Projects  *reconcile.Result `json:"projects" yaml:"projects"`
	Actions   *reconcile.Result `json:"actions" yaml:"actions"`
	WriteBack *WriteBackResult  `json:"write_back,omitempty" yaml:"write_back,omitempty"`
	Conflicts []string          `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

// Errors flattens all stage errors for callers that only care whether
// anything went wrong.
func (s *Summary) Errors() []string {
	var errs []string
	if s.Projects != nil {
		errs = append(errs, s.Projects.Errors...)
	}
	if s.Actions != nil {
		errs = append(errs, s.Actions.Errors...)
	}
	if s.WriteBack != nil {
		errs = append(errs, s.WriteBack.Errors...)
	}
	return errs
}

// Orchestrator coordinates the scanner, reconciler, write-back engine,
// and store for a pass. It holds the open store handle and is the
// explicit session state for a sync; there are no package-level
// singletons.
type Orchestrator struct {
	db       *store.DB
	scanner  *kb.Scanner
	engine   *writeback.Engine
	notifier Notifier
	logger   *log.Logger
}

// New creates an Orchestrator. logger may be nil (defaults to stderr);
// notifier may be nil (defaults to the no-op notifier).
func New(db *store.DB, scanner *kb.Scanner, notifier Notifier, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Orchestrator{
		db:       db,
		scanner:  scanner,
		engine:   writeback.New(logger),
		notifier: notifier,
		logger:   logger,
	}
}

// SyncAll runs a full pass: project scan, then meeting-action sync,
// then (optionally) status write-back. The only hard failure is the
// whole-pass precondition of a missing knowledge-base root; everything
// else lands in the per-stage error lists.
func (o *Orchestrator) SyncAll(ctx context.Context, opts Options) (*Summary, error) {
	if err := o.scanner.CheckRoot(); err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = ModePreview
	}
	preview := opts.Mode == ModePreview
	rec := reconcile.New(o.db, o.logger, preview)
	summary := &Summary{Mode: opts.Mode}

	projects, scanErrs, err := o.scanner.ScanProjects(ctx, opts.Org)
	if err != nil {
		return nil, err
	}
	summary.Projects = rec.SyncProjects(ctx, projects)
	summary.Projects.Errors = append(scanErrs, summary.Projects.Errors...)
	o.logger.Printf("projects: found=%d created=%d updated=%d skipped=%d errors=%d",
		summary.Projects.Found, summary.Projects.Created, summary.Projects.Updated,
		summary.Projects.Skipped, len(summary.Projects.Errors))

	meetings, scanErrs, err := o.scanner.ScanMeetings(ctx, opts.Org)
	if err != nil {
		return nil, err
	}
	summary.Actions = rec.SyncMeetingActions(ctx, meetings)
	summary.Actions.Errors = append(scanErrs, summary.Actions.Errors...)
	o.logger.Printf("actions: found=%d created=%d updated=%d skipped=%d errors=%d",
		summary.Actions.Found, summary.Actions.Created, summary.Actions.Updated,
		summary.Actions.Skipped, len(summary.Actions.Errors))

	summary.Conflicts = append(summary.Conflicts, summary.Projects.Conflicts...)
	summary.Conflicts = append(summary.Conflicts, summary.Actions.Conflicts...)

	if opts.WriteBack {
		summary.WriteBack = o.writeBackPending(ctx, preview)
	}

	return summary, nil
}

// writeBackPending pushes store-side status changes into documents for
// every task whose record moved after its last sync.
func (o *Orchestrator) writeBackPending(ctx context.Context, preview bool) *WriteBackResult {
	res := &WriteBackResult{}

	pending, err := o.db.ListTasksPendingWriteBack(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list pending write-back: %v", err))
		return res
	}
	res.Attempted = len(pending)
	if preview {
		return res
	}

	for _, t := range pending {
		outcome, err := o.writeBackTask(t)
		if err != nil {
			// WriteError: caught per document, never aborts the batch.
			res.Errors = append(res.Errors, fmt.Sprintf("write-back %q (%s:%d): %v",
				t.Title, t.SourcePath, t.SourceLine, err))
			continue
		}
		if outcome.Written {
			res.Written++
		} else {
			res.Skipped++
			if outcome.Advisory != "" {
				res.Advisories = append(res.Advisories, fmt.Sprintf("%s:%d: %s",
					t.SourcePath, t.SourceLine, outcome.Advisory))
			}
		}

		// The store state now reflects (or never needed reflecting in)
		// the file; clear the pending flag either way. The document
		// hash is deliberately left stale: only the sync path records
		// document state.
		if err := o.db.MarkTaskSynced(ctx, t.ID, t.UpdatedAt); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("mark %q synced: %v", t.Title, err))
		}

		if outcome.Written && parse.IsDone(t.Status) {
			// Fire and forget: the diary sink must never fail a sync.
			o.notifier.TaskCompleted(ctx, t)
		}
	}

	return res
}

func (o *Orchestrator) writeBackTask(t *store.Task) (writeback.Outcome, error) {
	return o.engine.Apply(writeback.Request{
		Path:       o.scanner.AbsPath(t.SourcePath),
		RelPath:    t.SourcePath,
		Line:       t.SourceLine,
		SourceType: parse.SourceType(t.SourceType),
		Title:      t.Title,
		Status:     t.Status,
	})
}
