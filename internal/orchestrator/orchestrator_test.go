package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbushell/kbsync/internal/kb"
	"github.com/tbushell/kbsync/internal/store"
)

const readmeDoc = `---
title: Alpha
status: active
---
# Alpha

## Status

- [ ] Ship report
- 🟢 **Phase 1 kickoff** — underway
`

const meetingNote = `---
title: Weekly Sync
date: 2026-01-12
projects: [alpha]
---
## Actions

| Owner | Action | Due | Status |
|---|---|---|---|
| Alice | Draft budget | 2026-01-20 | Pending |
`

// setupWorld builds a store, a knowledge-base tree on disk, and an
// orchestrator over both.
func setupWorld(t *testing.T) (*Orchestrator, *store.DB, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "kbsync.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}

	root := filepath.Join(dir, "kb")
	write(t, root, "acme/projects/alpha/README.md", readmeDoc)
	write(t, root, "acme/meetings/2026/01/sync.md", meetingNote)

	o := New(db, kb.NewScanner(root, nil), nil, nil)
	return o, db, root
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func read(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(b)
}

func TestSyncAllApply(t *testing.T) {
	o, db, _ := setupWorld(t)
	ctx := context.Background()

	summary, err := o.SyncAll(ctx, Options{Mode: ModeApply})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if errs := summary.Errors(); len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if summary.Projects.Created != 3 {
		t.Errorf("projects stage created = %d, want project + two tasks", summary.Projects.Created)
	}
	if summary.Actions.Created != 1 {
		t.Errorf("actions stage created = %d, want 1", summary.Actions.Created)
	}

	n, err := db.CountTasks(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("store holds %d tasks, want 3", n)
	}
}

func TestSyncAllPreviewWritesNothing(t *testing.T) {
	o, db, _ := setupWorld(t)
	ctx := context.Background()

	summary, err := o.SyncAll(ctx, Options{Mode: ModePreview})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if summary.Projects.Created == 0 {
		t.Error("preview reported no intended creates")
	}
	if n, _ := db.CountTasks(ctx); n != 0 {
		t.Errorf("preview wrote %d tasks", n)
	}
	if n, _ := db.CountProjects(ctx); n != 0 {
		t.Errorf("preview wrote %d projects", n)
	}
}

func TestSyncAllMissingRootIsHardError(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	o := New(db, kb.NewScanner(filepath.Join(t.TempDir(), "absent"), nil), nil, nil)
	if _, err := o.SyncAll(context.Background(), Options{Mode: ModeApply}); err == nil {
		t.Error("missing root must fail the whole pass")
	}
}

func TestWriteBackFlow(t *testing.T) {
	o, db, root := setupWorld(t)
	ctx := context.Background()

	if _, err := o.SyncAll(ctx, Options{Mode: ModeApply}); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	// Store-side completion.
	rel := "acme/projects/alpha/README.md"
	task, err := db.FindTaskBySource(ctx, rel, 9, "checkbox")
	if err != nil || task == nil {
		t.Fatalf("task: %v, %v", task, err)
	}
	task.Status = "completed"
	if err := db.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}

	summary, err := o.SyncAll(ctx, Options{Mode: ModeApply, WriteBack: true})
	if err != nil {
		t.Fatalf("write-back sync: %v", err)
	}
	if summary.WriteBack == nil || summary.WriteBack.Written != 1 {
		t.Fatalf("write-back = %+v, want one write", summary.WriteBack)
	}

	if !strings.Contains(read(t, root, rel), "- [x] Ship report") {
		t.Error("checkbox not checked in the document")
	}

	// The pending queue drains.
	pending, err := db.ListTasksPendingWriteBack(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("%d tasks still pending after write-back", len(pending))
	}
}

func TestWriteBackPreviewCountsOnly(t *testing.T) {
	o, db, root := setupWorld(t)
	ctx := context.Background()

	if _, err := o.SyncAll(ctx, Options{Mode: ModeApply}); err != nil {
		t.Fatalf("initial sync: %v", err)
	}
	rel := "acme/projects/alpha/README.md"
	before := read(t, root, rel)

	task, _ := db.FindTaskBySource(ctx, rel, 9, "checkbox")
	task.Status = "completed"
	if err := db.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}

	summary, err := o.SyncAll(ctx, Options{Mode: ModePreview, WriteBack: true})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if summary.WriteBack.Attempted != 1 || summary.WriteBack.Written != 0 {
		t.Errorf("write-back preview = %+v", summary.WriteBack)
	}
	if read(t, root, rel) != before {
		t.Error("preview modified the document")
	}
}

func TestMeetingActionWriteBack(t *testing.T) {
	o, db, root := setupWorld(t)
	ctx := context.Background()

	if _, err := o.SyncAll(ctx, Options{Mode: ModeApply}); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	rel := "acme/meetings/2026/01/sync.md"
	task, err := db.FindTaskBySource(ctx, rel, 10, "meeting_action")
	if err != nil || task == nil {
		t.Fatalf("action task: %v, %v", task, err)
	}
	task.Status = "completed"
	if err := db.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}

	summary, err := o.SyncAll(ctx, Options{Mode: ModeApply, WriteBack: true})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if summary.WriteBack.Written != 1 {
		t.Fatalf("write-back = %+v", summary.WriteBack)
	}
	if !strings.Contains(read(t, root, rel), "| Done |") {
		t.Errorf("status cell not rewritten: %q", read(t, root, rel))
	}
}

func TestConflictListAndResolveFile(t *testing.T) {
	o, db, root := setupWorld(t)
	ctx := context.Background()

	if _, err := o.SyncAll(ctx, Options{Mode: ModeApply}); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	rel := "acme/projects/alpha/README.md"
	task, _ := db.FindTaskBySource(ctx, rel, 9, "checkbox")
	task.Status = "completed"
	if err := db.UpdateTask(ctx, task); err != nil {
		t.Fatalf("store edit: %v", err)
	}
	write(t, root, rel, strings.Replace(readmeDoc, "- [ ] Ship report", "- [x] Ship report", 1))

	summary, err := o.SyncAll(ctx, Options{Mode: ModeApply})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(summary.Conflicts) != 1 {
		t.Fatalf("conflicts = %v, want the README", summary.Conflicts)
	}

	listed, err := o.ListConflicts(ctx)
	if err != nil {
		t.Fatalf("list conflicts: %v", err)
	}
	if len(listed) != 1 || listed[0].Path != rel {
		t.Fatalf("listed = %+v", listed)
	}
	if !listed[0].FileChanged || !listed[0].DBChanged {
		t.Errorf("conflict flags = %+v, want both sides", listed[0])
	}

	res, err := o.ResolveConflict(ctx, rel, WinnerFile)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("resolve errors: %v", res.Errors)
	}

	got, _ := db.FindTaskBySource(ctx, rel, 9, "checkbox")
	if got.Status != "completed" {
		t.Errorf("status = %q, want the file's checked state", got.Status)
	}

	listed, err = o.ListConflicts(ctx)
	if err != nil {
		t.Fatalf("relist: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("conflict not cleared by resolution: %+v", listed)
	}
}

func TestResolveDatabaseWinner(t *testing.T) {
	o, db, root := setupWorld(t)
	ctx := context.Background()

	if _, err := o.SyncAll(ctx, Options{Mode: ModeApply}); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	rel := "acme/projects/alpha/README.md"
	task, _ := db.FindTaskBySource(ctx, rel, 9, "checkbox")
	task.Status = "completed"
	if err := db.UpdateTask(ctx, task); err != nil {
		t.Fatalf("store edit: %v", err)
	}
	// File edited elsewhere in the document.
	write(t, root, rel, readmeDoc+"\nExtra paragraph.\n")

	res, err := o.ResolveConflict(ctx, rel, WinnerDatabase)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("resolve errors: %v", res.Errors)
	}

	got := read(t, root, rel)
	if !strings.Contains(got, "- [x] Ship report") {
		t.Error("store status not written into the document")
	}
	if !strings.Contains(got, "Extra paragraph.") {
		t.Error("unrelated file edit lost during resolution")
	}

	listed, err := o.ListConflicts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("conflict not cleared: %+v", listed)
	}
}

func TestResolveUnknownWinner(t *testing.T) {
	o, _, _ := setupWorld(t)
	if _, err := o.ResolveConflict(context.Background(), "x.md", Winner("coin-flip")); err == nil {
		t.Error("unknown winner accepted")
	}
}
