package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	return db
}

func testProject(slug string) *Project {
	return &Project{
		Slug:     slug,
		Org:      "acme",
		Name:     "Project " + slug,
		Status:   "active",
		Priority: 2,
	}
}

func testTask(path string, line int) *Task {
	return &Task{
		Title:       "Ship report",
		Status:      "pending",
		SourceType:  "checkbox",
		SourcePath:  path,
		SourceLine:  line,
		ProjectSlug: "alpha",
		Org:         "acme",
	}
}

func TestProjectCreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p := testProject("alpha")
	if err := db.CreateProject(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("create did not assign an ID")
	}

	got, err := db.FindProject(ctx, "alpha", "acme")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil {
		t.Fatal("project not found after create")
	}
	if got.Name != p.Name || got.Status != "active" || got.Priority != 2 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestFindProjectAbsent(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.FindProject(context.Background(), "ghost", "acme")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for absent project", got)
	}
}

func TestProjectCompositeKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := testProject("alpha")
	if err := db.CreateProject(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Same slug under a different org is a distinct project.
	b := testProject("alpha")
	b.Org = "umbrella"
	if err := db.CreateProject(ctx, b); err != nil {
		t.Fatalf("create same slug other org: %v", err)
	}

	got, err := db.FindProject(ctx, "alpha", "umbrella")
	if err != nil || got == nil {
		t.Fatalf("find umbrella/alpha: %v, %v", got, err)
	}
	if got.ID == a.ID {
		t.Error("composite key collapsed two orgs into one project")
	}
}

func TestSubProjectRequiresParent(t *testing.T) {
	db := setupTestDB(t)

	p := testProject("child")
	p.IsSubProject = true
	if err := db.CreateProject(context.Background(), p); err == nil {
		t.Error("expected validation error for sub-project without parent")
	}
}

func TestTaskSourceCoordinate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := testTask("acme/projects/alpha/README.md", 5)
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := db.FindTaskBySource(ctx, "acme/projects/alpha/README.md", 5, "checkbox")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil {
		t.Fatal("task not found by source coordinate")
	}
	if got.Title != "Ship report" {
		t.Errorf("title = %q", got.Title)
	}

	// Same line, different source type: no match.
	miss, err := db.FindTaskBySource(ctx, "acme/projects/alpha/README.md", 5, "status_marker")
	if err != nil {
		t.Fatalf("find other type: %v", err)
	}
	if miss != nil {
		t.Errorf("source type not part of the coordinate: got %+v", miss)
	}
}

func TestDuplicateSourceCoordinateRejected(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.CreateTask(ctx, testTask("p.md", 5)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.CreateTask(ctx, testTask("p.md", 5)); err == nil {
		t.Error("second task on the same source coordinate must fail")
	}
}

func TestUpdateTaskLeavesLastSyncedAlone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := testTask("p.md", 5)
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.LastSyncedAt = &now
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	task.Status = "completed"
	if err := db.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := db.FindTaskBySource(ctx, "p.md", 5, "checkbox")
	if err != nil || got == nil {
		t.Fatalf("find: %v, %v", got, err)
	}
	if got.LastSyncedAt == nil {
		t.Fatal("last synced lost on update")
	}
	if !got.UpdatedAt.After(*got.LastSyncedAt) {
		t.Error("update must advance updated_at past last_synced_at")
	}
}

func TestListTasksPendingWriteBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	synced := testTask("p.md", 5)
	now := time.Now().UTC()
	synced.CreatedAt = now
	synced.UpdatedAt = now
	synced.LastSyncedAt = &now
	if err := db.CreateTask(ctx, synced); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Freshly synced: nothing pending.
	pending, err := db.ListTasksPendingWriteBack(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("got %d pending right after sync, want 0", len(pending))
	}

	// A store-side edit makes it pending.
	synced.Status = "completed"
	if err := db.UpdateTask(ctx, synced); err != nil {
		t.Fatalf("update: %v", err)
	}
	pending, err = db.ListTasksPendingWriteBack(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending after store edit, want 1", len(pending))
	}

	// Marking synced clears it.
	if err := db.MarkTaskSynced(ctx, synced.ID, pending[0].UpdatedAt); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, err = db.ListTasksPendingWriteBack(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending after mark, want 0", len(pending))
	}
}

func TestDocumentUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetDocument(ctx, "p.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v for never-synced document, want nil", got)
	}

	first := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	if err := db.UpsertDocument(ctx, "p.md", "hash-1", first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second := first.Add(time.Hour)
	if err := db.UpsertDocument(ctx, "p.md", "hash-2", second); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	got, err = db.GetDocument(ctx, "p.md")
	if err != nil || got == nil {
		t.Fatalf("get after upsert: %v, %v", got, err)
	}
	if got.ContentHash != "hash-2" {
		t.Errorf("hash = %q, want latest", got.ContentHash)
	}
	if !got.LastSyncedAt.Equal(second) {
		t.Errorf("synced at = %v, want %v", got.LastSyncedAt, second)
	}

	docs, err := db.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("got %d documents, want 1 (upsert, not insert)", len(docs))
	}
}

func TestBatchCommitSurvivesEntityFailure(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	batch, err := db.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer batch.Rollback()

	if err := batch.CreateProject(testProject("good")); err != nil {
		t.Fatalf("create good: %v", err)
	}
	// Invalid entity fails its own statement only.
	if err := batch.CreateProject(&Project{Slug: "bad"}); err == nil {
		t.Fatal("expected validation failure")
	}
	if err := batch.CreateProject(testProject("also-good")); err != nil {
		t.Fatalf("create after failure: %v", err)
	}
	if err := batch.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	n, err := db.CountProjects(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d projects, want the 2 valid ones", n)
	}
}

func TestTimestampOrderingAcrossFractions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Fixed-width storage keeps lexicographic order chronological even
	// when one timestamp has a zero fractional part.
	task := testTask("p.md", 5)
	whole := time.Date(2026, 1, 10, 8, 0, 5, 0, time.UTC)
	task.CreatedAt = whole
	task.UpdatedAt = whole.Add(500 * time.Millisecond)
	syncedAt := whole
	task.LastSyncedAt = &syncedAt
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := db.ListTasksPendingWriteBack(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("got %d pending, want 1 (updated 0.5s after sync)", len(pending))
	}
}
