package orchestrator

import (
	"context"
	"log"

	"github.com/tbushell/kbsync/internal/store"
)

// Notifier is the diary/log collaborator: it is told when a completed
// status lands in a document. The sink is fire-and-forget; it has no
// way to fail the sync.
type Notifier interface {
	TaskCompleted(ctx context.Context, task *store.Task)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) TaskCompleted(context.Context, *store.Task) {}

// LogNotifier records completions on a logger, the default diary sink.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) TaskCompleted(_ context.Context, task *store.Task) {
	if n.Logger == nil {
		return
	}
	n.Logger.Printf("completed: %q (%s/%s)", task.Title, task.Org, task.ProjectSlug)
}
