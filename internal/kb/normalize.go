package kb

import "strings"

// Project statuses form a small closed enum; everything a document
// author might write is folded into it before comparison against the
// store, so cosmetic wording changes don't force store writes.
const (
	ProjectPlanning = "planning"
	ProjectActive   = "active"
	ProjectPaused   = "paused"
	ProjectComplete = "complete"
	ProjectArchived = "archived"
)

// NormalizeProjectStatus maps free-text project status to the closed
// enum. Unknown and empty values default to active.
func NormalizeProjectStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "planning", "planned", "idea", "proposed":
		return ProjectPlanning
	case "paused", "on hold", "on-hold", "onhold", "parked":
		return ProjectPaused
	case "complete", "completed", "done", "shipped", "finished":
		return ProjectComplete
	case "archived", "retired", "cancelled", "canceled":
		return ProjectArchived
	}
	return ProjectActive
}

// NormalizePriority maps free-text priority to the 0-4 scale
// (0=critical, 4=backlog). Unknown and empty values land on 2.
func NormalizePriority(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p0", "0", "critical", "urgent":
		return 0
	case "p1", "1", "high":
		return 1
	case "p2", "2", "medium", "normal":
		return 2
	case "p3", "3", "low":
		return 3
	case "p4", "4", "backlog", "someday":
		return 4
	}
	return 2
}
