package parse

import "strings"

// Task statuses stored in the database. The glyph table below maps each
// one to the marker character used inline in README documents.
const (
	StatusPlanned   = "planned"
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusBlocked   = "blocked"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// glyphStatus maps status glyphs to store statuses. The set is fixed:
// documents using any other character simply don't match the
// status-marker pattern.
var glyphStatus = map[string]string{
	"⚪": StatusPlanned,
	"🟢": StatusActive,
	"🟡": StatusPaused,
	"🔴": StatusBlocked,
	"✅": StatusCompleted,
	"❌": StatusCancelled,
}

var statusGlyph = func() map[string]string {
	m := make(map[string]string, len(glyphStatus))
	for g, s := range glyphStatus {
		m[s] = g
	}
	return m
}()

// StatusForGlyph returns the store status for a marker glyph, or "" if
// the glyph is not part of the fixed set.
func StatusForGlyph(glyph string) string {
	return glyphStatus[strings.TrimSpace(glyph)]
}

// GlyphForStatus returns the marker glyph for a store status, or "" if
// the status has no inline notation.
func GlyphForStatus(status string) string {
	return statusGlyph[status]
}

// IsDone reports whether a status belongs to the "done" bucket used by
// checkbox write-back: completed and cancelled both render as [x].
func IsDone(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// NormalizeActionStatus maps an Actions-table status cell to a store
// status. Unrecognized values pass through lowercased so nothing is
// silently lost.
func NormalizeActionStatus(cell string) string {
	s := strings.ToLower(strings.TrimSpace(cell))
	switch s {
	case "", "pending", "todo", "open":
		return StatusPending
	case "in progress", "in-progress", "active", "ongoing", "underway":
		return StatusActive
	case "done", "complete", "completed":
		return StatusCompleted
	case "cancelled", "canceled", "dropped", "wontfix":
		return StatusCancelled
	case "blocked", "waiting":
		return StatusBlocked
	}
	return s
}

// ActionStatusDisplay maps a store status back to the notation used in
// Actions-table Status cells. Inverse of NormalizeActionStatus for the
// closed set; anything else is passed through unchanged.
func ActionStatusDisplay(status string) string {
	switch status {
	case StatusPending:
		return "Pending"
	case StatusActive:
		return "In Progress"
	case StatusCompleted:
		return "Done"
	case StatusCancelled:
		return "Cancelled"
	case StatusBlocked:
		return "Blocked"
	}
	return status
}
