// Package parse extracts typed records from the loosely-structured text
// conventions used in knowledge-base documents: frontmatter blocks,
// checkbox and status-marker lines, sub-project table rows, and the
// Actions table found in meeting notes.
//
// Everything in this package is best-effort. Malformed input yields an
// empty or partial result, never an error: the documents are hand-edited
// and the extractors must tolerate whatever a human leaves behind.
package parse

// SourceType identifies the document convention a task was extracted from.
// It is recorded on store entities so write-back can re-locate and patch
// the originating line in the correct notation.
type SourceType string

const (
	SourceStatusMarker  SourceType = "status_marker"
	SourceCheckbox      SourceType = "checkbox"
	SourceSubProject    SourceType = "sub_project"
	SourceNextSteps     SourceType = "next_steps"
	SourceMeetingAction SourceType = "meeting_action"
)

// ParsedAction is a single row of a meeting document's Actions table.
// Produced transiently per sync pass; never persisted as-is.
type ParsedAction struct {
	Owner   string
	Action  string
	Due     string // free text, resolved later by Resolver
	Status  string // defaults to "Pending" when the cell is empty
	Project string

	// Line is the 1-based line number of the table row in the file,
	// recorded so reconciliation can match by source coordinate.
	Line int
}

// ParsedDocument is a parsed meeting document.
type ParsedDocument struct {
	Path           string
	Title          string
	Date           string
	Attendees      []string
	Projects       []string
	PrimaryProject string
	Status         string
	Actions        []ParsedAction
}

// ExtractedTask is a task record pulled out of a project README.
// Extracted records are ephemeral: they are recomputed on every pass and
// reconciled against the store by source coordinate, not by ID.
type ExtractedTask struct {
	// ID is the synthetic per-file identifier {slug}-readme-{n}. The
	// counter restarts on every parse, so the ID shifts whenever lines
	// are inserted above a match. It is carried for listing only;
	// reconciliation keys off (SourcePath, SourceLine, SourceType).
	ID string

	Title       string
	Description string
	Status      string
	SourceType  SourceType
	SourcePath  string
	SourceLine  int // 1-based, into the whole file
	ProjectSlug string
	Org         string
	Section     string
	Phase       string

	IsSubProject  bool
	LinkedProject string
}
