package parse

import (
	"strings"
	"testing"
)

const meetingBody = `# Weekly Sync

## Notes

Some discussion.

## Actions

| Owner | Action | Due | Status |
|-------|--------|-----|--------|
| Alice | Ship report | 14 Jan | Pending |
| Bob | Review schema | | In Progress |

## Decisions

None.
`

func TestFindActionsBlock(t *testing.T) {
	lines, start, ok := FindActionsBlock(meetingBody, 1)
	if !ok {
		t.Fatal("actions block not found")
	}
	// Block runs from the line after "## Actions" to "## Decisions".
	if start != 8 {
		t.Errorf("start = %d, want 8", start)
	}
	var rows int
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "|") {
			rows++
		}
	}
	if rows != 4 {
		t.Errorf("pipe rows = %d, want 4 (header, separator, two data)", rows)
	}
}

func TestFindActionsBlockAbsent(t *testing.T) {
	if _, _, ok := FindActionsBlock("# Title\n\n## Notes\n", 1); ok {
		t.Error("found an actions block in a document without one")
	}
}

func TestParseActionsTable(t *testing.T) {
	lines, start, ok := FindActionsBlock(meetingBody, 1)
	if !ok {
		t.Fatal("actions block not found")
	}

	actions := ParseActionsTable(lines, start, "alpha")
	if len(actions) != 2 {
		t.Fatalf("got %d actions, want 2", len(actions))
	}

	a := actions[0]
	if a.Owner != "Alice" || a.Action != "Ship report" || a.Due != "14 Jan" || a.Status != "Pending" {
		t.Errorf("first action = %+v", a)
	}
	if a.Project != "alpha" {
		t.Errorf("project = %q, want default alpha", a.Project)
	}
	if a.Line != 10 {
		t.Errorf("line = %d, want 10", a.Line)
	}

	b := actions[1]
	if b.Status != "In Progress" {
		t.Errorf("second status = %q", b.Status)
	}
	if b.Due != "" {
		t.Errorf("second due = %q, want empty", b.Due)
	}
}

func TestParseActionsTableProjectColumn(t *testing.T) {
	lines := []string{
		"| Owner | Action | Due | Status | Project |",
		"|---|---|---|---|---|",
		"| Carol | Audit exports | 2026-02-01 | Pending | beta |",
	}

	actions := ParseActionsTable(lines, 1, "alpha")
	if len(actions) != 1 {
		t.Fatalf("got %d actions", len(actions))
	}
	if actions[0].Project != "beta" {
		t.Errorf("project = %q, want beta from the column", actions[0].Project)
	}
}

func TestParseActionsTableEmptyStatusDefaults(t *testing.T) {
	lines := []string{
		"| Owner | Action | Due | Status |",
		"|---|---|---|---|",
		"| Dave | Rotate keys | | |",
	}

	actions := ParseActionsTable(lines, 1, "")
	if len(actions) != 1 {
		t.Fatalf("got %d actions", len(actions))
	}
	if actions[0].Status != "Pending" {
		t.Errorf("status = %q, want Pending default", actions[0].Status)
	}
}

func TestParseActionsTableDropsIncompleteRows(t *testing.T) {
	lines := []string{
		"| Owner | Action | Due | Status |",
		"|---|---|---|---|",
		"| | Missing owner | | |",
		"| Erin | | | |",
		"| Frank | Real row | | |",
	}

	actions := ParseActionsTable(lines, 1, "")
	if len(actions) != 1 {
		t.Fatalf("got %d actions, want only the complete row", len(actions))
	}
	if actions[0].Owner != "Frank" {
		t.Errorf("kept row owner = %q", actions[0].Owner)
	}
}
