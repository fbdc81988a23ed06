package writeback

import (
	"fmt"
	"os"
	"strings"

	"github.com/tbushell/kbsync/internal/match"
	"github.com/tbushell/kbsync/internal/parse"
)

// statusColumn is the fixed Actions-table column holding the Status
// cell: owner, action, due, status.
const statusColumn = 4

// patchActionRow locates the Actions table by its header signature,
// finds the row whose text contains a normalized prefix of the task's
// title, and rewrites only that row's Status cell.
func (e *Engine) patchActionRow(req Request) (Outcome, error) {
	content, info, err := readFile(req.Path)
	if err != nil {
		return Outcome{}, err
	}
	lines := strings.Split(content, "\n")

	header := findActionsHeader(lines)
	if header < 0 {
		e.logger.Printf("no Actions table in %s", req.RelPath)
		return Outcome{Advisory: "no matching line found"}, nil
	}

	prefix := match.TitlePrefix(req.Title)
	row := -1
	for i := header + 1; i < len(lines); i++ {
		l := lines[i]
		if !strings.Contains(l, "|") {
			break
		}
		if isSeparator(l) {
			continue
		}
		if prefix != "" && strings.Contains(match.Normalize(l), prefix) {
			row = i
			break
		}
	}
	if row < 0 {
		e.logger.Printf("no matching action row for %q in %s", req.Title, req.RelPath)
		return Outcome{Advisory: "no matching line found"}, nil
	}

	patched, ok := rewriteStatusCell(lines[row], parse.ActionStatusDisplay(req.Status))
	if !ok {
		return Outcome{Advisory: "no matching line found"}, nil
	}
	if patched == lines[row] {
		return Outcome{Advisory: "already up to date"}, nil
	}

	lines[row] = patched
	if err := os.WriteFile(req.Path, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return Outcome{}, fmt.Errorf("write %s: %w", req.Path, err)
	}
	return Outcome{Written: true}, nil
}

// findActionsHeader returns the index of the Actions-table header row:
// a pipe row whose cells include both "owner" and "action".
func findActionsHeader(lines []string) int {
	for i, l := range lines {
		if !strings.Contains(l, "|") {
			continue
		}
		low := strings.ToLower(l)
		if strings.Contains(low, "owner") && strings.Contains(low, "action") {
			return i
		}
	}
	return -1
}

func isSeparator(l string) bool {
	seen := false
	for _, r := range strings.TrimSpace(l) {
		switch r {
		case '|', ':', ' ', '\t':
		case '-':
			seen = true
		default:
			return false
		}
	}
	return seen
}

// rewriteStatusCell replaces the fixed Status cell of a table row,
// leaving every other cell byte-identical.
func rewriteStatusCell(row, status string) (string, bool) {
	parts := strings.Split(row, "|")
	// With outer pipes the status cell is parts[statusColumn]; without
	// a leading pipe everything shifts left by one.
	idx := statusColumn
	if strings.TrimSpace(parts[0]) != "" {
		idx--
	}
	if idx >= len(parts) {
		return "", false
	}
	if strings.TrimSpace(parts[idx]) == status {
		// Same value, possibly different padding: leave the bytes alone.
		return row, true
	}
	parts[idx] = " " + status + " "
	return strings.Join(parts, "|"), true
}
