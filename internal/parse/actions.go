package parse

import "strings"

// FindActionsBlock locates the Actions table in a meeting document body:
// the lines under a "## Actions" heading, up to the next "## " heading
// or end of body. Returns the block lines and the 1-based line number
// (within the whole file, given offset) of the first block line.
func FindActionsBlock(body string, offset int) (lines []string, start int, ok bool) {
	all := strings.Split(body, "\n")
	begin := -1
	for i, l := range all {
		if strings.HasPrefix(l, "## ") && strings.EqualFold(strings.TrimSpace(l[3:]), "actions") {
			begin = i + 1
			break
		}
	}
	if begin < 0 {
		return nil, 0, false
	}
	end := len(all)
	for i := begin; i < len(all); i++ {
		if strings.HasPrefix(all[i], "## ") {
			end = i
			break
		}
	}
	return all[begin:end], offset + begin, true
}

// ParseActionsTable parses the rows of an Actions table block into
// ParsedAction records.
//
// The header row decides whether a Project column exists (any header
// cell containing "project", case-insensitive). Header and separator
// rows are discarded. Cells map 1→owner, 2→action, 3→due, 4→status
// (default "Pending"), 5→project when the column exists, else
// defaultProject. Rows missing owner or action after trimming are
// dropped; nothing here ever raises.
//
// start is the 1-based file line of lines[0]; each action records the
// line its row sits on for later coordinate matching.
func ParseActionsTable(lines []string, start int, defaultProject string) []ParsedAction {
	var actions []ParsedAction
	headerSeen := false
	hasProject := false

	for i, raw := range lines {
		if !strings.Contains(raw, "|") {
			continue
		}
		cells := splitRow(raw)
		if len(cells) == 0 {
			continue
		}

		if !headerSeen {
			headerSeen = true
			for _, c := range cells {
				if strings.Contains(strings.ToLower(c), "project") {
					hasProject = true
				}
			}
			continue
		}
		if isSeparatorRow(raw) {
			continue
		}

		a := ParsedAction{
			Status:  "Pending",
			Project: defaultProject,
			Line:    start + i,
		}
		if len(cells) > 0 {
			a.Owner = cells[0]
		}
		if len(cells) > 1 {
			a.Action = cells[1]
		}
		if len(cells) > 2 {
			a.Due = cells[2]
		}
		if len(cells) > 3 && cells[3] != "" {
			a.Status = cells[3]
		}
		if hasProject && len(cells) > 4 && cells[4] != "" {
			a.Project = cells[4]
		}

		if a.Owner == "" || a.Action == "" {
			continue
		}
		actions = append(actions, a)
	}

	return actions
}

// splitRow splits a pipe-table row into trimmed cells, discarding the
// empty leading/trailing cells produced by the outer pipes.
func splitRow(raw string) []string {
	parts := strings.Split(raw, "|")
	if len(parts) < 2 {
		return nil
	}
	if strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// isSeparatorRow reports whether the row is the |---|---| divider under
// the header.
func isSeparatorRow(raw string) bool {
	seen := false
	for _, r := range strings.TrimSpace(raw) {
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
