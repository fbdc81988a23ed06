package parse

import "strings"

// ParseMeeting parses a meeting document: frontmatter metadata plus the
// Actions table. Missing frontmatter or a missing Actions table yields
// a partially-populated document, never an error.
func ParseMeeting(content, path string) *ParsedDocument {
	fm, body, bodyLine := SplitFrontmatter(content)

	doc := &ParsedDocument{
		Path:      path,
		Title:     fm.String("title"),
		Date:      fm.String("date"),
		Status:    fm.String("status"),
		Attendees: fm.List("attendees"),
		Projects:  fm.List("projects"),
	}

	// The primary project is the first of projects[] when present,
	// else the singular project field.
	if len(doc.Projects) > 0 {
		doc.PrimaryProject = doc.Projects[0]
	} else if p := fm.String("project"); p != "" {
		doc.PrimaryProject = p
	}

	if doc.Title == "" {
		doc.Title = titleFromBody(body)
	}

	if lines, start, ok := FindActionsBlock(body, bodyLine); ok {
		doc.Actions = ParseActionsTable(lines, start, doc.PrimaryProject)
	}

	return doc
}

// titleFromBody falls back to the first "# " heading when the
// frontmatter has no title.
func titleFromBody(body string) string {
	for _, l := range strings.Split(body, "\n") {
		if strings.HasPrefix(l, "# ") {
			return strings.TrimSpace(l[2:])
		}
	}
	return ""
}
