package parse

import (
	"fmt"
	"strings"
)

// extractState is the explicit accumulator folded over classified lines:
// the current section, the current phase, and the per-file counter that
// feeds the synthetic ID.
type extractState struct {
	section string
	phase   string
	counter int
}

// ExtractTasks walks a project README body and emits one ExtractedTask
// per checkbox line, status-marker line, or sub-project table row.
//
// offset is the 1-based line number of the first body line within the
// original file (see SplitFrontmatter), so SourceLine always addresses
// the file as written on disk.
//
// Unmatched lines are skipped silently: this is a best-effort extractor,
// not a full Markdown parser, and malformed rows never raise.
func ExtractTasks(body string, offset int, path, projectSlug, org string) []ExtractedTask {
	var tasks []ExtractedTask
	st := extractState{}

	for i, raw := range strings.Split(body, "\n") {
		line := ClassifyLine(raw)
		switch line.Kind {
		case LineHeading:
			// A new section clears the phase; any other ### heading
			// leaves it alone.
			st.section = line.Heading
			st.phase = ""
			continue
		case LinePhaseHeading:
			st.phase = line.Phase
			continue
		case LineOther:
			continue
		}

		st.counter++
		t := ExtractedTask{
			ID:          fmt.Sprintf("%s-readme-%d", projectSlug, st.counter),
			Title:       line.Title,
			Description: line.Description,
			SourcePath:  path,
			SourceLine:  offset + i,
			ProjectSlug: projectSlug,
			Org:         org,
			Section:     st.section,
			Phase:       st.phase,
		}

		switch line.Kind {
		case LineStatusMarker:
			t.SourceType = SourceStatusMarker
			t.Status = StatusForGlyph(line.Glyph)
		case LineCheckbox:
			t.SourceType = SourceCheckbox
			// Items under a Next Steps section are suggestions, not
			// tracked work; they get their own source type so
			// write-back leaves the lines alone.
			if strings.EqualFold(strings.TrimSpace(st.section), "Next Steps") {
				t.SourceType = SourceNextSteps
			}
			if line.Checked {
				t.Status = StatusCompleted
			} else {
				t.Status = StatusPending
			}
		case LineSubProjectRow:
			t.SourceType = SourceSubProject
			t.Status = StatusForGlyph(line.Glyph)
			t.IsSubProject = true
			t.LinkedProject = lastPathSegment(line.LinkPath)
		}

		tasks = append(tasks, t)
	}

	return tasks
}
