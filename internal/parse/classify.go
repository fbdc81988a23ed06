package parse

import (
	"regexp"
	"strings"
)

// LineKind tags the classification of a single document body line.
type LineKind int

const (
	LineOther LineKind = iota
	LineHeading
	LinePhaseHeading
	LineStatusMarker
	LineCheckbox
	LineSubProjectRow
)

// Line is the tagged result of classifying one body line. Only the
// fields relevant to the Kind are populated.
type Line struct {
	Kind LineKind

	// LineHeading / LinePhaseHeading
	Heading string
	Phase   string

	// LineStatusMarker / LineSubProjectRow
	Glyph string

	// LineCheckbox
	Checked bool

	// Item payload for the three task kinds.
	Title       string
	Description string

	// LineSubProjectRow
	LinkPath  string
	LinkLabel string
}

// The fixed glyph alternation is built once from the status table so the
// classifier and the glyph map can never drift apart.
var glyphAlt = func() string {
	gs := make([]string, 0, len(glyphStatus))
	for g := range glyphStatus {
		gs = append(gs, regexp.QuoteMeta(g))
	}
	return strings.Join(gs, "|")
}()

var (
	phaseHeadingRe = regexp.MustCompile(`^###\s+Phase\s+(\d+)`)

	// "- 🟢 **Title** — optional description"
	statusMarkerRe = regexp.MustCompile(`^\s*[-*]\s*(` + glyphAlt + `)\s*\*\*(.+?)\*\*\s*(?:[—–-]+\s*(.*))?$`)

	// "- [ ] Title" / "- [x] Title"
	checkboxRe = regexp.MustCompile(`^\s*[-*]\s*\[([ xX])\]\s+(.*)$`)

	// "| 🟢 | [[path|label]] | description |"
	subProjectRowRe = regexp.MustCompile(`^\s*\|\s*(` + glyphAlt + `)\s*\|\s*\[\[([^\]|]+)(?:\|([^\]]+))?\]\]\s*\|?(.*)$`)
)

// ClassifyLine classifies a single body line. Pure: no state, no errors.
// The task patterns are mutually exclusive and tried in fixed priority
// order (status marker, then checkbox, then sub-project row), so a line
// can never match two ways depending on evaluation order.
func ClassifyLine(line string) Line {
	if strings.HasPrefix(line, "## ") {
		return Line{Kind: LineHeading, Heading: strings.TrimSpace(line[3:])}
	}
	if m := phaseHeadingRe.FindStringSubmatch(line); m != nil {
		return Line{Kind: LinePhaseHeading, Phase: "Phase " + m[1]}
	}

	if m := statusMarkerRe.FindStringSubmatch(line); m != nil {
		return Line{
			Kind:        LineStatusMarker,
			Glyph:       m[1],
			Title:       strings.TrimSpace(m[2]),
			Description: strings.TrimSpace(m[3]),
		}
	}
	if m := checkboxRe.FindStringSubmatch(line); m != nil {
		return Line{
			Kind:    LineCheckbox,
			Checked: m[1] == "x" || m[1] == "X",
			Title:   strings.TrimSpace(m[2]),
		}
	}
	if m := subProjectRowRe.FindStringSubmatch(line); m != nil {
		l := Line{
			Kind:     LineSubProjectRow,
			Glyph:    m[1],
			LinkPath: strings.TrimSpace(m[2]),
		}
		l.LinkLabel = strings.TrimSpace(m[3])
		l.Description = strings.TrimSpace(strings.Trim(m[4], "| "))
		if l.LinkLabel != "" {
			l.Title = l.LinkLabel
		} else {
			l.Title = lastPathSegment(l.LinkPath)
		}
		return l
	}

	return Line{Kind: LineOther}
}

func lastPathSegment(p string) string {
	p = strings.TrimSuffix(strings.TrimSpace(p), "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return strings.TrimSuffix(p, ".md")
}
