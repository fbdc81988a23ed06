// Package match is the single matcher used both to avoid duplicate task
// creation during reconciliation and to locate a line for write-back.
// Both callers share one ordered scoring rule so they can never diverge
// on tie-breaking:
//
//	exact source-coordinate match > normalized-title containment
//	(bounded prefix) > no match
package match

import "strings"

// Kind ranks match quality. Higher is better; the zero value is no
// match.
type Kind int

const (
	None Kind = iota
	Title
	Exact
)

// PrefixLen bounds the normalized-title prefix used for containment, so
// a long title edited at its tail still matches its line.
const PrefixLen = 40

// Coordinate is the source coordinate recorded on a store entity.
type Coordinate struct {
	Path       string
	Line       int // 1-based
	SourceType string
}

// Candidate is a document location being scored against a task.
type Candidate struct {
	Path string
	Line int
	Text string // raw line text
}

// Normalize lowercases a title, strips bold markers, and collapses
// whitespace, so containment is insensitive to cosmetic edits.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// TitlePrefix returns the bounded normalized prefix used for
// containment scoring. The bound counts runes, not bytes, so a
// multibyte title is never cut mid-rune into a prefix no line could
// contain.
func TitlePrefix(title string) string {
	n := Normalize(title)
	if r := []rune(n); len(r) > PrefixLen {
		n = string(r[:PrefixLen])
	}
	return strings.TrimSpace(n)
}

// Score ranks a candidate line against a task's coordinate and title.
func Score(c Coordinate, title string, cand Candidate) Kind {
	if c.Path == cand.Path && c.Line == cand.Line {
		return Exact
	}
	prefix := TitlePrefix(title)
	if prefix != "" && strings.Contains(Normalize(cand.Text), prefix) {
		return Title
	}
	return None
}

// BestLine finds the best-scoring line for a task among lines, given
// the task's recorded coordinate. Returns the 1-based line number and
// the score; (0, None) when nothing matches. Earlier lines win ties.
func BestLine(c Coordinate, title string, path string, lines []string) (int, Kind) {
	best, bestKind := 0, None
	for i, text := range lines {
		k := Score(c, title, Candidate{Path: path, Line: i + 1, Text: text})
		if k > bestKind {
			best, bestKind = i+1, k
			if k == Exact {
				break
			}
		}
	}
	return best, bestKind
}
