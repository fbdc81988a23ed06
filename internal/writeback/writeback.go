// Package writeback pushes a store task's status into its originating
// document, rewriting the single affected line or cell in the original
// notation and leaving every other byte of the file alone.
//
// Write-back is deliberately forgiving. Documents are hand-edited: when
// the recorded line no longer matches its expected pattern the engine
// falls back to a title search, and when nothing can be matched it
// reports success with an advisory instead of failing the sync.
package writeback

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/tbushell/kbsync/internal/match"
	"github.com/tbushell/kbsync/internal/parse"
)

// Request identifies the line to patch and the status to write. The
// coordinates are the ones recorded on the store entity when it was
// created.
type Request struct {
	Path       string // absolute path on disk
	RelPath    string // root-relative path, as recorded on the entity
	Line       int    // 1-based
	SourceType parse.SourceType
	Title      string
	Status     string
}

// Outcome reports what a write-back did. Advisory is set when nothing
// was (or needed to be) written; it is informational, not an error.
type Outcome struct {
	Written  bool
	Advisory string
}

// Engine applies status changes to documents.
type Engine struct {
	logger *log.Logger
}

// New creates an Engine. If logger is nil, a default logger writing to
// stderr is used.
func New(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[writeback] ", log.LstdFlags)
	}
	return &Engine{logger: logger}
}

// Apply dispatches on the request's source type and patches the
// document. Errors are reserved for I/O failures; a line that cannot
// be located comes back as an advisory Outcome.
func (e *Engine) Apply(req Request) (Outcome, error) {
	switch req.SourceType {
	case parse.SourceCheckbox, parse.SourceStatusMarker, parse.SourceSubProject:
		return e.patchLine(req)
	case parse.SourceMeetingAction:
		return e.patchActionRow(req)
	default:
		// Not every source type has an inline notation to rewrite.
		return Outcome{Advisory: fmt.Sprintf("write-back not required for source type %q", req.SourceType)}, nil
	}
}

// patchLine handles the three README notations. The recorded line is
// required to still match its pattern; otherwise the title matcher
// searches the whole file before giving up.
func (e *Engine) patchLine(req Request) (Outcome, error) {
	content, info, err := readFile(req.Path)
	if err != nil {
		return Outcome{}, err
	}
	lines := strings.Split(content, "\n")

	idx := -1
	if req.Line >= 1 && req.Line <= len(lines) && e.lineMatches(req.SourceType, lines[req.Line-1]) {
		idx = req.Line - 1
	} else {
		idx = e.fallbackLine(req, lines)
	}
	if idx < 0 {
		e.logger.Printf("no matching line for %q in %s", req.Title, req.RelPath)
		return Outcome{Advisory: "no matching line found"}, nil
	}

	patched, ok := rewriteLine(req.SourceType, lines[idx], req.Status)
	if !ok {
		return Outcome{Advisory: "no matching line found"}, nil
	}
	if patched == lines[idx] {
		// Already the target value: a second call produces zero diffs.
		return Outcome{Advisory: "already up to date"}, nil
	}

	lines[idx] = patched
	if err := os.WriteFile(req.Path, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return Outcome{}, fmt.Errorf("write %s: %w", req.Path, err)
	}
	return Outcome{Written: true}, nil
}

// lineMatches reports whether a line still parses as the expected
// notation.
func (e *Engine) lineMatches(st parse.SourceType, line string) bool {
	switch parse.ClassifyLine(line).Kind {
	case parse.LineCheckbox:
		return st == parse.SourceCheckbox
	case parse.LineStatusMarker:
		return st == parse.SourceStatusMarker
	case parse.LineSubProjectRow:
		return st == parse.SourceSubProject
	}
	return false
}

// fallbackLine runs the shared title matcher over the file, restricted
// to lines of the right notation.
func (e *Engine) fallbackLine(req Request, lines []string) int {
	coord := match.Coordinate{Path: req.RelPath, Line: -1, SourceType: string(req.SourceType)}
	best, kind := -1, match.None
	for i, text := range lines {
		if !e.lineMatches(req.SourceType, text) {
			continue
		}
		k := match.Score(coord, req.Title, match.Candidate{Path: req.RelPath, Line: i + 1, Text: text})
		if k > kind {
			best, kind = i, k
		}
	}
	if kind == match.None {
		return -1
	}
	return best
}

// rewriteLine replaces only the mark or glyph, preserving the rest of
// the line verbatim.
func rewriteLine(st parse.SourceType, line, status string) (string, bool) {
	switch st {
	case parse.SourceCheckbox:
		mark := " "
		if parse.IsDone(status) {
			mark = "x"
		}
		open := strings.Index(line, "[")
		if open < 0 || open+2 >= len(line) || line[open+2] != ']' {
			return "", false
		}
		return line[:open+1] + mark + line[open+2:], true

	case parse.SourceStatusMarker, parse.SourceSubProject:
		glyph := parse.GlyphForStatus(status)
		if glyph == "" {
			return "", false
		}
		cur := parse.ClassifyLine(line).Glyph
		if cur == "" {
			return "", false
		}
		return strings.Replace(line, cur, glyph, 1), true
	}
	return "", false
}

func readFile(path string) (string, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	return string(content), info, nil
}
