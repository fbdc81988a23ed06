// Package kb walks the knowledge-base directory tree and turns its
// documents into typed records ready for reconciliation.
//
// The tree follows a fixed convention:
//
//	<root>/<org>/projects/<slug>/README.md    full project
//	<root>/<org>/projects/<slug>.md           standalone project
//	<root>/<org>/projects/<slug>/<child>.md   sub-project, when its
//	                                          frontmatter declares the
//	                                          sub-project type
//	<root>/<org>/meetings/<YYYY>/<MM>/*.md    meeting documents
package kb

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tbushell/kbsync/internal/parse"
)

// ProjectInfo is a project scanned from folder/file structure, with the
// tasks extracted from its document body. Status and priority are
// already normalized when the scanner returns.
type ProjectInfo struct {
	Slug         string
	Name         string
	Org          string
	Status       string
	Priority     int
	IsSubProject bool
	ParentSlug   string

	Path    string // document path on disk
	Content []byte // raw bytes, for hashing
	Tasks   []parse.ExtractedTask
}

// MeetingDoc is a scanned meeting document plus its raw content.
type MeetingDoc struct {
	*parse.ParsedDocument
	Org     string
	Content []byte
}

// Scanner walks a knowledge-base root. It holds no open resources; it
// exists so the root and logger are explicit state rather than
// package-level configuration.
type Scanner struct {
	root   string
	logger *log.Logger
}

// NewScanner creates a Scanner for the given root. If logger is nil, a
// default logger writing to stderr is used.
func NewScanner(root string, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New(os.Stderr, "[kb] ", log.LstdFlags)
	}
	return &Scanner{root: root, logger: logger}
}

// Root returns the knowledge-base root directory.
func (s *Scanner) Root() string {
	return s.root
}

// CheckRoot verifies the knowledge-base root exists. This is the one
// precondition that fails a whole pass rather than a single entity.
func (s *Scanner) CheckRoot() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("knowledge-base root %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("knowledge-base root %s is not a directory", s.root)
	}
	return nil
}

// Orgs lists the organization directories under the root. Hidden
// entries are skipped.
func (s *Scanner) Orgs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge-base root: %w", err)
	}
	var orgs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		orgs = append(orgs, e.Name())
	}
	return orgs, nil
}

// relPath makes a path relative to the root for stable source
// coordinates; falls back to the input on failure.
func (s *Scanner) relPath(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// AbsPath resolves a root-relative document path back to disk.
func (s *Scanner) AbsPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}
