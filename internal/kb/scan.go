package kb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tbushell/kbsync/internal/parse"
)

// ScanProjects walks every org's projects/ directory and returns the
// projects found, full projects and standalone files first, then
// sub-projects, so callers can resolve parents before children.
//
// Unreadable files are skipped and reported in errs; only a missing or
// unreadable root is a hard error.
func (s *Scanner) ScanProjects(ctx context.Context, orgFilter string) (projects []*ProjectInfo, errs []string, err error) {
	if err := s.CheckRoot(); err != nil {
		return nil, nil, err
	}
	orgs, err := s.Orgs(ctx)
	if err != nil {
		return nil, nil, err
	}

	var subs []*ProjectInfo
	for _, org := range orgs {
		if orgFilter != "" && org != orgFilter {
			continue
		}
		dir := filepath.Join(s.root, org, "projects")
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			errs = append(errs, fmt.Sprintf("read %s: %v", dir, err))
			continue
		}

		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if e.IsDir() {
				main, children, ferrs := s.scanProjectFolder(org, filepath.Join(dir, e.Name()))
				errs = append(errs, ferrs...)
				if main != nil {
					projects = append(projects, main)
				}
				subs = append(subs, children...)
				continue
			}
			if !strings.HasSuffix(e.Name(), ".md") {
				continue
			}
			p, perr := s.loadProjectDoc(org, filepath.Join(dir, e.Name()), strings.TrimSuffix(e.Name(), ".md"), "")
			if perr != nil {
				errs = append(errs, perr.Error())
				continue
			}
			projects = append(projects, p)
		}
	}

	return append(projects, subs...), errs, nil
}

// scanProjectFolder handles one project folder: the README is the
// project itself; any other markdown file whose frontmatter declares
// the sub-project type is a child with the folder name as parent slug.
func (s *Scanner) scanProjectFolder(org, dir string) (main *ProjectInfo, subs []*ProjectInfo, errs []string) {
	slug := filepath.Base(dir)

	readme := filepath.Join(dir, "README.md")
	if _, err := os.Stat(readme); err == nil {
		p, perr := s.loadProjectDoc(org, readme, slug, "")
		if perr != nil {
			errs = append(errs, perr.Error())
		} else {
			main = p
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		errs = append(errs, fmt.Sprintf("read %s: %v", dir, err))
		return main, nil, errs
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "README.md" || !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") {
			continue
		}
		childSlug := strings.TrimSuffix(name, ".md")
		p, perr := s.loadProjectDoc(org, filepath.Join(dir, name), childSlug, slug)
		if perr != nil {
			errs = append(errs, perr.Error())
			continue
		}
		// Only files that declare themselves sub-projects count;
		// anything else in the folder is loose notes.
		if !p.IsSubProject {
			continue
		}
		subs = append(subs, p)
	}
	return main, subs, errs
}

// loadProjectDoc reads and parses one project document. parentSlug is
// non-empty only for candidate sub-project files.
func (s *Scanner) loadProjectDoc(org, path, slug, parentSlug string) (*ProjectInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	fm, body, bodyLine := parse.SplitFrontmatter(string(content))
	rel := s.relPath(path)

	p := &ProjectInfo{
		Slug:     slug,
		Org:      org,
		Name:     fm.String("title"),
		Status:   NormalizeProjectStatus(fm.String("status")),
		Priority: NormalizePriority(fm.String("priority")),
		Path:     rel,
		Content:  content,
	}
	if p.Name == "" {
		p.Name = slug
	}
	if parentSlug != "" && isSubProjectType(fm.String("type")) {
		p.IsSubProject = true
		p.ParentSlug = parentSlug
	}
	p.Tasks = parse.ExtractTasks(body, bodyLine, rel, slug, org)

	return p, nil
}

func isSubProjectType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "sub-project", "subproject", "sub_project":
		return true
	}
	return false
}

// ScanMeetings walks <org>/meetings/<YYYY>/<MM>/*.md and parses each
// document. Same error discipline as ScanProjects.
func (s *Scanner) ScanMeetings(ctx context.Context, orgFilter string) (docs []*MeetingDoc, errs []string, err error) {
	if err := s.CheckRoot(); err != nil {
		return nil, nil, err
	}
	orgs, err := s.Orgs(ctx)
	if err != nil {
		return nil, nil, err
	}

	for _, org := range orgs {
		if orgFilter != "" && org != orgFilter {
			continue
		}
		root := filepath.Join(s.root, org, "meetings")
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, werr error) error {
			if werr != nil {
				errs = append(errs, fmt.Sprintf("walk %s: %v", path, werr))
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			content, rerr := os.ReadFile(path)
			if rerr != nil {
				errs = append(errs, fmt.Sprintf("read %s: %v", path, rerr))
				return nil
			}
			rel := s.relPath(path)
			docs = append(docs, &MeetingDoc{
				ParsedDocument: parse.ParseMeeting(string(content), rel),
				Org:            org,
				Content:        content,
			})
			return nil
		})
		if walkErr != nil {
			errs = append(errs, fmt.Sprintf("walk %s: %v", root, walkErr))
		}
	}

	return docs, errs, nil
}

// LoadProject reads and parses a single project document by its
// root-relative path, deriving the slug and parent from the layout the
// same way a full scan would.
func (s *Scanner) LoadProject(relPath string) (*ProjectInfo, error) {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) < 3 || parts[1] != "projects" {
		return nil, fmt.Errorf("%s is not a project document", relPath)
	}
	org := parts[0]
	abs := s.AbsPath(relPath)
	name := parts[len(parts)-1]

	switch {
	case len(parts) == 3:
		// Standalone file directly under projects/.
		return s.loadProjectDoc(org, abs, strings.TrimSuffix(name, ".md"), "")
	case name == "README.md":
		return s.loadProjectDoc(org, abs, parts[len(parts)-2], "")
	default:
		return s.loadProjectDoc(org, abs, strings.TrimSuffix(name, ".md"), parts[len(parts)-2])
	}
}

// LoadMeeting reads and parses a single meeting document by its
// root-relative path.
func (s *Scanner) LoadMeeting(relPath string) (*MeetingDoc, error) {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) < 3 || parts[1] != "meetings" {
		return nil, fmt.Errorf("%s is not a meeting document", relPath)
	}
	abs := s.AbsPath(relPath)
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}
	return &MeetingDoc{
		ParsedDocument: parse.ParseMeeting(string(content), relPath),
		Org:            parts[0],
		Content:        content,
	}, nil
}
