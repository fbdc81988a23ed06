package parse

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitFrontmatterBasic(t *testing.T) {
	content := strings.Join([]string{
		"---",
		"title: Rollout Plan",
		"status: active",
		"priority: p1",
		"---",
		"# Rollout Plan",
		"",
		"Body text.",
	}, "\n")

	fm, body, bodyLine := SplitFrontmatter(content)

	if got := fm.String("title"); got != "Rollout Plan" {
		t.Errorf("title = %q, want %q", got, "Rollout Plan")
	}
	if got := fm.String("status"); got != "active" {
		t.Errorf("status = %q, want %q", got, "active")
	}
	if !strings.HasPrefix(body, "# Rollout Plan") {
		t.Errorf("body = %q, want heading first", body)
	}
	if bodyLine != 6 {
		t.Errorf("bodyLine = %d, want 6", bodyLine)
	}
}

func TestSplitFrontmatterArrayMode(t *testing.T) {
	content := strings.Join([]string{
		"---",
		"attendees:",
		"- Alice",
		"- Bob",
		"projects: [alpha, beta]",
		"---",
		"body",
	}, "\n")

	fm, _, _ := SplitFrontmatter(content)

	if got := fm.List("attendees"); !reflect.DeepEqual(got, []string{"Alice", "Bob"}) {
		t.Errorf("attendees = %v", got)
	}
	if got := fm.List("projects"); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("projects = %v", got)
	}
}

func TestSplitFrontmatterArrayModeClosedByNextKey(t *testing.T) {
	content := strings.Join([]string{
		"---",
		"tags:",
		"- infra",
		"title: After the list",
		"---",
		"",
	}, "\n")

	fm, _, _ := SplitFrontmatter(content)

	if got := fm.List("tags"); !reflect.DeepEqual(got, []string{"infra"}) {
		t.Errorf("tags = %v", got)
	}
	if got := fm.String("title"); got != "After the list" {
		t.Errorf("title = %q", got)
	}
}

func TestSplitFrontmatterAbsent(t *testing.T) {
	content := "# Just a document\n\nNo metadata here."

	fm, body, bodyLine := SplitFrontmatter(content)

	if len(fm) != 0 {
		t.Errorf("frontmatter = %v, want empty", fm)
	}
	if body != content {
		t.Errorf("body = %q, want whole input", body)
	}
	if bodyLine != 1 {
		t.Errorf("bodyLine = %d, want 1", bodyLine)
	}
}

func TestSplitFrontmatterUnterminated(t *testing.T) {
	content := "---\ntitle: Oops\nno closing marker"

	fm, body, _ := SplitFrontmatter(content)

	if len(fm) != 0 {
		t.Errorf("frontmatter = %v, want empty", fm)
	}
	if body != content {
		t.Errorf("body = %q, want whole input", body)
	}
}

func TestSplitFrontmatterQuotedValues(t *testing.T) {
	content := "---\ntitle: \"Quoted Title\"\n---\nbody"

	fm, _, _ := SplitFrontmatter(content)
	if got := fm.String("title"); got != "Quoted Title" {
		t.Errorf("title = %q, want unquoted", got)
	}
}
