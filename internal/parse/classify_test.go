package parse

import "testing"

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Line
	}{
		{
			name: "section heading",
			line: "## Status",
			want: Line{Kind: LineHeading, Heading: "Status"},
		},
		{
			name: "phase heading",
			line: "### Phase 2: Rollout",
			want: Line{Kind: LinePhaseHeading, Phase: "Phase 2"},
		},
		{
			name: "plain h3 is not a phase",
			line: "### Background",
			want: Line{Kind: LineOther},
		},
		{
			name: "status marker with description",
			line: "- 🟢 **Phase 1 kickoff** — underway",
			want: Line{Kind: LineStatusMarker, Glyph: "🟢", Title: "Phase 1 kickoff", Description: "underway"},
		},
		{
			name: "status marker without description",
			line: "* ⚪ **Design review**",
			want: Line{Kind: LineStatusMarker, Glyph: "⚪", Title: "Design review"},
		},
		{
			name: "unchecked checkbox",
			line: "- [ ] Write the migration script",
			want: Line{Kind: LineCheckbox, Checked: false, Title: "Write the migration script"},
		},
		{
			name: "checked checkbox uppercase",
			line: "- [X] Ship it",
			want: Line{Kind: LineCheckbox, Checked: true, Title: "Ship it"},
		},
		{
			name: "sub-project row with label",
			line: "| 🔴 | [[projects/alpha/ingest.md|Ingest pipeline]] | stuck on schema |",
			want: Line{
				Kind: LineSubProjectRow, Glyph: "🔴",
				LinkPath: "projects/alpha/ingest.md", LinkLabel: "Ingest pipeline",
				Title: "Ingest pipeline", Description: "stuck on schema",
			},
		},
		{
			name: "sub-project row without label uses last path segment",
			line: "| ✅ | [[projects/alpha/ingest.md]] |",
			want: Line{
				Kind: LineSubProjectRow, Glyph: "✅",
				LinkPath: "projects/alpha/ingest.md", Title: "ingest",
			},
		},
		{
			name: "prose is other",
			line: "Nothing to see here.",
			want: Line{Kind: LineOther},
		},
		{
			name: "unknown glyph is other",
			line: "- 🔵 **Not a tracked status**",
			want: Line{Kind: LineOther},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyLine(tt.line)
			if got != tt.want {
				t.Errorf("ClassifyLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestStatusGlyphRoundTrip(t *testing.T) {
	for glyph, status := range map[string]string{
		"⚪": StatusPlanned, "🟢": StatusActive, "🟡": StatusPaused,
		"🔴": StatusBlocked, "✅": StatusCompleted, "❌": StatusCancelled,
	} {
		if got := StatusForGlyph(glyph); got != status {
			t.Errorf("StatusForGlyph(%q) = %q, want %q", glyph, got, status)
		}
		if got := GlyphForStatus(status); got != glyph {
			t.Errorf("GlyphForStatus(%q) = %q, want %q", status, got, glyph)
		}
	}
	if got := StatusForGlyph("🔵"); got != "" {
		t.Errorf("StatusForGlyph unknown glyph = %q, want empty", got)
	}
}

func TestIsDone(t *testing.T) {
	for status, want := range map[string]bool{
		StatusCompleted: true,
		StatusCancelled: true,
		StatusActive:    false,
		StatusPending:   false,
		StatusBlocked:   false,
	} {
		if got := IsDone(status); got != want {
			t.Errorf("IsDone(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestNormalizeActionStatus(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", StatusPending},
		{"Pending", StatusPending},
		{"In Progress", StatusActive},
		{"ongoing", StatusActive},
		{"Done", StatusCompleted},
		{"  Complete  ", StatusCompleted},
		{"Cancelled", StatusCancelled},
		{"Blocked", StatusBlocked},
		{"something odd", "something odd"},
	}
	for _, tt := range tests {
		if got := NormalizeActionStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeActionStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
