package parse

import "strings"

// frontmatterMarker delimits the key/value block at the top of a document.
const frontmatterMarker = "---"

// Frontmatter is the flat key/value (and key/array) block parsed from the
// top of a document. Values are either string or []string; no deeper
// nesting is supported.
type Frontmatter map[string]any

// String returns the scalar value for key, or "" if the key is absent or
// holds an array.
func (f Frontmatter) String(key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

// List returns the array value for key. A scalar value is returned as a
// one-element list so callers don't have to care which form the author
// used.
func (f Frontmatter) List(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// SplitFrontmatter separates a document into its frontmatter block and
// body. If the opening or closing marker is missing the whole input is
// the body and the frontmatter is empty; this is never an error.
//
// bodyLine is the 1-based line number of the first body line in the
// original file, so extractors can report coordinates into the whole
// file rather than into the body slice.
func SplitFrontmatter(content string) (fm Frontmatter, body string, bodyLine int) {
	fm = Frontmatter{}
	lines := strings.Split(content, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterMarker {
		return fm, content, 1
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterMarker {
			end = i
			break
		}
	}
	if end < 0 {
		// Unterminated block: treat the whole file as body.
		return Frontmatter{}, content, 1
	}

	var arrayKey string
	for _, raw := range lines[1:end] {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Array element collected under the currently open bare key.
		if arrayKey != "" && strings.HasPrefix(trimmed, "- ") {
			val := strings.TrimSpace(strings.TrimPrefix(trimmed, "- "))
			list, _ := fm[arrayKey].([]string)
			fm[arrayKey] = append(list, val)
			continue
		}

		key, val, ok := splitKeyValue(trimmed)
		if !ok {
			// Unrecognized line, skip. Best effort.
			continue
		}
		arrayKey = ""

		switch {
		case val == "":
			// Bare "key:" opens array mode.
			arrayKey = key
			fm[key] = []string{}
		case strings.HasPrefix(val, "[") && strings.HasSuffix(val, "]"):
			fm[key] = splitInlineList(val)
		default:
			fm[key] = strings.Trim(val, `"'`)
		}
	}

	body = strings.Join(lines[end+1:], "\n")
	return fm, body, end + 2
}

func splitKeyValue(line string) (key, val string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}

func splitInlineList(val string) []string {
	inner := strings.TrimSuffix(strings.TrimPrefix(val, "["), "]")
	if strings.TrimSpace(inner) == "" {
		return []string{}
	}
	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
