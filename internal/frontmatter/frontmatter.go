// Package frontmatter splits a leading header block from a source body and
// decodes it into a PageConfig.
package frontmatter

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fence describes a recognised header delimiter pair.
type Fence struct {
	Name   string
	Open   string
	Closes []string
}

var (
	// YAMLFence is classic front matter: "---" on its own line, closed by another "---".
	YAMLFence = Fence{Name: "yaml", Open: "---", Closes: []string{"---"}}
	// CommentFence is a comment-shaped header usable in CSS and JS sources.
	CommentFence = Fence{Name: "comment", Open: "/*-", Closes: []string{"*/", "-*/"}}
)

// Fences lists recognised fences in match order.
var Fences = []Fence{YAMLFence, CommentFence}

// ErrMissingClosingDelimiter indicates the text started with a header fence
// but did not contain the matching closing line.
var ErrMissingClosingDelimiter = errors.New("header start delimiter found but closing delimiter is missing")

// Split separates a header block from the body. The opening fence must be
// the very first line of content.
//
// If content does not open with a fence, fence is nil and body is the full input.
func Split(content string) (header string, body string, fence *Fence, err error) {
	first, rest, ok := cutLine(content)
	if !ok && first == "" {
		return "", content, nil, nil
	}
	for i := range Fences {
		f := &Fences[i]
		if trimLine(first) != f.Open {
			continue
		}
		offset := len(content) - len(rest)
		scan := rest
		for scan != "" {
			line, next, _ := cutLine(scan)
			if f.closes(trimLine(line)) {
				headerEnd := len(content) - len(scan)
				bodyStart := len(content) - len(next)
				return content[offset:headerEnd], content[bodyStart:], f, nil
			}
			scan = next
		}
		return "", "", f, ErrMissingClosingDelimiter
	}
	return "", content, nil, nil
}

// HasHeaderMarker reports whether the first non-blank line begins with an
// opening fence marker.
func HasHeaderMarker(content string) bool {
	for content != "" {
		line, rest, _ := cutLine(content)
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			for _, f := range Fences {
				if strings.HasPrefix(trimmed, f.Open) {
					return true
				}
			}
			return false
		}
		content = rest
	}
	return false
}

// ParseYAML parses a raw header (without delimiters) into a map.
func ParseYAML(header string) (map[string]any, error) {
	if strings.TrimSpace(header) == "" {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(header), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func (f Fence) closes(line string) bool {
	for _, c := range f.Closes {
		if line == c {
			return true
		}
	}
	return false
}

// cutLine returns the first line without its terminator, the remainder after
// it, and whether a newline was found.
func cutLine(s string) (line, rest string, found bool) {
	line, rest, found = strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r"), rest, found
}

func trimLine(s string) string {
	return strings.TrimRight(s, " \t")
}
