// Package fragments protects fenced code blocks from markup conversion.
//
// Extract replaces every ```-fenced region with Placeholder and records the
// highlighted HTML as a Fragment; Reinsert puts the HTML back in order once
// the surrounding text has been converted.
package fragments

import (
	"regexp"
	"strings"
)

// Placeholder marks the position of an extracted fragment. It is a bare
// word so markup engines treat it as ordinary paragraph text.
const Placeholder = "GRAINFRAGMENT"

// wrapped is how markdown engines render a placeholder standing alone in a paragraph.
const wrapped = "<p>" + Placeholder + "</p>"

var fencePattern = regexp.MustCompile("(?s)```(.*?)```")

// Fragment is one highlighted code block; Start and End are byte offsets
// of the fenced region in the text passed to Extract.
type Fragment struct {
	Start int
	End   int
	HTML  string
}

// Highlighter renders code to HTML.
type Highlighter interface {
	Highlight(lang, code string) (string, error)
}

// Extractor finds fenced regions and highlights them.
type Extractor struct {
	hl Highlighter
}

// NewExtractor creates an Extractor using hl.
func NewExtractor(hl Highlighter) *Extractor {
	return &Extractor{hl: hl}
}

// Extract returns text with every fenced region replaced by Placeholder and
// the fragments in appearance order.
func (x *Extractor) Extract(text string) (string, []Fragment, error) {
	matches := fencePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil, nil
	}

	frags := make([]Fragment, 0, len(matches))
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		lang, code := splitInfo(text[m[2]:m[3]])
		html, err := x.hl.Highlight(lang, code)
		if err != nil {
			return "", nil, err
		}
		frags = append(frags, Fragment{Start: m[0], End: m[1], HTML: html})
		b.WriteString(text[last:m[0]])
		b.WriteString(Placeholder)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), frags, nil
}

// Reinsert substitutes fragments for placeholders in order. A placeholder
// wrapped alone in a paragraph is replaced together with the wrapper.
// Fragments whose placeholder was lost are appended at the end.
func Reinsert(text string, frags []Fragment) string {
	if len(frags) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	rest := text
	i := 0
	for ; i < len(frags); i++ {
		start, end, ok := Locate(rest)
		if !ok {
			break
		}
		b.WriteString(rest[:start])
		b.WriteString(frags[i].HTML)
		rest = rest[end:]
	}
	b.WriteString(rest)
	for ; i < len(frags); i++ {
		b.WriteString(frags[i].HTML)
	}
	return b.String()
}

// Locate returns the byte range of the first placeholder in text, widened
// to its paragraph wrapper when it stands alone in one.
func Locate(text string) (start, end int, ok bool) {
	idx := strings.Index(text, Placeholder)
	if idx < 0 {
		return 0, 0, false
	}
	if idx >= 3 && strings.HasPrefix(text[idx-3:], wrapped) {
		return idx - 3, idx - 3 + len(wrapped), true
	}
	return idx, idx + len(Placeholder), true
}

// MatchAt returns the length of the placeholder, with its paragraph wrapper
// when present, at the very start of text; 0 when text does not start with one.
func MatchAt(text string) int {
	switch {
	case strings.HasPrefix(text, wrapped):
		return len(wrapped)
	case strings.HasPrefix(text, Placeholder):
		return len(Placeholder)
	default:
		return 0
	}
}

// Sentinels standing in for the \${ and \<% escapes while markup engines
// run. Markdown treats the backslash as its own escape and drops it.
const (
	EscapedExpr = "GRAINESCEXPR"
	EscapedTag  = "GRAINESCTAG"
)

var (
	escapeProtector = strings.NewReplacer(`\${`, EscapedExpr, `\<%`, EscapedTag)
	escapeRestorer  = strings.NewReplacer(EscapedExpr, "${", EscapedTag, "&lt;%")
)

// ProtectEscapes replaces literal-syntax escapes with sentinels before
// markup conversion.
func ProtectEscapes(text string) string {
	return escapeProtector.Replace(text)
}

// RestoreEscapes turns sentinels in converted HTML back into the literal
// syntax they protected. The tag opener is restored HTML-escaped.
func RestoreEscapes(html string) string {
	return escapeRestorer.Replace(html)
}

// splitInfo separates a leading info string (language) from the code. A
// first line holding a single word is the language; otherwise there is none.
func splitInfo(inner string) (lang, code string) {
	first, rest, found := strings.Cut(inner, "\n")
	if !found {
		return "", inner
	}
	info := strings.TrimSpace(first)
	if info == "" {
		return "", rest
	}
	if strings.ContainsAny(info, " \t") {
		return "", inner
	}
	return info, rest
}
