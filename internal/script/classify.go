package script

import (
	"strings"

	"git.home.luguber.info/inful/grain/internal/frontmatter"
	"git.home.luguber.info/inful/grain/internal/markup"
)

// Decision is the outcome of classifying one file.
type Decision struct {
	Script bool
	// Explicit is set when the header carried a script override.
	Explicit bool
	// Markup is set when the extension routes through a markup engine.
	Markup bool
	// Forced is set when Recheck promoted a markup file to script.
	Forced bool
}

// Preclassify decides from extension and header alone. An explicit header
// override wins; otherwise markup extensions default to text and every
// other extension to script.
func Preclassify(ext string, page frontmatter.PageConfig) Decision {
	d := Decision{Markup: markup.IsMarkup(ext)}
	if v, set := page.Script(); set {
		d.Script = v
		d.Explicit = true
		return d
	}
	d.Script = !d.Markup
	return d
}

// Recheck runs after markup conversion. A markup file without an explicit
// override becomes script when the converted text carries template markers.
//
// The check is a plain substring search, so literal "${" or "<%" in prose
// outside code fences also promotes the file.
func Recheck(d Decision, converted string) Decision {
	if d.Explicit || !d.Markup || d.Script {
		return d
	}
	if HasMarkers(converted) {
		d.Script = true
		d.Forced = true
	}
	return d
}

// HasMarkers reports whether s contains an interpolation or logic marker,
// including the HTML-escaped form markup engines emit for "<%".
func HasMarkers(s string) bool {
	return strings.Contains(s, exprOpen) || strings.Contains(s, tagOpen) || strings.Contains(s, escTagOpen)
}
