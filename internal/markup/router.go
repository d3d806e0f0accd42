// Package markup converts markup-language bodies to HTML.
//
// Dispatch is a closed table from file extension to engine kind; anything
// outside the table passes through unchanged.
package markup

import (
	"fmt"

	"git.home.luguber.info/inful/grain/internal/templates/tplerrors"
)

// Kind identifies a markup language.
type Kind string

const (
	KindNone     Kind = ""
	KindMarkdown Kind = "markdown"
	KindRST      Kind = "rst"
	KindAsciiDoc Kind = "asciidoc"
)

var kinds = map[string]Kind{
	"md":          KindMarkdown,
	"markdown":    KindMarkdown,
	"rst":         KindRST,
	"adoc":        KindAsciiDoc,
	"asciidoctor": KindAsciiDoc,
}

// KindOf returns the markup kind for an extension, or KindNone.
func KindOf(ext string) Kind {
	return kinds[ext]
}

// IsMarkup reports whether ext names a markup language.
func IsMarkup(ext string) bool {
	return KindOf(ext) != KindNone
}

// Engine converts one markup document to HTML.
type Engine interface {
	Convert(text string) (string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(text string) (string, error)

// Convert calls f.
func (f EngineFunc) Convert(text string) (string, error) { return f(text) }

// Router dispatches bodies to engines.
type Router struct {
	engines map[Kind]Engine
}

// NewRouter builds a router; a nil engine leaves that kind unsupported.
func NewRouter(markdown, rst, asciidoc Engine) *Router {
	r := &Router{engines: map[Kind]Engine{}}
	for k, e := range map[Kind]Engine{KindMarkdown: markdown, KindRST: rst, KindAsciiDoc: asciidoc} {
		if e != nil {
			r.engines[k] = e
		}
	}
	return r
}

// Route converts text according to ext. Non-markup extensions return text
// unchanged. Engine failures are returned as *tplerrors.MarkupConversionError.
func (r *Router) Route(ext, text string) (string, error) {
	kind := KindOf(ext)
	if kind == KindNone {
		return text, nil
	}
	engine, ok := r.engines[kind]
	if !ok {
		return "", &tplerrors.MarkupConversionError{Ext: ext, Err: fmt.Errorf("no %s engine configured", kind)}
	}
	out, err := engine.Convert(text)
	if err != nil {
		return "", &tplerrors.MarkupConversionError{Ext: ext, Err: err}
	}
	return out, nil
}
