// Package templates turns source files into renderable resource templates.
//
// Factory.CreateTemplate is the single entry point. It gates files on
// extension, protects code fences, parses the header, routes markup,
// classifies the body and, for script bodies, translates and compiles it.
// Each result is one of three variants sharing the Resource contract.
package templates

import (
	"maps"

	"git.home.luguber.info/inful/grain/internal/fragments"
	"git.home.luguber.info/inful/grain/internal/frontmatter"
	"git.home.luguber.info/inful/grain/internal/script"
	"git.home.luguber.info/inful/grain/internal/source"
	"git.home.luguber.info/inful/grain/internal/templates/tplerrors"
)

// Kind names a resource template variant.
type Kind string

const (
	KindRaw    Kind = "raw"
	KindText   Kind = "text"
	KindScript Kind = "script"
)

// Resource is a renderable template produced for one source file.
type Resource interface {
	Kind() Kind
	Path() string
	// Page returns the merged header values; nil for raw templates.
	Page() map[string]any
	Render(data map[string]any) (string, error)
}

// Raw returns the file content unchanged.
type Raw struct {
	file source.File
}

// NewRaw wraps a file that bypasses the pipeline.
func NewRaw(file source.File) *Raw {
	return &Raw{file: file}
}

func (r *Raw) Kind() Kind                            { return KindRaw }
func (r *Raw) Path() string                          { return r.file.Path }
func (r *Raw) Page() map[string]any                  { return nil }
func (r *Raw) Render(map[string]any) (string, error) { return r.file.Content, nil }

// Text returns its body with fragments reinserted; nothing is evaluated.
type Text struct {
	file  source.File
	page  frontmatter.PageConfig
	body  string
	frags []fragments.Fragment
}

// NewText wraps a processed body.
func NewText(file source.File, page frontmatter.PageConfig, body string, frags []fragments.Fragment) *Text {
	return &Text{file: file, page: page, body: body, frags: frags}
}

func (t *Text) Kind() Kind           { return KindText }
func (t *Text) Path() string         { return t.file.Path }
func (t *Text) Page() map[string]any { return t.page.Values() }

func (t *Text) Render(map[string]any) (string, error) {
	return fragments.Reinsert(fragments.RestoreEscapes(t.body), t.frags), nil
}

// Script evaluates a compiled template against the render context.
type Script struct {
	file source.File
	page frontmatter.PageConfig
	tpl  *script.Template
}

// NewScript wraps a compiled template.
func NewScript(file source.File, page frontmatter.PageConfig, tpl *script.Template) *Script {
	return &Script{file: file, page: page, tpl: tpl}
}

func (s *Script) Kind() Kind           { return KindScript }
func (s *Script) Path() string         { return s.file.Path }
func (s *Script) Page() map[string]any { return s.page.Values() }

// Name returns the generated script name.
func (s *Script) Name() string { return s.tpl.Name() }

// Render runs the compiled template. Failures come back as
// *tplerrors.RenderError tagged with the file path and are not retried.
func (s *Script) Render(data map[string]any) (string, error) {
	out, err := s.tpl.Execute(data)
	if err != nil {
		return "", tplerrors.Wrap(s.file.Path, tplerrors.StageExecute, err)
	}
	return out, nil
}

// merge returns a copy of base overlaid with extra.
func merge(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}
