package templates

import (
	"log/slog"
	"slices"
	"time"

	"git.home.luguber.info/inful/grain/internal/fragments"
	"git.home.luguber.info/inful/grain/internal/frontmatter"
	"git.home.luguber.info/inful/grain/internal/highlight"
	"git.home.luguber.info/inful/grain/internal/logfields"
	"git.home.luguber.info/inful/grain/internal/markup"
	"git.home.luguber.info/inful/grain/internal/metrics"
	"git.home.luguber.info/inful/grain/internal/script"
	"git.home.luguber.info/inful/grain/internal/source"
	"git.home.luguber.info/inful/grain/internal/templates/tplerrors"
)

// Header keys seeded from the site configuration.
const (
	KeyCodeEnabledFiles = "code_enabled_files"
	KeyCodeAllowedFiles = "code_allowed_files"
)

// Config is the read-only site configuration the factory needs.
type Config interface {
	CodeEnabledFiles() []string
	CodeAllowedFiles() []string
	SourceModifier() source.Modifier
}

// Factory creates resource templates. It is safe for concurrent use.
type Factory struct {
	cfg       Config
	extractor *fragments.Extractor
	router    *markup.Router
	compiler  *script.Compiler
	recorder  metrics.Recorder
	counters  *metrics.PerfCounters
	logger    *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithHighlighter sets the highlighter used for code fences.
func WithHighlighter(hl fragments.Highlighter) Option {
	return func(f *Factory) { f.extractor = fragments.NewExtractor(hl) }
}

// WithRouter sets the markup router.
func WithRouter(r *markup.Router) Option {
	return func(f *Factory) { f.router = r }
}

// WithCompiler sets the script compiler.
func WithCompiler(c *script.Compiler) Option {
	return func(f *Factory) { f.compiler = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(f *Factory) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithCounters sets the performance counters phases are accumulated into.
func WithCounters(c *metrics.PerfCounters) Option {
	return func(f *Factory) {
		if c != nil {
			f.counters = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFactory returns a factory for cfg. Without options it highlights with
// the github style, converts markdown with goldmark and has no RST or
// AsciiDoc engine.
func NewFactory(cfg Config, opts ...Option) *Factory {
	f := &Factory{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		counters: metrics.Global(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.extractor == nil {
		f.extractor = fragments.NewExtractor(highlight.New("", false))
	}
	if f.router == nil {
		f.router = markup.NewRouter(markup.NewGoldmark([]string{"gfm"}, true), nil, nil)
	}
	if f.compiler == nil {
		f.compiler = script.NewCompiler(script.WithRecorder(f.recorder))
	}
	return f
}

// Compiler returns the compiler backing script templates.
func (f *Factory) Compiler() *script.Compiler { return f.compiler }

// SiteChanged drops every compiled template.
func (f *Factory) SiteChanged() { f.compiler.SiteChanged() }

// document is a source file after fragment protection and header parsing.
type document struct {
	page  frontmatter.PageConfig
	body  string
	frags []fragments.Fragment
}

// CreateTemplate turns file into a resource template. Errors are
// *tplerrors.RenderError values carrying the file path.
func (f *Factory) CreateTemplate(file source.File) (Resource, error) {
	res, stage, err := f.create(file)
	if err != nil {
		f.recorder.IncFailure(stage)
		f.logger.Debug("Template creation failed",
			logfields.Path(file.Path), logfields.Ext(file.Ext), logfields.Phase(stage), logfields.Error(err))
		return nil, tplerrors.Wrap(file.Path, stage, err)
	}
	f.recorder.IncTemplate(string(res.Kind()))
	attrs := []any{logfields.Path(file.Path), logfields.TemplateKind(string(res.Kind()))}
	if s, ok := res.(*Script); ok {
		attrs = append(attrs, logfields.ScriptName(s.Name()))
	}
	f.logger.Debug("Template created", attrs...)
	return res, nil
}

func (f *Factory) create(file source.File) (Resource, string, error) {
	if !f.gate(file) {
		return NewRaw(file), "", nil
	}

	content := f.cfg.SourceModifier()(file)

	var (
		doc   document
		stage string
		err   error
	)
	f.timed(metrics.PhaseDocumentParse, func() {
		doc, stage, err = f.parseDocument(file, content)
	})
	if err != nil {
		return nil, stage, err
	}

	decision := script.Preclassify(file.Ext, doc.page)
	converted, err := f.router.Route(file.Ext, doc.body)
	if err != nil {
		return nil, tplerrors.StageMarkup, err
	}
	decision = script.Recheck(decision, converted)
	if !decision.Script {
		return NewText(file, doc.page, converted, doc.frags), "", nil
	}

	var translated string
	f.timed(metrics.PhaseScriptTranslate, func() {
		translated, err = script.Translate(converted, doc.frags, decision.Markup)
	})
	if err != nil {
		return nil, tplerrors.StageTranslate, err
	}

	var tpl *script.Template
	f.timed(metrics.PhaseScriptCompile, func() {
		tpl, err = f.compiler.Load(file.Path, translated)
	})
	if err != nil {
		return nil, tplerrors.StageCompile, err
	}
	return NewScript(file, doc.page, tpl), "", nil
}

// gate reports whether file enters the pipeline. It looks at the original
// content, before any source modifier runs.
func (f *Factory) gate(file source.File) bool {
	if slices.Contains(f.cfg.CodeEnabledFiles(), file.Ext) {
		return true
	}
	return slices.Contains(f.cfg.CodeAllowedFiles(), file.Ext) && frontmatter.HasHeaderMarker(file.Content)
}

func (f *Factory) parseDocument(file source.File, content string) (document, string, error) {
	protected, frags, err := f.extractor.Extract(content)
	if err != nil {
		return document{}, tplerrors.StageFragments, err
	}

	header, body, _, err := frontmatter.Split(protected)
	if err != nil {
		return document{}, tplerrors.StageHeader, &tplerrors.ConfigParseError{Err: err}
	}
	page, err := frontmatter.Parse(header, f.defaults())
	if err != nil {
		return document{}, tplerrors.StageHeader, &tplerrors.ConfigParseError{Err: err}
	}

	if name := page.SourceModifier(); name != "" {
		mod, err := source.LookupModifier(name)
		if err != nil {
			return document{}, tplerrors.StageHeader, &tplerrors.ConfigParseError{Err: err}
		}
		body = mod(file.WithContent(body))
	}
	if markup.IsMarkup(file.Ext) {
		body = fragments.ProtectEscapes(body)
	}
	return document{page: page, body: body, frags: frags}, "", nil
}

func (f *Factory) defaults() map[string]any {
	return map[string]any{
		KeyCodeEnabledFiles: f.cfg.CodeEnabledFiles(),
		KeyCodeAllowedFiles: f.cfg.CodeAllowedFiles(),
	}
}

func (f *Factory) timed(phase metrics.Phase, fn func()) {
	start := time.Now()
	fn()
	d := time.Since(start)
	f.counters.Add(phase, d)
	f.recorder.ObservePhaseDuration(phase, d)
}
