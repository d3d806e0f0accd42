package templates

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/grain/internal/config"
	"git.home.luguber.info/inful/grain/internal/highlight"
	"git.home.luguber.info/inful/grain/internal/markup"
	"git.home.luguber.info/inful/grain/internal/metrics"
	"git.home.luguber.info/inful/grain/internal/script"
)

// FromConfig builds a factory whose engines follow the site configuration.
func FromConfig(cfg *config.Config, rec metrics.Recorder, logger *slog.Logger) *Factory {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	timeout := time.Duration(cfg.External.TimeoutMS) * time.Millisecond

	var rst, adoc markup.Engine
	if len(cfg.External.RST) > 0 {
		rst = markup.NewExternal(cfg.External.RST, timeout)
	}
	if len(cfg.External.AsciiDoc) > 0 {
		adoc = markup.NewExternal(cfg.External.AsciiDoc, timeout)
	}

	return NewFactory(cfg,
		WithHighlighter(highlight.New(cfg.Highlight.Style, cfg.Highlight.Classes)),
		WithRouter(markup.NewRouter(markup.NewGoldmark(cfg.Markdown.Extensions, cfg.MarkdownUnsafe()), rst, adoc)),
		WithCompiler(script.NewCompiler(script.WithMaxEntries(cfg.Cache.MaxEntries), script.WithRecorder(rec))),
		WithRecorder(rec),
		WithLogger(logger),
	)
}
