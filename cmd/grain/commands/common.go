// Package commands implements the grain CLI.
package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/grain/internal/build"
	"git.home.luguber.info/inful/grain/internal/config"
	"git.home.luguber.info/inful/grain/internal/foundation/errors"
	"git.home.luguber.info/inful/grain/internal/highlight"
	"git.home.luguber.info/inful/grain/internal/journal"
	"git.home.luguber.info/inful/grain/internal/logfields"
	"git.home.luguber.info/inful/grain/internal/metrics"
	"git.home.luguber.info/inful/grain/internal/templates"
)

const (
	// JournalFile is the journal database name inside cache_dir.
	JournalFile = "journal.db"
	// StylesheetFile receives the highlight CSS when highlight.classes is set.
	StylesheetFile = "chroma.css"
)

// Global carries process-wide dependencies into subcommands.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path (defaults apply when empty)" type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics in text format to this file after each build" type:"path"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Render every file under source_dir into output_dir"`
	Render RenderCmd `cmd:"" help:"Render one file and print the result"`
	Watch  WatchCmd  `cmd:"" help:"Build, then rebuild whenever the site changes"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// pipeline wires configuration, metrics, the template factory, the journal
// and the builder for one command invocation.
type pipeline struct {
	cfg      *config.Config
	recorder *metrics.PrometheusRecorder
	factory  *templates.Factory
	journal  *journal.SQLiteStore
	builder  *build.Builder
}

func newPipeline(root *CLI, withJournal bool) (*pipeline, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}

	p := &pipeline{cfg: cfg, recorder: metrics.NewPrometheusRecorder(nil)}
	p.factory = templates.FromConfig(cfg, p.recorder, slog.Default())

	opts := []build.Option{build.WithRecorder(p.recorder)}
	if cfg.Highlight.Classes {
		hl := highlight.New(cfg.Highlight.Style, true)
		slog.Debug("Writing highlight stylesheet", slog.String("style", hl.StyleName()), logfields.Path(StylesheetFile))
		opts = append(opts, build.WithStylesheet(StylesheetFile, hl))
	}
	if withJournal {
		if err := os.MkdirAll(cfg.CacheDir, 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "create cache directory").
				WithContext("path", cfg.CacheDir).Build()
		}
		store, err := journal.NewSQLiteStore(filepath.Join(cfg.CacheDir, JournalFile))
		if err != nil {
			return nil, err
		}
		p.journal = store
		opts = append(opts, build.WithJournal(store))
	}
	p.builder = build.NewBuilder(cfg, p.factory, opts...)
	return p, nil
}

func (p *pipeline) Close() {
	if p.journal != nil {
		if err := p.journal.Close(); err != nil {
			slog.Warn("Failed to close journal", logfields.Error(err))
		}
	}
}

// report logs the accumulated phase timings and writes the metrics file.
func (p *pipeline) report(root *CLI) {
	for _, phase := range []metrics.Phase{metrics.PhaseDocumentParse, metrics.PhaseScriptTranslate, metrics.PhaseScriptCompile} {
		totals := metrics.Global().Totals(phase)
		slog.Info("Performance counter",
			logfields.Phase(string(phase)), logfields.Count(int(totals.Count)), logfields.Duration(totals.Total))
	}
	if root.MetricsFile == "" {
		return
	}
	if err := p.recorder.WriteTextfile(root.MetricsFile); err != nil {
		slog.Warn("Failed to write metrics file", logfields.Path(root.MetricsFile), logfields.Error(err))
	}
}
