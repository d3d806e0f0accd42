package build

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/grain/internal/config"
	"git.home.luguber.info/inful/grain/internal/foundation/errors"
	"git.home.luguber.info/inful/grain/internal/journal"
	"git.home.luguber.info/inful/grain/internal/logfields"
	"git.home.luguber.info/inful/grain/internal/metrics"
	"git.home.luguber.info/inful/grain/internal/observability"
	"git.home.luguber.info/inful/grain/internal/source"
	"git.home.luguber.info/inful/grain/internal/templates"
	"git.home.luguber.info/inful/grain/internal/templates/tplerrors"
)

// Factory creates resource templates.
type Factory interface {
	CreateTemplate(file source.File) (templates.Resource, error)
}

// Stylesheet writes CSS that accompanies the rendered pages.
type Stylesheet interface {
	WriteCSS(w io.Writer) error
}

// Builder renders a site. Run may be called repeatedly but not concurrently.
type Builder struct {
	cfg        *config.Config
	factory    Factory
	journal    journal.Store
	recorder   metrics.Recorder
	now        func() time.Time
	siteFP     string
	cssName    string
	stylesheet Stylesheet
}

// Option configures a Builder.
type Option func(*Builder)

// WithJournal records outcomes in store and enables incremental skips.
func WithJournal(store journal.Store) Option {
	return func(b *Builder) { b.journal = store }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithStylesheet writes css to name under the output directory after every
// build that was not cancelled.
func WithStylesheet(name string, css Stylesheet) Option {
	return func(b *Builder) { b.cssName, b.stylesheet = name, css }
}

// WithClock overrides the time source used for builtins and the journal.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a builder for cfg.
func NewBuilder(cfg *config.Config, factory Factory, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		factory:  factory,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.siteFP = siteFingerprint(cfg)
	return b
}

// siteFingerprint changes whenever the configuration does, so a config edit
// invalidates every journal entry.
func siteFingerprint(cfg *config.Config) string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ""
	}
	return journal.Fingerprint("", string(data))
}

// Run builds the whole site.
func (b *Builder) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{BuildID: uuid.NewString(), StartTime: b.now()}
	ctx = observability.WithBuildID(ctx, res.BuildID)
	observability.InfoContext(ctx, "Build started",
		slog.String("source_dir", b.cfg.SourceDir), slog.String("output_dir", b.cfg.OutputDir))

	if b.journal != nil {
		if err := b.journal.BeginBuild(ctx, res.BuildID, res.StartTime); err != nil {
			observability.WarnContext(ctx, "Journal unavailable", logfields.Error(err))
		}
	}

	files, err := Discover(b.cfg.SourceDir, b.cfg.OutputDir, b.cfg.CacheDir)
	if err != nil {
		err = errors.WrapError(err, errors.CategoryFileSystem, "discover source files").
			WithContext("source_dir", b.cfg.SourceDir).Build()
		b.finish(ctx, res, StatusFailed)
		return res, err
	}
	res.Files = len(files)

	runErr := b.renderAll(ctx, files, req, res)
	if runErr == nil && ctx.Err() == nil && b.stylesheet != nil {
		if err := b.writeStylesheet(); err != nil {
			observability.WarnContext(ctx, "Failed to write stylesheet", logfields.Path(b.cssName), logfields.Error(err))
		}
	}

	status := StatusSuccess
	switch {
	case ctx.Err() != nil:
		status = StatusCancelled
	case runErr != nil:
		status = StatusFailed
	case len(res.Failures) > 0:
		status = StatusPartial
	}
	b.finish(ctx, res, status)

	if runErr != nil {
		return res, errors.WrapError(runErr, errors.CategoryBuild, "build aborted").
			WithContext("build_id", res.BuildID).Build()
	}
	if status == StatusCancelled {
		return res, ctx.Err()
	}
	return res, nil
}

func (b *Builder) writeStylesheet() error {
	var buf bytes.Buffer
	if err := b.stylesheet.WriteCSS(&buf); err != nil {
		return err
	}
	_, err := WriteOutput(b.cfg.OutputDir, b.cssName, buf.String())
	return err
}

func (b *Builder) renderAll(ctx context.Context, files []string, req Request, res *Result) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.cfg.Build.Workers))

	for _, rel := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			skipped, err := b.buildFile(gctx, res.BuildID, rel, req.Incremental)
			mu.Lock()
			switch {
			case err != nil:
				res.Failures = append(res.Failures, FileFailure{Path: rel, Stage: stageOf(err), Err: err})
			case skipped:
				res.Skipped++
			default:
				res.Rendered++
			}
			mu.Unlock()

			if err == nil {
				return nil
			}
			b.recordFailure(ctx, res.BuildID, rel, err)
			if req.FailFast {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// buildFile renders one source file. It reports whether the file was
// skipped as unchanged.
func (b *Builder) buildFile(ctx context.Context, buildID, rel string, incremental bool) (bool, error) {
	ctx = observability.WithPath(ctx, rel)

	file, err := source.Load(filepath.Join(b.cfg.SourceDir, filepath.FromSlash(rel)))
	if err != nil {
		return false, err
	}
	file.Path = rel
	outRel := OutputPath(rel)
	fingerprint := journal.Fingerprint(b.siteFP, file.Content)

	if incremental && b.unchanged(ctx, rel, outRel, fingerprint) {
		observability.DebugContext(ctx, "Unchanged, skipping")
		return true, nil
	}

	start := time.Now()
	tpl, err := b.factory.CreateTemplate(file)
	if err != nil {
		return false, err
	}
	out, err := tpl.Render(templates.RenderContext(tpl, b.cfg.Site, rel, b.now()))
	if err != nil {
		return false, err
	}
	written, err := WriteOutput(b.cfg.OutputDir, outRel, out)
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "write output").
			WithContext("path", rel).Build()
	}
	observability.DebugContext(ctx, "Rendered",
		logfields.TemplateKind(string(tpl.Kind())), logfields.Output(written), logfields.Duration(time.Since(start)))

	if b.journal != nil {
		err := b.journal.RecordRender(ctx, journal.Render{
			Path: rel, Fingerprint: fingerprint, Output: outRel,
			Kind: string(tpl.Kind()), BuildID: buildID, RenderedAt: b.now(),
		})
		if err != nil {
			observability.WarnContext(ctx, "Failed to record render", logfields.Error(err))
		}
	}
	return false, nil
}

func (b *Builder) unchanged(ctx context.Context, rel, outRel, fingerprint string) bool {
	if b.journal == nil {
		return false
	}
	prev, ok, err := b.journal.Lookup(ctx, rel)
	if err != nil || !ok || prev.Fingerprint != fingerprint || prev.Output != outRel {
		return false
	}
	_, err = os.Stat(filepath.Join(b.cfg.OutputDir, filepath.FromSlash(outRel)))
	return err == nil
}

func (b *Builder) recordFailure(ctx context.Context, buildID, rel string, err error) {
	ctx = observability.WithStage(observability.WithPath(ctx, rel), stageOf(err))
	observability.ErrorContext(ctx, "Render failed", logfields.Error(err))

	var re *tplerrors.RenderError
	if stderrors.As(err, &re) && re.Source != "" {
		observability.DebugContext(ctx, "Render diagnostic", slog.String("report", re.Report()))
	}
	if b.journal == nil {
		return
	}
	jerr := b.journal.RecordFailure(ctx, journal.Failure{
		BuildID: buildID, Path: rel, Stage: stageOf(err), Message: err.Error(),
	})
	if jerr != nil {
		observability.WarnContext(ctx, "Failed to record failure", logfields.Error(jerr))
	}
}

func (b *Builder) finish(ctx context.Context, res *Result, status Status) {
	res.Status = status
	res.EndTime = b.now()
	res.Duration = res.EndTime.Sub(res.StartTime)

	b.recorder.ObserveBuildDuration(res.Duration)
	b.recorder.IncBuildOutcome(string(status))

	if b.journal != nil {
		// The build context may already be cancelled.
		jctx := context.WithoutCancel(ctx)
		err := b.journal.FinishBuild(jctx, journal.Build{
			ID: res.BuildID, Finished: res.EndTime, Outcome: journalOutcome(status),
			Files: res.Files, Failures: len(res.Failures),
		})
		if err != nil {
			observability.WarnContext(ctx, "Failed to finish journal entry", logfields.Error(err))
		}
	}

	observability.InfoContext(ctx, "Build finished",
		slog.String("status", string(status)),
		logfields.Count(res.Files),
		slog.Int("rendered", res.Rendered),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", len(res.Failures)),
		logfields.Duration(res.Duration))
}

func journalOutcome(s Status) string {
	switch s {
	case StatusSuccess:
		return journal.OutcomeSucceeded
	case StatusPartial:
		return journal.OutcomePartial
	default:
		return journal.OutcomeFailed
	}
}

func stageOf(err error) string {
	var re *tplerrors.RenderError
	if stderrors.As(err, &re) {
		return re.Stage
	}
	return ""
}

// RenderFile renders a single file outside a build and returns the output.
// Paths inside the source directory get their site-relative path in the
// render context.
func (b *Builder) RenderFile(path string) (string, error) {
	file, err := source.Load(path)
	if err != nil {
		return "", err
	}
	rel := filepath.Base(path)
	if r, err := filepath.Rel(b.cfg.SourceDir, path); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		rel = filepath.ToSlash(r)
	}
	file.Path = rel

	tpl, err := b.factory.CreateTemplate(file)
	if err != nil {
		return "", err
	}
	return tpl.Render(templates.RenderContext(tpl, b.cfg.Site, rel, b.now()))
}
