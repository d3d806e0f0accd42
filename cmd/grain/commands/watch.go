package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/grain/internal/build"
	"git.home.luguber.info/inful/grain/internal/logfields"
	"git.home.luguber.info/inful/grain/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce time.Duration `default:"300ms" help:"Quiet period after the last change before rebuilding"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := newPipeline(root, true)
	if err != nil {
		return err
	}
	defer p.Close()

	rebuild := func() {
		res, err := p.builder.Run(ctx, build.Request{Incremental: true})
		p.report(root)
		if err != nil {
			slog.Error("Build failed", logfields.Error(err))
			return
		}
		if err := summarize(g, res); err != nil {
			slog.Warn("Build finished with failures", logfields.Error(err))
		}
	}
	rebuild()

	// The factory runs first so the rebuild never sees stale compiled templates.
	watcher, err := watch.New(p.cfg.SourceDir,
		watch.WithDebounce(w.Debounce),
		watch.WithIgnoredDirs(p.cfg.OutputDir, p.cfg.CacheDir),
		watch.WithListener(p.factory),
		watch.WithListener(watch.ListenerFunc(rebuild)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	return watcher.Run(ctx)
}
