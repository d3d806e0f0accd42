package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/grain/internal/build"
	"git.home.luguber.info/inful/grain/internal/foundation/errors"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Incremental bool `short:"i" help:"Skip files unchanged since the last build (also enabled by build.incremental)"`
	FailFast    bool `name:"fail-fast" help:"Abort the build on the first failed file"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := newPipeline(root, true)
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.builder.Run(ctx, build.Request{
		Incremental: b.Incremental || p.cfg.Build.Incremental,
		FailFast:    b.FailFast,
	})
	p.report(root)
	if err != nil {
		return err
	}
	return summarize(g, res)
}

// summarize prints the outcome and turns failed files into an error.
func summarize(g *Global, res *build.Result) error {
	_, _ = fmt.Fprintf(g.stdout(), "Built %d files: %d rendered, %d skipped, %d failed in %s\n",
		res.Files, res.Rendered, res.Skipped, len(res.Failures), res.Duration.Round(time.Millisecond))
	if res.Status.IsSuccess() {
		return nil
	}
	for _, f := range res.Failures {
		_, _ = fmt.Fprintf(g.stdout(), "  %s: %v\n", f.Path, f.Err)
	}
	return errors.BuildError(fmt.Sprintf("%d of %d files failed", len(res.Failures), res.Files)).
		WithContext("build_id", res.BuildID).Build()
}
