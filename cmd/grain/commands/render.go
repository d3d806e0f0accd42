package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/grain/internal/foundation/errors"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	File   string `arg:"" type:"existingfile" help:"Source file to render"`
	Output string `short:"o" help:"Write the result to this file instead of stdout" type:"path"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	p, err := newPipeline(root, false)
	if err != nil {
		return err
	}
	defer p.Close()

	out, err := p.builder.RenderFile(r.File)
	if err != nil {
		return err
	}
	if r.Output == "" {
		_, err = fmt.Fprint(g.stdout(), out)
		return err
	}
	// #nosec G306 -- rendered pages are meant to be world-readable.
	if err := os.WriteFile(r.Output, []byte(out), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write rendered file").
			WithContext("path", r.Output).Build()
	}
	return nil
}
