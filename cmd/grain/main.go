package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/grain/cmd/grain/commands"
	"git.home.luguber.info/inful/grain/internal/foundation/errors"
	"git.home.luguber.info/inful/grain/internal/templates/tplerrors"
	"git.home.luguber.info/inful/grain/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("grain"),
		kong.Description("Render a static site from templates, markup and scripts."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default(), Stdout: os.Stdout}, cli)
	if err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.HandleError(tplerrors.Classify(err)))
	}
}
