package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Simulate SimulateCmd      `cmd:"" help:"Play one arm of games and write its outcomes as JSON lines"`
	Compare  CompareCmd       `cmd:"" help:"Run the statistical battery over two recorded arms"`
	Run      RunCmd           `cmd:"" help:"Play a uniform control arm and an experiment arm, then compare them"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("dealerbench"),
		kong.Description("Audit a card-draw source for deviation from a fair blackjack dealer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
