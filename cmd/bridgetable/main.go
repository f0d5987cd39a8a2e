package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run a bridge table server"`
	Client  ClientCmd        `cmd:"" help:"Connect to a table as an interactive player"`
	Boards  BoardsCmd        `cmd:"" help:"List recorded boards"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bridgetable"),
		kong.Description("Four-seat contract bridge table over websockets"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
