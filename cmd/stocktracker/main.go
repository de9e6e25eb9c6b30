package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/bobmcallan/stocktracker/internal/cli"
)

var configPath = flag.String("config", "", "Path to stocktracker.toml (default: $STOCKTRACKER_CONFIG or ./stocktracker.toml)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.ImportantFlag("config")
	cli.Register(commander, cli.NewRuntime(configPath))

	flag.Parse()

	// Ctrl-C abandons outstanding quote fetches; the ledger is only written
	// by completed mutations.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
