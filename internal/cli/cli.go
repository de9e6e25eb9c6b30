// Package cli implements the stocktracker subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/bobmcallan/stocktracker/internal/app"
	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/models"
)

// Runtime is what every command needs from the outside world.
type Runtime struct {
	// Open builds the App for one command run.
	Open func(ctx context.Context) (*app.App, error)
	// LoadConfig reads configuration without opening the ledger.
	LoadConfig func() (*common.Config, error)

	Stdout io.Writer
	Stderr io.Writer
}

// NewRuntime returns a Runtime reading the config file named by
// *configPath at execution time, so it may be bound to a flag.
func NewRuntime(configPath *string) *Runtime {
	return &Runtime{
		Open: func(ctx context.Context) (*app.App, error) {
			return app.NewApp(ctx, *configPath)
		},
		LoadConfig: func() (*common.Config, error) {
			return common.LoadConfig(app.ResolveConfigPath(*configPath))
		},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Register adds every stocktracker command to c.
func Register(c *subcommands.Commander, rt *Runtime) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&addCmd{rt: rt}, "holdings")
	c.Register(&removeCmd{rt: rt}, "holdings")
	c.Register(&setCostCmd{rt: rt}, "holdings")

	c.Register(&listCmd{rt: rt}, "reports")
	c.Register(&showCmd{rt: rt}, "reports")

	c.Register(&versionCmd{rt: rt}, "")
}

// open builds the App, reporting a failure on stderr.
func (rt *Runtime) open(ctx context.Context) (*app.App, bool) {
	a, err := rt.Open(ctx)
	if err != nil {
		fmt.Fprintf(rt.Stderr, "Error: %v\n", err)
		return nil, false
	}
	return a, true
}

// fail reports err and maps it to an exit status. A persistence failure
// means this run's change never reached the ledger.
func (rt *Runtime) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(rt.Stderr, "Error: %v\n", err)
	switch {
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidPrice),
		errors.Is(err, models.ErrInvalidSymbol):
		return subcommands.ExitUsageError
	case errors.Is(err, models.ErrPersistence):
		fmt.Fprintln(rt.Stderr, "Warning: the change was applied in memory only; the saved ledger was not updated.")
		return subcommands.ExitFailure
	default:
		return subcommands.ExitFailure
	}
}

// printMarkdown renders md for the terminal, or writes it verbatim when raw
// is set or rendering fails.
func printMarkdown(w io.Writer, md string, raw bool) {
	if !raw {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(120),
		)
		if err == nil {
			if out, err := r.Render(md); err == nil {
				fmt.Fprint(w, out)
				return
			}
		}
	}
	fmt.Fprintln(w, md)
}
