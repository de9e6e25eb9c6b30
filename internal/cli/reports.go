package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/bobmcallan/stocktracker/internal/services/report"
)

// --- List Command ---

type listCmd struct {
	rt  *Runtime
	raw bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list holdings without fetching quotes" }
func (*listCmd) Usage() string {
	return `list [-raw]

  Prints the stored holdings, sorted by symbol.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "Print markdown instead of rendering it")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, ok := c.rt.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	printMarkdown(c.rt.Stdout, report.FormatLedgerMarkdown(a.Portfolio.List(), a.Config.DisplayCurrency), c.raw)
	return subcommands.ExitSuccess
}

// --- Show Command ---

type showCmd struct {
	rt      *Runtime
	raw     bool
	chart   string
	timeout time.Duration
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "value the portfolio at live prices" }
func (*showCmd) Usage() string {
	return `show [-raw] [-chart <file.png>] [-timeout <duration>]

  Fetches a quote for every holding and prints value and profit/loss.
  Holdings whose quote cannot be fetched are shown as N/A.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "Print markdown instead of rendering it")
	f.StringVar(&c.chart, "chart", "", "Also write a PNG bar chart of holding values to this file")
	f.DurationVar(&c.timeout, "timeout", 30*time.Second, "Overall limit for fetching quotes")
}

func (c *showCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, ok := c.rt.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	r := a.Report(ctx)
	printMarkdown(c.rt.Stdout, report.FormatMarkdown(r, a.Config.DisplayCurrency), c.raw)

	if c.chart == "" {
		return subcommands.ExitSuccess
	}
	png, err := report.RenderAllocationChart(r, a.Config.DisplayCurrency)
	if errors.Is(err, report.ErrNothingToChart) {
		fmt.Fprintln(c.rt.Stderr, "No chart written: no holding has a current value")
		return subcommands.ExitSuccess
	}
	if err != nil {
		return c.rt.fail(err)
	}
	if err := os.WriteFile(c.chart, png, 0644); err != nil {
		return c.rt.fail(fmt.Errorf("failed to write chart: %w", err))
	}
	fmt.Fprintf(c.rt.Stderr, "Chart written to %s\n", c.chart)
	return subcommands.ExitSuccess
}
