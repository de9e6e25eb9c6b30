package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/bobmcallan/stocktracker/internal/models"
)

// --- Add Command ---

type addCmd struct {
	rt    *Runtime
	price string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add shares of a stock to the portfolio" }
func (*addCmd) Usage() string {
	return `add [-price <price>] <symbol> <shares>

  Opens a holding, or adds shares to an existing one. An existing holding
  keeps the purchase price and date it was first added with.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.price, "price", "", "Purchase price per share (omit if unknown)")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	shares, err := parseShares(f.Arg(1))
	if err != nil {
		return c.rt.fail(err)
	}
	price, err := parsePrice(c.price)
	if err != nil {
		return c.rt.fail(err)
	}

	a, ok := c.rt.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	symbol := models.NormalizeSymbol(f.Arg(0))
	_, existed := a.Portfolio.Get(symbol)

	if err := a.Portfolio.Add(ctx, symbol, shares, price); err != nil {
		return c.rt.fail(err)
	}

	h, _ := a.Portfolio.Get(symbol)
	if existed {
		fmt.Fprintf(c.rt.Stdout, "Updated %s to %s shares\n", h.Symbol, h.Shares)
	} else {
		fmt.Fprintf(c.rt.Stdout, "Added %s shares of %s\n", shares, h.Symbol)
	}
	return subcommands.ExitSuccess
}

// --- Remove Command ---

type removeCmd struct {
	rt *Runtime
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove a stock from the portfolio" }
func (*removeCmd) Usage() string {
	return `remove <symbol>

  Deletes the holding for symbol. Removing a stock that is not held is not
  an error.
`
}

func (*removeCmd) SetFlags(*flag.FlagSet) {}

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	a, ok := c.rt.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	symbol := models.NormalizeSymbol(f.Arg(0))
	err := a.Portfolio.Remove(ctx, symbol)
	switch {
	case errors.Is(err, models.ErrNotFound):
		fmt.Fprintf(c.rt.Stdout, "%s not found in portfolio\n", symbol)
		return subcommands.ExitSuccess
	case err != nil:
		return c.rt.fail(err)
	}

	fmt.Fprintf(c.rt.Stdout, "Removed %s from portfolio\n", symbol)
	return subcommands.ExitSuccess
}

// --- Set Cost Command ---

type setCostCmd struct {
	rt *Runtime
}

func (*setCostCmd) Name() string     { return "set-cost" }
func (*setCostCmd) Synopsis() string { return "replace the purchase price of a holding" }
func (*setCostCmd) Usage() string {
	return `set-cost <symbol> <price|none>

  Sets the purchase price used for profit/loss. "none" marks the cost basis
  unknown.
`
}

func (*setCostCmd) SetFlags(*flag.FlagSet) {}

func (c *setCostCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	price, err := parsePrice(f.Arg(1))
	if err != nil {
		return c.rt.fail(err)
	}

	a, ok := c.rt.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	symbol := models.NormalizeSymbol(f.Arg(0))
	if err := a.Portfolio.SetCostBasis(ctx, symbol, price); err != nil {
		return c.rt.fail(err)
	}

	if price.Valid {
		fmt.Fprintf(c.rt.Stdout, "Set %s purchase price to %s\n", symbol, price.Decimal)
	} else {
		fmt.Fprintf(c.rt.Stdout, "Cleared %s purchase price\n", symbol)
	}
	return subcommands.ExitSuccess
}
