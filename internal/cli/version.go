package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/storage"
)

type versionCmd struct {
	rt    *Runtime
	short bool
}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print version and configuration summary" }
func (*versionCmd) Usage() string {
	return `version [-short]
`
}

func (c *versionCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.short, "short", false, "Print the version string only")
}

func (c *versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	common.LoadVersionFromFile()
	if c.short {
		fmt.Fprintln(c.rt.Stdout, common.GetFullVersion())
		return subcommands.ExitSuccess
	}

	cfg, err := c.rt.LoadConfig()
	if err != nil {
		return c.rt.fail(err)
	}
	common.PrintBanner(c.rt.Stdout, cfg, storage.BackendLabel(cfg.Storage.Backend, cfg.Storage.Path))
	return subcommands.ExitSuccess
}
