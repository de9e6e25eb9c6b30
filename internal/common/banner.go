package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner writes the version banner for the CLI's version command.
func PrintBanner(w io.Writer, config *Config, ledger string) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 56
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(w, "%s\n", hr)
	fmt.Fprintf(w, "%s  STOCKTRACKER  portfolio ledger & valuation%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n", hr)

	kvPad := 14
	kvLines := [][2]string{
		{"Version", Version},
		{"Build", Build},
		{"Commit", GitCommit},
		{"Environment", config.Environment},
		{"Ledger", ledger},
		{"Quotes", strings.Join(config.Quotes.Providers, " > ")},
		{"Currency", config.DisplayCurrency},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "%s\n", hr)
}
