package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stocktracker/internal/models"
)

// parseShares reads a share count. Positivity is left to the portfolio.
func parseShares(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", models.ErrInvalidQuantity, s)
	}
	return d, nil
}

// parsePrice reads an optional purchase price. "" and "none" mean unknown.
func parsePrice(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q is not a number", models.ErrInvalidPrice, s)
	}
	return decimal.NewNullDecimal(d), nil
}
