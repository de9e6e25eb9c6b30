package interfaces

import (
	"context"

	"github.com/bobmcallan/stocktracker/internal/models"
)

// QuoteProvider is one market data backend (FMP, EODHD, Yahoo).
// Transport failures are wrapped with models.ErrTransportFailure; any other
// error means the provider answered without usable data.
type QuoteProvider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// QuoteSource fetches a live quote for a symbol. Every error it returns is a
// *models.QuoteError, and each call is a single best-effort attempt.
type QuoteSource interface {
	Fetch(ctx context.Context, symbol string) (*models.Quote, error)
}
