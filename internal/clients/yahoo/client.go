// Package yahoo provides a keyless quote provider backed by Yahoo Finance.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/models"
)

// getQuote is the finance-go lookup; tests replace it.
var getQuote = quote.Get

// notFoundPrefix starts the error finance-go returns for an unknown symbol.
const notFoundPrefix = "Can't find quote for symbol"

// Client adapts finance-go to the QuoteProvider contract.
type Client struct {
	logger *common.Logger
}

// NewClient creates a Yahoo Finance client.
func NewClient(logger *common.Logger) *Client {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Client{logger: logger}
}

// Name identifies the provider in logs and reports.
func (c *Client) Name() string { return common.ProviderYahoo }

type result struct {
	q   *finance.Quote
	err error
}

// GetQuote looks up symbol. finance-go has no context support, so the call
// runs in its own goroutine and is abandoned when ctx ends.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo Finance request")

	ch := make(chan result, 1)
	get := getQuote
	go func() {
		q, err := get(symbol)
		ch <- result{q: q, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", models.ErrTransportFailure, ctx.Err())
	case r = <-ch:
	}

	if r.err != nil {
		return nil, classify(symbol, r.err, c.logger)
	}
	if r.q == nil || r.q.RegularMarketPrice <= 0 {
		c.logger.Debug().Str("symbol", symbol).Msg("Yahoo returned no quote")
		return nil, nil
	}

	q := &models.Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(r.q.RegularMarketPrice),
		Change:        decimal.NewFromFloat(r.q.RegularMarketChange),
		ChangePercent: decimal.NewFromFloat(r.q.RegularMarketChangePercent),
		DayHigh:       decimal.NewFromFloat(r.q.RegularMarketDayHigh),
		DayLow:        decimal.NewFromFloat(r.q.RegularMarketDayLow),
		Volume:        int64(r.q.RegularMarketVolume),
		Source:        common.ProviderYahoo,
	}
	if r.q.RegularMarketTime > 0 {
		q.Timestamp = time.Unix(int64(r.q.RegularMarketTime), 0).UTC()
	}
	return q, nil
}

// classify maps a finance-go error onto the provider contract. Only a failed
// HTTP exchange counts as transport; finance-go reports upstream status
// errors and bad payloads as plain errors.
func classify(symbol string, err error, logger *common.Logger) error {
	if strings.HasPrefix(err.Error(), notFoundPrefix) {
		logger.Debug().Str("symbol", symbol).Msg("Yahoo does not know symbol")
		return nil
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: yahoo: %w", models.ErrTransportFailure, err)
	}
	return fmt.Errorf("yahoo: %w", err)
}
