// Package valuation combines holdings with live quotes into a report
package valuation

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/interfaces"
	"github.com/bobmcallan/stocktracker/internal/models"
)

// Engine implements ValuationService. It holds no state between runs.
type Engine struct {
	concurrency int
	logger      *common.Logger
	now         func() time.Time
}

// NewEngine creates an engine that fetches up to concurrency quotes at once.
// Values below 1 mean one at a time.
func NewEngine(logger *common.Logger, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Evaluate fetches a quote for every holding and aggregates the results.
// A failed fetch degrades its own row only; rows keep the holdings' order
// whatever order the fetches complete in.
func (e *Engine) Evaluate(ctx context.Context, holdings interfaces.HoldingLister, quotes interfaces.QuoteSource) *models.Report {
	list := holdings.List()
	rows := make([]models.Valuation, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, h := range list {
		g.Go(func() error {
			q, err := quotes.Fetch(gctx, h.Symbol)
			if err != nil {
				e.logger.Warn().Err(err).Str("symbol", h.Symbol).Msg("Quote unavailable")
			}
			rows[i] = models.ComputeValuation(h, q, err)
			return nil // per-row failures never abort the run
		})
	}
	_ = g.Wait()

	report := models.NewReport(rows, e.now())
	e.logger.Info().
		Int("holdings", len(rows)).
		Int("unavailable", report.Unavailable).
		Str("total_value", report.TotalValue.StringFixed(2)).
		Msg("Portfolio evaluated")
	return report
}

// Ensure Engine implements ValuationService
var _ interfaces.ValuationService = (*Engine)(nil)
