package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stocktracker/internal/models"
)

// HoldingLister is the read side of a portfolio the valuation engine needs.
type HoldingLister interface {
	List() []models.Holding
}

// PortfolioService owns the in-memory ledger for a run and mediates every
// read and write to the LedgerStore.
type PortfolioService interface {
	HoldingLister

	// Add opens a holding or increases an existing one. Purchase price and
	// date of an existing holding are left untouched.
	Add(ctx context.Context, symbol string, shares decimal.Decimal, purchasePrice decimal.NullDecimal) error

	// Remove deletes a holding. Returns models.ErrNotFound when absent.
	Remove(ctx context.Context, symbol string) error

	// SetCostBasis replaces the recorded purchase price of a holding.
	SetCostBasis(ctx context.Context, symbol string, purchasePrice decimal.NullDecimal) error

	Get(symbol string) (models.Holding, bool)
}

// ValuationService turns holdings plus live quotes into a Report.
type ValuationService interface {
	Evaluate(ctx context.Context, holdings HoldingLister, quotes QuoteSource) *models.Report
}
