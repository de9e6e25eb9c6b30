// Package portfolio provides the in-memory ledger and its mutations
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/interfaces"
	"github.com/bobmcallan/stocktracker/internal/models"
)

// Service implements PortfolioService. It is the only writer of its store,
// and every mutation saves the full ledger before returning.
type Service struct {
	store  interfaces.LedgerStore
	ledger models.Ledger
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// Open loads the ledger from store. A store with nothing in it yields an
// empty portfolio.
func Open(ctx context.Context, store interfaces.LedgerStore, logger *common.Logger) (*Service, error) {
	ledger, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger from %s: %w", store.Describe(), err)
	}
	if ledger == nil {
		ledger = models.NewLedger()
	}

	logger.Debug().Str("store", store.Describe()).Int("holdings", len(ledger)).Msg("Portfolio opened")

	return &Service{
		store:  store,
		ledger: ledger,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Add opens a holding or adds shares to an existing one. An existing
// holding keeps its original purchase price and date.
func (s *Service) Add(ctx context.Context, symbol string, shares decimal.Decimal, purchasePrice decimal.NullDecimal) error {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return models.ErrInvalidSymbol
	}
	if !shares.IsPositive() {
		return fmt.Errorf("%w: got %s", models.ErrInvalidQuantity, shares)
	}
	if purchasePrice.Valid && purchasePrice.Decimal.IsNegative() {
		return fmt.Errorf("%w: got %s", models.ErrInvalidPrice, purchasePrice.Decimal)
	}

	if h, ok := s.ledger[symbol]; ok {
		h.Shares = h.Shares.Add(shares)
		s.ledger[symbol] = h

		if purchasePrice.Valid && !(h.PurchasePrice.Valid && h.PurchasePrice.Decimal.Equal(purchasePrice.Decimal)) {
			s.logger.Debug().
				Str("symbol", symbol).
				Str("ignored_price", purchasePrice.Decimal.String()).
				Msg("Existing holding keeps its purchase price")
		}
		s.logger.Info().Str("symbol", symbol).Str("shares", h.Shares.String()).Msg("Holding increased")
	} else {
		s.ledger[symbol] = models.Holding{
			Symbol:        symbol,
			Shares:        shares,
			PurchasePrice: purchasePrice,
			PurchaseDate:  models.DateOf(s.now()),
		}
		s.logger.Info().Str("symbol", symbol).Str("shares", shares.String()).Msg("Holding added")
	}

	return s.save(ctx)
}

// Remove deletes symbol's holding. Returns models.ErrNotFound, without
// touching the store, when there is none.
func (s *Service) Remove(ctx context.Context, symbol string) error {
	symbol = models.NormalizeSymbol(symbol)
	if _, ok := s.ledger[symbol]; !ok {
		return fmt.Errorf("%s: %w", symbol, models.ErrNotFound)
	}
	delete(s.ledger, symbol)
	s.logger.Info().Str("symbol", symbol).Msg("Holding removed")
	return s.save(ctx)
}

// SetCostBasis replaces the recorded purchase price. An invalid price marks
// the cost basis unknown.
func (s *Service) SetCostBasis(ctx context.Context, symbol string, purchasePrice decimal.NullDecimal) error {
	symbol = models.NormalizeSymbol(symbol)
	h, ok := s.ledger[symbol]
	if !ok {
		return fmt.Errorf("%s: %w", symbol, models.ErrNotFound)
	}
	if purchasePrice.Valid && purchasePrice.Decimal.IsNegative() {
		return fmt.Errorf("%w: got %s", models.ErrInvalidPrice, purchasePrice.Decimal)
	}
	h.PurchasePrice = purchasePrice
	s.ledger[symbol] = h
	s.logger.Info().Str("symbol", symbol).Bool("known", purchasePrice.Valid).Msg("Cost basis updated")
	return s.save(ctx)
}

// List returns a copy of every holding, sorted by symbol.
func (s *Service) List() []models.Holding {
	return s.ledger.Holdings()
}

// Get returns the holding for symbol.
func (s *Service) Get(symbol string) (models.Holding, bool) {
	symbol = models.NormalizeSymbol(symbol)
	h, ok := s.ledger[symbol]
	if ok {
		h.Symbol = symbol
	}
	return h, ok
}

// Store describes where the ledger lives.
func (s *Service) Store() string {
	return s.store.Describe()
}

// save writes the whole ledger. On failure the in-memory change stays, so
// the caller learns that memory and disk now differ.
func (s *Service) save(ctx context.Context) error {
	if err := s.store.Save(ctx, s.ledger.Clone()); err != nil {
		s.logger.Error().Err(err).Str("store", s.store.Describe()).Msg("Failed to save ledger")
		if !errors.Is(err, models.ErrPersistence) {
			err = fmt.Errorf("%w: %w", models.ErrPersistence, err)
		}
		return err
	}
	return nil
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
