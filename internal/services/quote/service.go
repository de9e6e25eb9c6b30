// Package quote provides a live quote source with ordered provider fallback
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/interfaces"
	"github.com/bobmcallan/stocktracker/internal/models"
)

// Service implements QuoteSource over an ordered list of providers. The first
// provider to return a quote wins.
type Service struct {
	providers []interfaces.QuoteProvider
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing
}

// NewService creates a new quote service. Nil providers are skipped.
func NewService(logger *common.Logger, providers ...interfaces.QuoteProvider) *Service {
	var list []interfaces.QuoteProvider
	for _, p := range providers {
		if p != nil {
			list = append(list, p)
		}
	}
	return &Service{
		providers: list,
		logger:    logger,
		now:       time.Now,
	}
}

// Providers returns the provider names in fallback order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// Fetch tries each provider once, in order. When none produces a quote the
// error is a TransportFailure only if every provider was unreachable;
// otherwise it is QuoteUnavailable carrying each provider's reason.
func (s *Service) Fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	if len(s.providers) == 0 {
		return nil, models.NewQuoteUnavailable(symbol, "no quote providers configured")
	}

	var (
		reasons    []string
		transports []error
	)
	for _, p := range s.providers {
		q, err := p.GetQuote(ctx, symbol)
		if err == nil && q != nil {
			s.stamp(q, symbol, p.Name())
			if len(reasons) > 0 {
				s.logger.Info().
					Str("symbol", symbol).
					Str("source", q.Source).
					Msg("Quote fallback succeeded")
			}
			return q, nil
		}

		switch {
		case err == nil:
			reasons = append(reasons, fmt.Sprintf("%s: unknown symbol", p.Name()))
		case errors.Is(err, models.ErrTransportFailure):
			transports = append(transports, fmt.Errorf("%s: %w", p.Name(), err))
			reasons = append(reasons, fmt.Sprintf("%s: %v", p.Name(), err))
		default:
			reasons = append(reasons, fmt.Sprintf("%s: %v", p.Name(), err))
		}

		s.logger.Debug().
			Str("symbol", symbol).
			Str("provider", p.Name()).
			AnErr("error", err).
			Msg("Quote provider gave no quote")

		// a cancelled run cannot be rescued by the next provider
		if ctx.Err() != nil {
			break
		}
	}

	reason := strings.Join(reasons, "; ")
	if len(transports) == len(reasons) {
		return nil, &models.QuoteError{
			Symbol: symbol,
			Kind:   models.TransportFailure,
			Reason: reason,
			Err:    errors.Join(transports...),
		}
	}
	return nil, models.NewQuoteUnavailable(symbol, reason)
}

// stamp fills the fields a provider may leave empty.
func (s *Service) stamp(q *models.Quote, symbol, provider string) {
	q.Symbol = symbol
	if q.Source == "" {
		q.Source = provider
	}
	if q.Timestamp.IsZero() {
		q.Timestamp = s.now().UTC()
	}
}

// Ensure Service implements QuoteSource
var _ interfaces.QuoteSource = (*Service)(nil)
