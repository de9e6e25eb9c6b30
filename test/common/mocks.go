// Package common provides shared test infrastructure
package common

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/stocktracker/internal/models"
)

// MemoryStore implements LedgerStore in memory for testing
type MemoryStore struct {
	mu        sync.Mutex
	Ledger    models.Ledger
	LoadErr   error
	SaveErr   error
	SaveCalls int
}

// NewMemoryStore creates a store preloaded with ledger (which may be nil)
func NewMemoryStore(ledger models.Ledger) *MemoryStore {
	if ledger == nil {
		ledger = models.NewLedger()
	}
	return &MemoryStore{Ledger: ledger.Clone()}
}

func (m *MemoryStore) Load(ctx context.Context) (models.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Ledger.Clone().Normalize(), nil
}

func (m *MemoryStore) Save(ctx context.Context, ledger models.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Ledger = ledger.Clone()
	return nil
}

func (m *MemoryStore) Describe() string { return "memory" }

func (m *MemoryStore) Close() error { return nil }

// Saved returns a copy of the last committed ledger
func (m *MemoryStore) Saved() models.Ledger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Ledger.Clone()
}

// QuoteOutcome scripts the answer for one symbol
type QuoteOutcome struct {
	Quote *models.Quote
	Err   error
	Delay time.Duration
}

// MockQuoteSource implements QuoteSource with per-symbol outcomes. Symbols
// without an outcome resolve to QuoteUnavailable.
type MockQuoteSource struct {
	mu       sync.Mutex
	Outcomes map[string]QuoteOutcome
	Calls    map[string]int
}

// NewMockQuoteSource creates an empty scripted source
func NewMockQuoteSource() *MockQuoteSource {
	return &MockQuoteSource{
		Outcomes: make(map[string]QuoteOutcome),
		Calls:    make(map[string]int),
	}
}

// SetPrice scripts a successful quote
func (m *MockQuoteSource) SetPrice(symbol string, q models.Quote) *MockQuoteSource {
	q.Symbol = symbol
	m.Outcomes[symbol] = QuoteOutcome{Quote: &q}
	return m
}

// SetError scripts a failure
func (m *MockQuoteSource) SetError(symbol string, err error) *MockQuoteSource {
	m.Outcomes[symbol] = QuoteOutcome{Err: err}
	return m
}

// SetDelay holds the answer for symbol back by d
func (m *MockQuoteSource) SetDelay(symbol string, d time.Duration) *MockQuoteSource {
	o := m.Outcomes[symbol]
	o.Delay = d
	m.Outcomes[symbol] = o
	return m
}

func (m *MockQuoteSource) Fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	m.mu.Lock()
	m.Calls[symbol]++
	o, ok := m.Outcomes[symbol]
	m.mu.Unlock()

	if o.Delay > 0 {
		select {
		case <-time.After(o.Delay):
		case <-ctx.Done():
			return nil, models.NewTransportFailure(symbol, ctx.Err())
		}
	}
	if o.Err != nil {
		return nil, o.Err
	}
	if !ok || o.Quote == nil {
		return nil, models.NewQuoteUnavailable(symbol, "Unknown error")
	}
	q := *o.Quote
	return &q, nil
}

// CallCount returns how often symbol was fetched
func (m *MockQuoteSource) CallCount(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[symbol]
}
