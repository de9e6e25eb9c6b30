// Package badger provides a BadgerHold-backed ledger store.
package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/models"
)

// holdingRecord is the stored form of a holding, one record per symbol.
type holdingRecord struct {
	Symbol        string              `json:"symbol" badgerhold:"key"`
	Shares        decimal.Decimal     `json:"shares"`
	PurchasePrice decimal.NullDecimal `json:"purchase_price"`
	PurchaseDate  models.Date         `json:"purchase_date"`
}

// Store wraps a BadgerHold database connection.
type Store struct {
	db     *badgerhold.Store
	path   string
	logger *common.Logger
}

// NewStore creates a new BadgerHold store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger
	options.Encoder = json.Marshal
	options.Decoder = json.Unmarshal

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold store opened")

	return &Store{
		db:     db,
		path:   path,
		logger: logger,
	}, nil
}

// DB returns the underlying badgerhold store.
func (s *Store) DB() *badgerhold.Store {
	return s.db
}

// Load returns every stored holding. An empty database is a fresh ledger.
func (s *Store) Load(_ context.Context) (models.Ledger, error) {
	var records []holdingRecord
	if err := s.db.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	ledger := make(models.Ledger, len(records))
	for _, r := range records {
		ledger[r.Symbol] = models.Holding{
			Symbol:        r.Symbol,
			Shares:        r.Shares,
			PurchasePrice: r.PurchasePrice,
			PurchaseDate:  r.PurchaseDate,
		}
	}
	ledger = ledger.Normalize()
	if err := ledger.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger %s: %w", s.path, err)
	}
	return ledger, nil
}

// Save replaces all stored holdings inside a single badger transaction, so a
// failure part way leaves the previous ledger untouched.
func (s *Store) Save(_ context.Context, ledger models.Ledger) error {
	err := s.db.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := s.db.TxDeleteMatching(tx, &holdingRecord{}, nil); err != nil {
			return fmt.Errorf("failed to clear holdings: %w", err)
		}
		for _, symbol := range ledger.Symbols() {
			h := ledger[symbol]
			record := &holdingRecord{
				Symbol:        symbol,
				Shares:        h.Shares,
				PurchasePrice: h.PurchasePrice,
				PurchaseDate:  h.PurchaseDate,
			}
			if err := s.db.TxUpsert(tx, symbol, record); err != nil {
				return fmt.Errorf("failed to save holding '%s': %w", symbol, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	s.logger.Debug().Int("holdings", len(ledger)).Msg("Ledger saved")
	return nil
}

// Describe returns "badger:<dir>".
func (s *Store) Describe() string {
	return common.BackendBadger + ":" + s.path
}

// Close closes the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
