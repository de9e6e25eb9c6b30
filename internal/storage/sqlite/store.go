// Package sqlite provides a SQLite-backed ledger store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/models"
)

// Store keeps one row per holding in the holdings table.
type Store struct {
	db     *sql.DB
	path   string
	logger *common.Logger
}

// NewStore opens (creating when needed) the database at path and migrates it.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	store := &Store{db: db, path: path, logger: logger}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug().Str("path", path).Msg("SQLite store opened")
	return store, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS holdings (
			symbol TEXT PRIMARY KEY,
			shares TEXT NOT NULL,
			purchase_price TEXT,
			purchase_date TEXT NOT NULL DEFAULT ''
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Load reads every row. Decimals are stored as text so no precision is lost.
func (s *Store) Load(ctx context.Context) (models.Ledger, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, shares, purchase_price, purchase_date FROM holdings`)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	ledger := models.NewLedger()
	for rows.Next() {
		var (
			symbol, shares, date string
			price                sql.NullString
		)
		if err := rows.Scan(&symbol, &shares, &price, &date); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		h := models.Holding{Symbol: symbol}
		if h.Shares, err = decimal.NewFromString(shares); err != nil {
			return nil, fmt.Errorf("holding %s: bad shares %q: %w", symbol, shares, err)
		}
		if price.Valid {
			p, err := decimal.NewFromString(price.String)
			if err != nil {
				return nil, fmt.Errorf("holding %s: bad purchase price %q: %w", symbol, price.String, err)
			}
			h.PurchasePrice = decimal.NewNullDecimal(p)
		}
		if date != "" {
			if h.PurchaseDate, err = models.ParseDate(date); err != nil {
				return nil, fmt.Errorf("holding %s: %w", symbol, err)
			}
		}
		ledger[symbol] = h
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	ledger = ledger.Normalize()
	if err := ledger.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger %s: %w", s.path, err)
	}
	return ledger, nil
}

// Save replaces the table contents in one transaction.
func (s *Store) Save(ctx context.Context, ledger models.Ledger) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", models.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM holdings`); err != nil {
		return fmt.Errorf("%w: clear holdings: %w", models.ErrPersistence, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO holdings (symbol, shares, purchase_price, purchase_date) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %w", models.ErrPersistence, err)
	}
	defer stmt.Close()

	for _, symbol := range ledger.Symbols() {
		h := ledger[symbol]
		var price sql.NullString
		if h.HasCostBasis() {
			price = sql.NullString{String: h.PurchasePrice.Decimal.String(), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, symbol, h.Shares.String(), price, h.PurchaseDate.String()); err != nil {
			return fmt.Errorf("%w: insert %s: %w", models.ErrPersistence, symbol, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", models.ErrPersistence, err)
	}
	s.logger.Debug().Int("holdings", len(ledger)).Msg("Ledger saved")
	return nil
}

// Describe returns "sqlite:<path>".
func (s *Store) Describe() string {
	return common.BackendSQLite + ":" + s.path
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
