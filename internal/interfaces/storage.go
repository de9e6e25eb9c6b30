// Package interfaces defines service contracts for stocktracker
package interfaces

import (
	"context"

	"github.com/bobmcallan/stocktracker/internal/models"
)

// LedgerStore is the durable keeper of the holdings mapping.
type LedgerStore interface {
	// Load returns the persisted ledger, or an empty ledger when nothing
	// has been saved yet. Missing data is not an error.
	Load(ctx context.Context) (models.Ledger, error)

	// Save atomically replaces the persisted ledger with l. A failed Save
	// leaves the previously committed ledger intact.
	Save(ctx context.Context, l models.Ledger) error

	// Describe returns a human readable location (path, backend) for banners and logs.
	Describe() string

	Close() error
}
