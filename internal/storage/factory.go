package storage

import (
	"fmt"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/interfaces"
	"github.com/bobmcallan/stocktracker/internal/storage/badger"
	"github.com/bobmcallan/stocktracker/internal/storage/sqlite"
)

// NewLedgerStore creates the ledger store selected by config.
// Supported backends: "file" (default), "badger", "sqlite".
func NewLedgerStore(logger *common.Logger, config common.StorageConfig) (interfaces.LedgerStore, error) {
	backend := config.Backend
	if backend == "" {
		backend = common.BackendFile
	}

	switch backend {
	case common.BackendFile:
		return NewFileStore(logger, config.Path, config.Versions)

	case common.BackendBadger:
		return badger.NewStore(logger, config.Path)

	case common.BackendSQLite:
		return sqlite.NewStore(logger, config.Path)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: file, badger, sqlite)", backend)
	}
}

// BackendLabel formats a backend and location as "<backend>:<path>".
func BackendLabel(backend, path string) string {
	return backend + ":" + path
}
