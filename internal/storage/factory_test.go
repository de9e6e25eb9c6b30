package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/models"
)

func TestNewLedgerStore_Backends(t *testing.T) {
	tests := []struct {
		backend string
		path    string
		prefix  string
	}{
		{common.BackendFile, "portfolio.json", "file:"},
		{"", "portfolio.json", "file:"},
		{common.BackendBadger, "ledger.badger", "badger:"},
		{common.BackendSQLite, "ledger.db", "sqlite:"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+tt.backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := common.StorageConfig{Backend: tt.backend, Path: filepath.Join(t.TempDir(), tt.path)}

			store, err := NewLedgerStore(common.NewSilentLogger(), cfg)
			require.NoError(t, err)
			defer store.Close()
			assert.Contains(t, store.Describe(), tt.prefix)

			in := models.Ledger{"AAPL": {Shares: decimal.NewFromInt(4)}}
			require.NoError(t, store.Save(ctx, in))
			out, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"AAPL"}, out.Symbols())
		})
	}
}

func TestNewLedgerStore_UnknownBackend(t *testing.T) {
	_, err := NewLedgerStore(common.NewSilentLogger(), common.StorageConfig{Backend: "mongo", Path: t.TempDir()})
	assert.Error(t, err)
}
