package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/models"
	testcommon "github.com/bobmcallan/stocktracker/test/common"
)

// clearProviderEnv keeps keys from the developer's shell out of the tests.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"FMP_API_KEY", "STOCKTRACKER_FMP_API_KEY",
		"EODHD_API_KEY", "STOCKTRACKER_EODHD_API_KEY",
		"STOCKTRACKER_CONFIG", "STOCKTRACKER_QUOTE_PROVIDERS",
		"STOCKTRACKER_STORAGE_BACKEND", "STOCKTRACKER_DATA_PATH",
	} {
		t.Setenv(name, "")
	}
}

// writeTestConfig creates a minimal stocktracker.toml in a temp directory.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()

	config := `
[storage]
backend = "file"
path = "` + filepath.ToSlash(filepath.Join(dir, "data", "portfolio.json")) + `"

[logging]
level = "error"
outputs = ["file"]
file_path = "` + filepath.ToSlash(filepath.Join(dir, "logs", "stocktracker.log")) + `"
` + extra
	configPath := filepath.Join(dir, "stocktracker.toml")
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestNewApp_InitializesAllServices(t *testing.T) {
	clearProviderEnv(t)
	a, err := NewApp(context.Background(), writeTestConfig(t, ""))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer a.Close()

	if a.Config == nil {
		t.Error("Config is nil")
	}
	if a.Logger == nil {
		t.Error("Logger is nil")
	}
	if a.Store == nil {
		t.Error("Store is nil")
	}
	if a.Quotes == nil {
		t.Error("Quotes is nil")
	}
	if a.Portfolio == nil {
		t.Error("Portfolio is nil")
	}
	if a.Valuation == nil {
		t.Error("Valuation is nil")
	}
	if a.StartupTime.IsZero() {
		t.Error("StartupTime is zero")
	}
	if len(a.Providers) != 0 {
		t.Errorf("Providers = %v, want none without API keys", a.Providers)
	}
}

func TestNewApp_PersistsAcrossRuns(t *testing.T) {
	clearProviderEnv(t)
	configPath := writeTestConfig(t, "")
	ctx := context.Background()

	a, err := NewApp(ctx, configPath)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if err := a.Portfolio.Add(ctx, "aapl", decimal.NewFromInt(10), decimal.NewNullDecimal(decimal.NewFromInt(150))); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	a.Close()

	b, err := NewApp(ctx, configPath)
	if err != nil {
		t.Fatalf("second NewApp failed: %v", err)
	}
	defer b.Close()

	h, ok := b.Portfolio.Get("AAPL")
	if !ok {
		t.Fatal("AAPL missing after reopen")
	}
	if !h.Shares.Equal(decimal.NewFromInt(10)) {
		t.Errorf("shares = %s, want 10", h.Shares)
	}
}

func TestNewApp_CloseIsIdempotent(t *testing.T) {
	clearProviderEnv(t)
	a, err := NewApp(context.Background(), writeTestConfig(t, ""))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	a.Close()
	a.Close()
	if a.Store != nil {
		t.Error("Store should be nil after Close")
	}
	if err := a.Logger.Close(); err != nil {
		t.Errorf("log file should already be released, got %v", err)
	}
}

func TestNewApp_InvalidConfigReturnsError(t *testing.T) {
	clearProviderEnv(t)
	configPath := writeTestConfig(t, "\n[quotes]\nproviders = [\"bloomberg\"]\n")

	if _, err := NewApp(context.Background(), configPath); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestBuildProviders(t *testing.T) {
	clearProviderEnv(t)
	logger := common.NewSilentLogger()

	tests := []struct {
		name      string
		providers []string
		fmpKey    string
		eodhdKey  string
		yahoo     bool
		want      []string
	}{
		{"no keys", []string{"fmp", "eodhd"}, "", "", false, nil},
		{"fmp only", []string{"fmp", "eodhd"}, "k", "", false, []string{"fmp"}},
		{"order kept", []string{"eodhd", "fmp"}, "k", "k", false, []string{"eodhd", "fmp"}},
		{"yahoo appended", []string{"fmp"}, "k", "", true, []string{"fmp", "yahoo"}},
		{"yahoo listed once", []string{"yahoo", "fmp"}, "k", "", true, []string{"yahoo", "fmp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := common.NewDefaultConfig()
			cfg.Quotes.Providers = tt.providers
			cfg.Clients.FMP.APIKey = tt.fmpKey
			cfg.Clients.EODHD.APIKey = tt.eodhdKey
			cfg.Clients.Yahoo.Enabled = tt.yahoo

			var got []string
			for _, p := range BuildProviders(cfg, logger) {
				got = append(got, p.Name())
			}
			if len(got) != len(tt.want) {
				t.Fatalf("providers = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("providers[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildProviders_KeyFromEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("EODHD_API_KEY", "from-env")

	cfg := common.NewDefaultConfig()
	cfg.Quotes.Providers = []string{"eodhd"}

	got := BuildProviders(cfg, common.NewSilentLogger())
	if len(got) != 1 || got[0].Name() != "eodhd" {
		t.Fatalf("expected eodhd provider from env key, got %d providers", len(got))
	}
}

func TestApp_Report(t *testing.T) {
	store := testcommon.NewMemoryStore(models.Ledger{
		"AAPL": {Symbol: "AAPL", Shares: decimal.NewFromInt(10), PurchasePrice: decimal.NewNullDecimal(decimal.NewFromInt(150))},
	})
	cfg := common.NewDefaultConfig()

	a, err := New(context.Background(), cfg, common.NewSilentLogger(), store)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a.Quotes = testcommon.NewMockQuoteSource().SetPrice("AAPL", models.Quote{Price: decimal.NewFromInt(180)})

	r := a.Report(context.Background())
	if len(r.Valuations) != 1 {
		t.Fatalf("valuations = %d, want 1", len(r.Valuations))
	}
	if !r.TotalValue.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("total value = %s, want 1800", r.TotalValue)
	}
	if !r.TotalProfitLoss.Decimal.Equal(decimal.NewFromInt(300)) {
		t.Errorf("total P/L = %s, want 300", r.TotalProfitLoss.Decimal)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("STOCKTRACKER_CONFIG", "/etc/stocktracker.toml")
	if got := ResolveConfigPath("explicit.toml"); got != "explicit.toml" {
		t.Errorf("explicit path ignored: %s", got)
	}
	if got := ResolveConfigPath(""); got != "/etc/stocktracker.toml" {
		t.Errorf("env path ignored: %s", got)
	}
}
