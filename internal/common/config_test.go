package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "portfolio.json", cfg.Storage.Path)
	assert.Equal(t, []string{ProviderFMP}, cfg.Quotes.Providers)
	assert.Equal(t, "USD", cfg.DisplayCurrency)
	assert.Equal(t, 10*time.Second, cfg.Clients.FMP.GetTimeout())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STOCKTRACKER_ENV", "STOCKTRACKER_LOG_LEVEL", "STOCKTRACKER_STORAGE_BACKEND",
		"STOCKTRACKER_DATA_PATH", "STOCKTRACKER_DISPLAY_CURRENCY", "STOCKTRACKER_QUOTE_PROVIDERS",
		"FMP_API_KEY", "EODHD_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfig_LoadMergesFilesInOrder(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
display_currency = "eur"

[storage]
backend = "sqlite"
path = "data/ledger.db"

[quotes]
providers = ["eodhd", "fmp"]
concurrency = 8
`), 0644))
	require.NoError(t, os.WriteFile(local, []byte(`
[storage]
path = "other.db"

[clients.eodhd]
api_key = "file-key"
timeout = "3s"
`), 0644))

	cfg, err := LoadConfig(base, filepath.Join(dir, "missing.toml"), local)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "other.db", cfg.Storage.Path)
	assert.Equal(t, []string{ProviderEODHD, ProviderFMP}, cfg.Quotes.Providers)
	assert.Equal(t, 8, cfg.Quotes.Concurrency)
	assert.Equal(t, "EUR", cfg.DisplayCurrency)
	assert.Equal(t, "file-key", cfg.Clients.EODHD.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Clients.EODHD.GetTimeout())
	// untouched defaults survive the merge
	assert.Equal(t, "US", cfg.Clients.EODHD.Exchange)
}

func TestConfig_LoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage\nbackend="), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_ValidateUnknownBackend(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = "mongo"
	assert.Error(t, cfg.Validate())
}

func TestConfig_ValidateUnknownProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Quotes.Providers = []string{"fmp", "bloomberg"}
	assert.Error(t, cfg.Validate())
}

func TestConfig_ValidateFillsDefaults(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Backend: "BADGER", Versions: -2}, DisplayCurrency: "dollars"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, "ledger.badger", cfg.Storage.Path)
	assert.Equal(t, 0, cfg.Storage.Versions)
	assert.Equal(t, 1, cfg.Quotes.Concurrency)
	assert.Equal(t, "USD", cfg.DisplayCurrency)
}

func TestConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STOCKTRACKER_LOG_LEVEL", "debug")
	t.Setenv("STOCKTRACKER_STORAGE_BACKEND", "SQLite")
	t.Setenv("STOCKTRACKER_DATA_PATH", dir)
	t.Setenv("STOCKTRACKER_DISPLAY_CURRENCY", "gbp")
	t.Setenv("STOCKTRACKER_QUOTE_PROVIDERS", "Yahoo, fmp")
	t.Setenv("FMP_API_KEY", "from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "ledger.db"), cfg.Storage.Path)
	assert.Equal(t, "GBP", cfg.DisplayCurrency)
	assert.Equal(t, []string{"yahoo", "fmp"}, cfg.Quotes.Providers)
	assert.Equal(t, "from-env", cfg.Clients.FMP.APIKey)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("FMP_API_KEY", "")
	t.Setenv("STOCKTRACKER_FMP_API_KEY", "")

	_, err := ResolveAPIKey("fmp_api_key", "")
	assert.Error(t, err)

	key, err := ResolveAPIKey("fmp_api_key", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", key)

	t.Setenv("STOCKTRACKER_FMP_API_KEY", "secondary")
	key, err = ResolveAPIKey("fmp_api_key", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "secondary", key)
}

func TestGetTimeout_InvalidFallsBack(t *testing.T) {
	c := EODHDConfig{Timeout: "soon"}
	assert.Equal(t, 10*time.Second, c.GetTimeout())
}

func TestNewLoggerWithOutput_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Str("symbol", "AAPL").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"symbol":"AAPL"`)
}

func TestNewLoggerFromConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "st.log")
	logger := NewLoggerFromConfig(LoggingConfig{Level: "info", Outputs: []string{"file"}, FilePath: path})
	logger.Info().Msg("written")

	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
}

func TestLogger_CloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "st.log")
	logger := NewLoggerFromConfig(LoggingConfig{Level: "info", Outputs: []string{"file"}, FilePath: path})
	require.NotNil(t, logger.closer)

	f := logger.closer.(*os.File)
	require.NoError(t, logger.Close())
	assert.Nil(t, logger.closer)
	assert.ErrorIs(t, f.Close(), os.ErrClosed, "file should already be closed")

	assert.NoError(t, logger.Close(), "second Close is a no-op")
	assert.NoError(t, NewSilentLogger().Close())
	var nilLogger *Logger
	assert.NoError(t, nilLogger.Close())
}

func TestLoadVersionFile(t *testing.T) {
	oldV, oldB, oldC := Version, Build, GitCommit
	t.Cleanup(func() { Version, Build, GitCommit = oldV, oldB, oldC })
	Version, Build, GitCommit = "dev", "unknown", "unknown"

	path := filepath.Join(t.TempDir(), ".version")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nversion: 1.4.0\nbuild: 2026-10-15\ncommit: abc123\n"), 0644))
	loadVersionFile(path)

	assert.Equal(t, "1.4.0 (build: 2026-10-15, commit: abc123)", GetFullVersion())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Quotes.Providers = []string{"fmp", "yahoo"}
	PrintBanner(&buf, cfg, "file:portfolio.json")

	out := buf.String()
	assert.Contains(t, out, "STOCKTRACKER")
	assert.Contains(t, out, "file:portfolio.json")
	assert.True(t, strings.Contains(out, "fmp > yahoo"))
}
