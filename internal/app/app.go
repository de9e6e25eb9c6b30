// Package app wires configuration, storage, quote providers and services
// into one App shared by every CLI command.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bobmcallan/stocktracker/internal/clients/eodhd"
	"github.com/bobmcallan/stocktracker/internal/clients/fmp"
	"github.com/bobmcallan/stocktracker/internal/clients/yahoo"
	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/interfaces"
	"github.com/bobmcallan/stocktracker/internal/models"
	"github.com/bobmcallan/stocktracker/internal/services/portfolio"
	"github.com/bobmcallan/stocktracker/internal/services/quote"
	"github.com/bobmcallan/stocktracker/internal/services/valuation"
	"github.com/bobmcallan/stocktracker/internal/storage"
)

// DefaultConfigName is looked up in the working directory, then next to the
// binary, when no config path is given.
const DefaultConfigName = "stocktracker.toml"

// App holds the initialized store, quote source and services for one run.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Store       interfaces.LedgerStore
	Quotes      interfaces.QuoteSource
	Portfolio   interfaces.PortfolioService
	Valuation   interfaces.ValuationService
	Providers   []string
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, then
// STOCKTRACKER_CONFIG, then ./stocktracker.toml, then the binary directory.
// The result may not exist; LoadConfig then runs on defaults.
func ResolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("STOCKTRACKER_CONFIG"); env != "" {
		return env
	}
	if _, err := os.Stat(DefaultConfigName); err == nil {
		return DefaultConfigName
	}
	return filepath.Join(getBinaryDir(), DefaultConfigName)
}

// NewApp loads configuration, opens the ledger and builds the quote chain.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := storage.NewLedgerStore(logger, config.Storage)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a, err := New(ctx, config, logger, store, BuildProviders(config, logger)...)
	if err != nil {
		store.Close()
		logger.Close()
		return nil, err
	}
	a.StartupTime = startupStart

	logger.Debug().
		Str("ledger", store.Describe()).
		Strs("providers", a.Providers).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// New assembles an App from already constructed parts. It loads the ledger
// from store; the App owns store from then on.
func New(ctx context.Context, config *common.Config, logger *common.Logger, store interfaces.LedgerStore, providers ...interfaces.QuoteProvider) (*App, error) {
	portfolioService, err := portfolio.Open(ctx, store, logger)
	if err != nil {
		return nil, err
	}

	quoteService := quote.NewService(logger, providers...)

	return &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Quotes:      quoteService,
		Portfolio:   portfolioService,
		Valuation:   valuation.NewEngine(logger, config.Quotes.Concurrency),
		Providers:   quoteService.Providers(),
		StartupTime: time.Now(),
	}, nil
}

// BuildProviders creates the configured quote providers in fallback order.
// A provider whose API key cannot be resolved is skipped with a warning.
// Yahoo is appended last when enabled but not listed.
func BuildProviders(config *common.Config, logger *common.Logger) []interfaces.QuoteProvider {
	names := slices.Clone(config.Quotes.Providers)
	if config.Clients.Yahoo.Enabled && !slices.Contains(names, common.ProviderYahoo) {
		names = append(names, common.ProviderYahoo)
	}

	var providers []interfaces.QuoteProvider
	for _, name := range names {
		switch name {
		case common.ProviderFMP:
			key, err := common.ResolveAPIKey("fmp_api_key", config.Clients.FMP.APIKey)
			if err != nil {
				logger.Warn().Msg("FMP API key not configured - provider skipped")
				continue
			}
			providers = append(providers, fmp.NewClient(key,
				fmp.WithBaseURL(config.Clients.FMP.BaseURL),
				fmp.WithLogger(logger),
				fmp.WithRateLimit(config.Clients.FMP.RateLimit),
				fmp.WithTimeout(config.Clients.FMP.GetTimeout()),
			))

		case common.ProviderEODHD:
			key, err := common.ResolveAPIKey("eodhd_api_key", config.Clients.EODHD.APIKey)
			if err != nil {
				logger.Warn().Msg("EODHD API key not configured - provider skipped")
				continue
			}
			providers = append(providers, eodhd.NewClient(key,
				eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
				eodhd.WithExchange(config.Clients.EODHD.Exchange),
				eodhd.WithLogger(logger),
				eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
				eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
			))

		case common.ProviderYahoo:
			providers = append(providers, yahoo.NewClient(logger))
		}
	}

	if len(providers) == 0 {
		logger.Warn().Msg("No quote providers available - every quote will be unavailable")
	}
	return providers
}

// Report values every holding against live quotes.
func (a *App) Report(ctx context.Context) *models.Report {
	return a.Valuation.Evaluate(ctx, a.Portfolio, a.Quotes)
}

// Close releases the ledger store. Safe to call more than once.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close ledger store")
		}
		a.Store = nil
	}
	if err := a.Logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}
