// Package common provides shared utilities for stocktracker
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Storage backends understood by storage.NewLedgerStore.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Quote provider names accepted in quotes.providers.
const (
	ProviderFMP   = "fmp"
	ProviderEODHD = "eodhd"
	ProviderYahoo = "yahoo"
)

// Config holds all configuration for stocktracker
type Config struct {
	Environment     string        `toml:"environment"`
	DisplayCurrency string        `toml:"display_currency"` // ISO code used when formatting money, default "USD"
	Storage         StorageConfig `toml:"storage"`
	Clients         ClientsConfig `toml:"clients"`
	Quotes          QuotesConfig  `toml:"quotes"`
	Logging         LoggingConfig `toml:"logging"`
}

// StorageConfig selects and locates the ledger backend.
type StorageConfig struct {
	Backend  string `toml:"backend"`  // "file", "badger" or "sqlite"
	Path     string `toml:"path"`     // file: ledger JSON file, badger: directory, sqlite: database file
	Versions int    `toml:"versions"` // file backend only: previous versions kept as <path>.vN
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	FMP   FMPConfig   `toml:"fmp"`
	EODHD EODHDConfig `toml:"eodhd"`
	Yahoo YahooConfig `toml:"yahoo"`
}

// FMPConfig holds Financial Modeling Prep API configuration
type FMPConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FMPConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Exchange  string `toml:"exchange"` // appended to symbols without an exchange suffix
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// YahooConfig toggles the keyless Yahoo Finance provider.
type YahooConfig struct {
	Enabled bool `toml:"enabled"`
}

// QuotesConfig controls how the valuation engine fetches quotes.
type QuotesConfig struct {
	Providers   []string `toml:"providers"`   // fallback order
	Concurrency int      `toml:"concurrency"` // parallel fetches, 1 = sequential
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"` // "console", "file"
	FilePath string   `toml:"file_path"`
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:     "development",
		DisplayCurrency: "USD",
		Storage: StorageConfig{
			Backend:  BackendFile,
			Path:     "portfolio.json",
			Versions: 0,
		},
		Clients: ClientsConfig{
			FMP: FMPConfig{
				BaseURL:   "https://financialmodelingprep.com/api/v3",
				RateLimit: 5,
				Timeout:   "10s",
			},
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				Exchange:  "US",
				RateLimit: 10,
				Timeout:   "10s",
			},
			Yahoo: YahooConfig{Enabled: false},
		},
		Quotes: QuotesConfig{
			Providers:   []string{ProviderFMP},
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:    "warn",
			Outputs:  []string{"console"},
			FilePath: "./logs/stocktracker.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKTRACKER_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("STOCKTRACKER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("STOCKTRACKER_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	// A data directory relocates the ledger, keeping the backend's usual file name.
	if path := os.Getenv("STOCKTRACKER_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Join(path, defaultLedgerName(config.Storage.Backend))
	}

	if dc := os.Getenv("STOCKTRACKER_DISPLAY_CURRENCY"); dc != "" {
		config.DisplayCurrency = strings.ToUpper(dc)
	}

	if providers := os.Getenv("STOCKTRACKER_QUOTE_PROVIDERS"); providers != "" {
		var list []string
		for _, p := range strings.Split(providers, ",") {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, strings.ToLower(p))
			}
		}
		config.Quotes.Providers = list
	}

	if v := os.Getenv("FMP_API_KEY"); v != "" {
		config.Clients.FMP.APIKey = v
	}
	if v := os.Getenv("EODHD_API_KEY"); v != "" {
		config.Clients.EODHD.APIKey = v
	}
}

func defaultLedgerName(backend string) string {
	switch backend {
	case BackendBadger:
		return "ledger.badger"
	case BackendSQLite:
		return "ledger.db"
	default:
		return "portfolio.json"
	}
}

// Validate normalizes enumerated settings and rejects unknown ones.
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case "":
		c.Storage.Backend = BackendFile
	case BackendFile, BackendBadger, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s, %s or %s)", c.Storage.Backend, BackendFile, BackendBadger, BackendSQLite)
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultLedgerName(c.Storage.Backend)
	}
	if c.Storage.Versions < 0 {
		c.Storage.Versions = 0
	}

	for i, p := range c.Quotes.Providers {
		p = strings.ToLower(strings.TrimSpace(p))
		switch p {
		case ProviderFMP, ProviderEODHD, ProviderYahoo:
		default:
			return fmt.Errorf("unknown quote provider %q", p)
		}
		c.Quotes.Providers[i] = p
	}
	if c.Quotes.Concurrency < 1 {
		c.Quotes.Concurrency = 1
	}

	dc := strings.ToUpper(strings.TrimSpace(c.DisplayCurrency))
	if len(dc) != 3 {
		dc = "USD"
	}
	c.DisplayCurrency = dc
	return nil
}

// ResolveAPIKey resolves an API key from environment or fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"fmp_api_key":   {"FMP_API_KEY", "STOCKTRACKER_FMP_API_KEY"},
		"eodhd_api_key": {"EODHD_API_KEY", "STOCKTRACKER_EODHD_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
