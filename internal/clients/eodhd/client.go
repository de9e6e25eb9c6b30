// Package eodhd provides a client for the EODHD real-time quote API
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
// EODHD reports "NA" for every field of a ticker it has no data for.
type flexFloat64 struct {
	value float64
	valid bool
}

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = flexFloat64{}
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64{value: num, valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = flexFloat64{}
			return nil
		}
		*f = flexFloat64{value: num, valid: true}
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

func (f flexFloat64) decimal() decimal.Decimal {
	return decimal.NewFromFloat(f.value)
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultExchange  = "US"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client fetches live quotes from EODHD.
type Client struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithExchange sets the suffix appended to bare symbols
func WithExchange(exchange string) ClientOption {
	return func(c *Client) {
		if exchange != "" {
			c.exchange = strings.ToUpper(exchange)
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		exchange: DefaultExchange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name identifies the provider in logs and reports.
func (c *Client) Name() string { return common.ProviderEODHD }

// get performs a rate-limited GET request. Failing to reach EODHD is wrapped
// with ErrTransportFailure; an error status comes back as *APIError.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %w", models.ErrTransportFailure, err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", models.ErrTransportFailure, err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

type realTimeResponse struct {
	Code          string      `json:"code"`
	Timestamp     flexFloat64 `json:"timestamp"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	Volume        flexFloat64 `json:"volume"`
	PreviousClose flexFloat64 `json:"previousClose"`
	Change        flexFloat64 `json:"change"`
	ChangeP       flexFloat64 `json:"change_p"`
}

// Ticker returns the EODHD ticker for a ledger symbol. Symbols that already
// carry an exchange suffix (BHP.AU) pass through; bare ones get the default.
func (c *Client) Ticker(symbol string) string {
	symbol = models.NormalizeSymbol(symbol)
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + c.exchange
}

// GetQuote retrieves the live quote for symbol. A ticker EODHD has no price
// for yields (nil, nil).
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	ticker := c.Ticker(symbol)
	path := "/real-time/" + url.PathEscape(ticker)

	var resp realTimeResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			c.logger.Debug().Str("ticker", ticker).Msg("EODHD does not know ticker")
			return nil, nil
		}
		return nil, err
	}

	if !resp.Close.valid || resp.Close.value <= 0 {
		c.logger.Debug().Str("ticker", ticker).Msg("EODHD returned no price")
		return nil, nil
	}

	q := &models.Quote{
		Symbol:        models.NormalizeSymbol(symbol),
		Price:         resp.Close.decimal(),
		Change:        resp.Change.decimal(),
		ChangePercent: resp.ChangeP.decimal(),
		DayHigh:       resp.High.decimal(),
		DayLow:        resp.Low.decimal(),
		Volume:        int64(resp.Volume.value),
		Source:        common.ProviderEODHD,
	}
	if resp.Timestamp.valid && resp.Timestamp.value > 0 {
		q.Timestamp = time.Unix(int64(resp.Timestamp.value), 0).UTC()
	}
	return q, nil
}
