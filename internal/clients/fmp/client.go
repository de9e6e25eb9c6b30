// Package fmp provides a client for the Financial Modeling Prep quote API
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/models"
)

const (
	DefaultBaseURL   = "https://financialmodelingprep.com/api/v3"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client fetches quotes from FMP's /quote endpoint.
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new FMP client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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

// APIError represents a non-200 answer from FMP
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FMP API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name identifies the provider in logs and reports.
func (c *Client) Name() string { return common.ProviderFMP }

type fmpQuote struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Price             *float64 `json:"price"`
	ChangesPercentage float64  `json:"changesPercentage"`
	Change            float64  `json:"change"`
	DayLow            float64  `json:"dayLow"`
	DayHigh           float64  `json:"dayHigh"`
	Volume            float64  `json:"volume"`
	Timestamp         int64    `json:"timestamp"`
}

// errorBody is FMP's JSON error envelope ({"Error Message": "..."}).
type errorBody struct {
	Message string `json:"Error Message"`
}

// GetQuote retrieves the latest quote for symbol. An empty result set (FMP's
// answer for an unknown symbol) yields (nil, nil). An answer FMP gave but we
// cannot use (error status, error envelope, bad JSON) is returned as is; only
// failing to reach FMP at all is wrapped with ErrTransportFailure.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", models.ErrTransportFailure, err)
	}

	path := "/quote/" + url.PathEscape(symbol)
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", models.ErrTransportFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("FMP API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", models.ErrTransportFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			Endpoint:   path,
		}
	}

	var quotes []fmpQuote
	if err := json.Unmarshal(body, &quotes); err != nil {
		// FMP sometimes answers 200 with an error envelope instead of an array
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    eb.Message,
				Endpoint:   path,
			}
		}
		return nil, fmt.Errorf("parse FMP JSON: %w", err)
	}

	if len(quotes) == 0 || quotes[0].Price == nil || *quotes[0].Price <= 0 {
		c.logger.Debug().Str("symbol", symbol).Msg("FMP returned no quote")
		return nil, nil
	}

	fq := quotes[0]
	q := &models.Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(*fq.Price),
		Change:        decimal.NewFromFloat(fq.Change),
		ChangePercent: decimal.NewFromFloat(fq.ChangesPercentage),
		DayHigh:       decimal.NewFromFloat(fq.DayHigh),
		DayLow:        decimal.NewFromFloat(fq.DayLow),
		Volume:        int64(fq.Volume),
		Source:        common.ProviderFMP,
	}
	if fq.Timestamp > 0 {
		q.Timestamp = time.Unix(fq.Timestamp, 0).UTC()
	}
	return q, nil
}
