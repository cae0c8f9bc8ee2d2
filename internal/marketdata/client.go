// Package marketdata fetches point-in-time quotes from a Finnhub-compatible
// provider. Outbound calls are paced with a token bucket so bursts against
// the gateway do not burn the provider's request budget, and results are
// held in a short-lived cache.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"finadvisor/internal/models"
	"finadvisor/internal/version"
)

const (
	defaultBaseURL = "https://finnhub.io"
	defaultTimeout = 10 * time.Second
	quoteSource    = "finnhub"
)

// Client fetches quotes from the market-data provider.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	pacer *rate.Limiter
	cache *quoteCache
	now   func() time.Time
}

// NewClient returns a client configured from the market-data and cache
// sections of the process config.
func NewClient(cfg models.MarketDataConfig, cacheCfg models.CacheConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		BaseURL:    baseURL,
		APIKey:     strings.TrimSpace(cfg.APIKey),
		HTTPClient: &http.Client{Timeout: timeout},
		now:        func() time.Time { return time.Now().UTC() },
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		client.pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if cacheCfg.Enabled {
		client.cache = newQuoteCache(cacheCfg.TTL, cacheCfg.MaxEntries)
	}

	return client
}

// quotePayload is the provider's quote response. Zero values across the
// board mean the symbol is unknown; the provider answers 200 either way.
type quotePayload struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	Timestamp     int64   `json:"t"`
}

// Quote returns the current quote for a symbol. The symbol is upper-cased
// here; validation of its charset happens upstream.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if c == nil {
		return nil, fmt.Errorf("market data client not configured")
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if c.cache != nil {
		if quote, ok := c.cache.get(symbol, c.now()); ok {
			return quote, nil
		}
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("pacing wait: %w", err)
		}
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("token", c.APIKey)
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/v1/quote?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrSymbolNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("market data request failed: status %d", resp.StatusCode)
	}

	var payload quotePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if payload.Current == 0 && payload.Timestamp == 0 {
		return nil, ErrSymbolNotFound
	}

	asOf := c.now()
	if payload.Timestamp > 0 {
		asOf = time.Unix(payload.Timestamp, 0).UTC()
	}

	quote := &models.Quote{
		Symbol:        symbol,
		Price:         payload.Current,
		Change:        payload.Change,
		ChangePercent: payload.ChangePercent,
		Currency:      "USD",
		AsOf:          asOf,
		Source:        quoteSource,
	}

	if c.cache != nil {
		c.cache.set(symbol, quote, c.now())
	}

	return quote, nil
}
