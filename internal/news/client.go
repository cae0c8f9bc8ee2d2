// Package news fetches business headlines from a NewsAPI-compatible
// provider. Calls are paced like the market-data client; there is no cache
// because headlines churn too quickly to be worth holding.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"finadvisor/internal/models"
	"finadvisor/internal/version"
)

const (
	defaultBaseURL      = "https://newsapi.org"
	defaultTimeout      = 10 * time.Second
	defaultHeadlineSize = 10
	maxHeadlineSize     = 50
)

// Client fetches headlines from the news provider.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	pacer        *rate.Limiter
	defaultLimit int
	maxLimit     int
}

// NewClient returns a client configured from the news section of the
// process config.
func NewClient(cfg models.NewsConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = defaultHeadlineSize
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < defaultLimit {
		maxLimit = maxHeadlineSize
	}

	client := &Client{
		BaseURL:      baseURL,
		APIKey:       strings.TrimSpace(cfg.APIKey),
		HTTPClient:   &http.Client{Timeout: timeout},
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		client.pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return client
}

type headlinesPayload struct {
	Status   string    `json:"status"`
	Articles []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Headlines returns up to limit current business headlines. A non-positive
// limit falls back to the configured default; limits above the configured
// maximum are clamped.
func (c *Client) Headlines(ctx context.Context, limit int) ([]models.NewsItem, error) {
	if c == nil {
		return nil, fmt.Errorf("news client not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if limit <= 0 {
		limit = c.defaultLimit
	}
	if limit > c.maxLimit {
		limit = c.maxLimit
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("pacing wait: %w", err)
		}
	}

	query := url.Values{}
	query.Set("category", "business")
	query.Set("pageSize", strconv.Itoa(limit))
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/v2/top-headlines?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.APIKey)
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

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news request failed: status %d", resp.StatusCode)
	}

	var payload headlinesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]models.NewsItem, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		items = append(items, models.NewsItem{
			Title:       a.Title,
			Summary:     a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
		if len(items) == limit {
			break
		}
	}

	return items, nil
}
