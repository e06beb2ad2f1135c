// Package exchangerate looks up currency rates over HTTP.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBaseURL serves GET /latest/{currency}
const DefaultBaseURL = "https://api.exchangerate-api.com/v4"

// Config holds rate client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements port.RateProvider
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// NewClient creates a rate client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// LatestRates returns every rate quoted against base
func (c *Client) LatestRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	endpoint := c.baseURL + "/latest/" + url.PathEscape(base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates for %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rate lookup for %s returned %d: %s", base, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rates for %s: %w", base, err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rate lookup for %s returned no rates", base)
	}

	c.logger.Debug("Fetched exchange rates",
		zap.String("base", base),
		zap.Int("rates", len(payload.Rates)))

	return payload.Rates, nil
}

var _ port.RateProvider = (*Client)(nil)
