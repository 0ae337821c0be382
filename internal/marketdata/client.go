package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/stockcast/internal/config"
	"github.com/yourusername/stockcast/internal/models"
)

// Client fetches historical bars from the provider's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// barResponse is the provider's daily bar payload
type barResponse struct {
	Symbol string `json:"symbol"`
	Bars   []struct {
		Timestamp time.Time `json:"t"`
		Open      float64   `json:"o"`
		High      float64   `json:"h"`
		Low       float64   `json:"l"`
		Close     float64   `json:"c"`
		Volume    float64   `json:"v"`
	} `json:"bars"`
}

// NewClient creates a market data client from configuration
func NewClient(cfg *config.MarketDataConfig, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}

	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.RetryAttempts
	httpCfg.RateLimit = cfg.RateLimitPerSecond
	httpCfg.RateBurst = cfg.RateLimitBurst

	return &Client{
		baseURL: cfg.APIURL,
		apiKey:  cfg.APIKey,
		http:    NewRateLimitedHTTPClient(httpCfg, logger),
		logger:  logger,
	}
}

// GetDailyBars fetches daily bars for a symbol within a date range.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	endpoint := fmt.Sprintf("%s/bars/daily?%s", c.baseURL, url.Values{
		"symbol": {symbol},
		"start":  {start.Format("2006-01-02")},
		"end":    {end.Format("2006-01-02")},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("bar request for %s returned %d: %s", symbol, resp.StatusCode, body)
	}

	var payload barResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode bar response: %w", err)
	}

	bars := make([]models.Bar, 0, len(payload.Bars))
	for _, b := range payload.Bars {
		bars = append(bars, models.Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	c.logger.WithFields(logrus.Fields{"symbol": symbol, "bars": len(bars)}).Debug("Fetched daily bars")
	return bars, nil
}

// Close releases client resources
func (c *Client) Close() error {
	return c.http.Close()
}
