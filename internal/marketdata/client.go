package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ll101/project-algo-trading/pkg/config"
	"github.com/ll101/project-algo-trading/pkg/httputil"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

const (
	headerKeyID     = "APCA-API-KEY-ID"
	headerSecretKey = "APCA-API-SECRET-KEY"

	// Maximum rows per page the data API allows
	pageLimit = 10000
)

// Client handles communication with the Alpaca historical data API.
// All market data requests go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.AlpacaConfig
	limiter    *rate.Limiter
}

// NewClient creates a new Alpaca data API client.
// Missing credentials are a constructor error so misconfiguration surfaces
// before the first request.
func NewClient(cfg config.AlpacaConfig, httpClient *httputil.Client, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("alpaca credentials not found: set ALPACA_API_KEY and ALPACA_API_SECRET")
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 200
	}

	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("component", "marketdata"),
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit)), limit),
	}, nil
}

// get performs one authenticated GET against the data API and decodes the
// JSON response into dest.
func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	u := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerKeyID, c.cfg.APIKey)
	req.Header.Set(headerSecretKey, c.cfg.APISecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("alpaca API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// baseParams builds the query parameters shared by all historical endpoints
func (c *Client) baseParams(start, end time.Time) url.Values {
	params := url.Values{}
	params.Set("start", start.UTC().Format(time.RFC3339))
	params.Set("end", end.UTC().Format(time.RFC3339))
	params.Set("limit", fmt.Sprintf("%d", pageLimit))
	if c.cfg.Feed != "" {
		params.Set("feed", c.cfg.Feed)
	}
	return params
}
