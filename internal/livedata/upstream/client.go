// Package upstream fetches live conditions from an HTTP conditions feed.
//
// The feed answers GET {base}/v1/conditions?from=&to=&date= with a
// livedata.Document. Calls go through a resilience.Client so a failing
// feed trips its circuit breaker instead of stalling report generation.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/provider/resilience"
	"github.com/tripguard/tripguard/internal/travelrisk"
)

// ProviderName identifies this provider.
const ProviderName = "upstream"

// APIKeyHeader carries the feed API key.
const APIKeyHeader = "X-API-Key"

// maxBodyBytes bounds the feed response size.
const maxBodyBytes = 1 << 20

// ClientConfig holds configuration for the feed client.
type ClientConfig struct {
	// BaseURL is the feed base URL (required).
	BaseURL string

	// APIKey is sent in APIKeyHeader when set.
	APIKey string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a live conditions feed client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new feed client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetConditions fetches the conditions for a trip query. A 404 from the
// feed maps to livedata.ErrNoDataForDistrict.
func (c *Client) GetConditions(ctx context.Context, q livedata.Query) (*travelrisk.LiveConditions, error) {
	params := url.Values{}
	params.Set("from", q.FromDistrict)
	params.Set("to", q.ToDistrict)
	params.Set("date", q.TravelDate.Format(travelrisk.DateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/conditions?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s → %s", livedata.ErrNoDataForDistrict, q.FromDistrict, q.ToDistrict)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var doc livedata.Document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("incomplete feed document: %w", err)
	}

	c.logger.Debug().
		Str("from", q.FromDistrict).
		Str("to", q.ToDistrict).
		Msg("fetched live conditions")

	conditions := doc.Conditions()
	return &conditions, nil
}
