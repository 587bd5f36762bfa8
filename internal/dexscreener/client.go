// Package dexscreener is a client for the public DEX Screener REST API and
// the mapping layer from its wire types to domain snapshots.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.dexscreener.com"
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Client talks to the DEX Screener REST API with retries and exponential
// backoff. Rate-limit (429) and 5xx responses are retried; other non-200
// statuses fail immediately.
type Client struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new DEX Screener API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET with retries and decodes the JSON response into result.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	url := c.baseURL + path
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetPair retrieves a single pair by chain and pair address.
// Returns nil if the pair is unknown to the API.
func (c *Client) GetPair(ctx context.Context, chainID, pairAddress string) (*Pair, error) {
	if err := ValidateAddress(pairAddress); err != nil {
		return nil, err
	}

	var resp Response
	path := fmt.Sprintf("/latest/dex/pairs/%s/%s", chainID, pairAddress)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	if resp.Pair != nil {
		return resp.Pair, nil
	}
	if len(resp.Pairs) > 0 {
		return &resp.Pairs[0], nil
	}
	return nil, nil
}

// GetTokenPairs retrieves all pairs trading a given token on a chain.
func (c *Client) GetTokenPairs(ctx context.Context, chainID, tokenAddress string) ([]Pair, error) {
	if err := ValidateAddress(tokenAddress); err != nil {
		return nil, err
	}

	// This endpoint returns a bare JSON array.
	var pairs []Pair
	path := fmt.Sprintf("/tokens/v1/%s/%s", chainID, tokenAddress)
	if err := c.get(ctx, path, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// TokenProfile is one entry from the latest-profiles feed, the discovery
// surface for newly promoted tokens.
type TokenProfile struct {
	URL          string `json:"url"`
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Description  string `json:"description"`
}

// GetLatestProfiles retrieves the most recently published token profiles.
func (c *Client) GetLatestProfiles(ctx context.Context) ([]TokenProfile, error) {
	var profiles []TokenProfile
	if err := c.get(ctx, "/token-profiles/latest/v1", &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
