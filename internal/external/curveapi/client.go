// Package curveapi is the client for the Curve prices API
// (prices.curve.fi): market snapshots, liquidation overviews and
// soft-liquidation exposure history.
package curveapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DiligentDeer/crvhealth/pkg/httputil"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
	"github.com/DiligentDeer/crvhealth/pkg/redis"
)

// Client handles communication with the Curve prices API.
// SSOT: prices.curve.fi calls happen only in this package.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	chain      string
	limiter    *redis.RateLimiter
}

// NewClient creates a new Curve prices API client.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, chain string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		chain:      chain,
	}
}

// WithRateLimiter shares a cross-process request budget for
// prices.curve.fi between instances. Without it requests go out
// unthrottled beyond the HTTP client's retry backoff.
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter) *Client {
	c.limiter = limiter
	return c
}

// getJSON fetches a path and decodes the JSON response into dest. A
// non-success status or malformed payload fails the call; the evaluation
// for the affected market fails with it.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, redis.CurveRateLimit); err != nil {
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	fullURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}

	return nil
}

// flexFloat decodes a JSON number that the API may serialize either as a
// number or as a string in scientific notation (loan_discount and
// liquidation_discount do this).
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse float %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}
