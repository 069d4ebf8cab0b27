// Package defillama is the client for the DefiLlama coins API
// (coins.llama.fi). Price history is served in bounded pages; the client
// walks contiguous pages keyed by the last-seen timestamp until the
// assembled history reaches the present.
package defillama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
	"github.com/DiligentDeer/crvhealth/pkg/config"
	"github.com/DiligentDeer/crvhealth/pkg/httputil"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
)

// pageGapSeconds is the stop condition of the page walk: once the
// last-seen timestamp is within this many seconds of "now" there is no
// further hourly page to fetch.
const pageGapSeconds = 4000

// Client handles communication with the DefiLlama coins API.
// SSOT: coins.llama.fi calls happen only in this package.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	pageSpan   int
	limiter    *rate.Limiter

	// now is swappable for tests.
	now func() time.Time
}

// NewClient creates a new DefiLlama client. The limiter enforces the
// minimum inter-page delay from config between successive page requests.
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.LlamaConfig) *Client {
	limit := rate.Inf
	if cfg.PageDelay > 0 {
		limit = rate.Every(cfg.PageDelay)
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
		pageSpan:   cfg.PageSpan,
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
}

// chartPoint is the wire shape of one hourly price point.
type chartPoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// PriceHistory assembles the hourly price history of a token from `from`
// to the present. Pages are requested sequentially, keyed by the last
// timestamp of the previous page; overlap at page boundaries is
// deduplicated and the walk is resumable since downstream merging is
// last-write-wins by date. Cancellation is honored between pages. A
// brand-new asset with no history yields an empty slice, not an error.
func (c *Client) PriceHistory(ctx context.Context, chain, token string, from time.Time) ([]contracts.PricePoint, error) {
	coin := fmt.Sprintf("%s:%s", chain, token)

	var points []contracts.PricePoint
	seen := make(map[int64]bool)
	lastTS := from.Unix()

	for lastTS+pageGapSeconds < c.now().Unix() {
		// Minimum inter-page delay; also the cancellation point of the
		// fetch loop.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := c.fetchPage(ctx, coin, lastTS)
		if err != nil {
			return nil, fmt.Errorf("price page for %s from %d: %w", coin, lastTS, err)
		}
		if len(page) == 0 {
			break
		}

		for _, p := range page {
			if !seen[p.Timestamp] {
				seen[p.Timestamp] = true
				points = append(points, contracts.PricePoint{
					Timestamp: time.Unix(p.Timestamp, 0).UTC(),
					Price:     p.Price,
				})
			}
		}

		next := page[len(page)-1].Timestamp
		if next <= lastTS {
			// Upstream stopped advancing; there are no further pages.
			break
		}
		lastTS = next
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	c.logger.WithFields(map[string]interface{}{
		"coin":  coin,
		"count": len(points),
	}).Debug("Fetched price history")
	return points, nil
}

// fetchPage requests one chart page starting at the given timestamp.
func (c *Client) fetchPage(ctx context.Context, coin string, start int64) ([]chartPoint, error) {
	params := url.Values{
		"start":  {strconv.FormatInt(start, 10)},
		"span":   {strconv.Itoa(c.pageSpan)},
		"period": {"1h"},
	}
	fullURL := fmt.Sprintf("%s/chart/%s?%s", c.baseURL, coin, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	var payload struct {
		Coins map[string]struct {
			Prices []chartPoint `json:"prices"`
		} `json:"coins"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}

	entry, ok := payload.Coins[coin]
	if !ok {
		// The coins map omits unknown assets entirely.
		return nil, nil
	}
	return entry.Prices, nil
}
