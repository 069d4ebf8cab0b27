// Package barstore resolves daily OHLC bar series for market collateral
// assets. It layers a per-run memo over a persistent repository and only
// fetches the history the repository is missing, so repeated evaluations
// within a run and across days stay cheap.
package barstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
)

// Store implements contracts.BarStore on top of a PriceSource and a
// BarRepository.
type Store struct {
	prices contracts.PriceSource
	repo   contracts.BarRepository
	chain  string
	logger *logger.Logger

	mu   sync.Mutex
	memo map[string]contracts.BarSeries

	// now is swappable for tests.
	now func() time.Time
}

// New creates a bar store fetching from the given price source and
// persisting through the given repository.
func New(prices contracts.PriceSource, repo contracts.BarRepository, chain string, log *logger.Logger) *Store {
	return &Store{
		prices: prices,
		repo:   repo,
		chain:  chain,
		logger: log,
		memo:   make(map[string]contracts.BarSeries),
		now:    time.Now,
	}
}

// GetDailyBars returns the daily bar series for a market's collateral
// asset covering lookbackStart up to the present. The stored series is
// extended incrementally: only days after the last persisted bar are
// fetched, re-fetching the last stored day so a partially observed bar is
// replaced by its complete version. An asset with no upstream history
// yields an empty series, not an error.
func (s *Store) GetDailyBars(ctx context.Context, market contracts.Market, lookbackStart time.Time) (contracts.BarSeries, error) {
	key := market.Key()
	// The memo carries the lookback day so calls with different windows
	// in one session resolve independently.
	memoKey := fmt.Sprintf("%s|%s", key, contracts.Day(lookbackStart).Format("2006-01-02"))

	s.mu.Lock()
	if cached, ok := s.memo[memoKey]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	stored, err := s.repo.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load bars for %s: %w", market.Name, err)
	}

	fetchFrom, stale := s.fetchWindow(stored, lookbackStart)
	series := stored
	if stale {
		points, err := s.prices.PriceHistory(ctx, s.chain, s.feedToken(market), fetchFrom)
		if err != nil {
			return nil, fmt.Errorf("fetch price history for %s: %w", market.Name, err)
		}
		fetched := DailyOHLC(points)
		series = Merge(stored, fetched)

		if len(fetched) > 0 {
			if err := s.repo.Save(ctx, key, fetched); err != nil {
				return nil, fmt.Errorf("save bars for %s: %w", market.Name, err)
			}
		}
		s.logger.WithFields(map[string]interface{}{
			"market":  market.Name,
			"fetched": len(fetched),
			"total":   len(series),
		}).Debug("Extended daily bar series")
	}

	s.mu.Lock()
	s.memo[memoKey] = series
	s.mu.Unlock()
	return series, nil
}

// fetchWindow decides where an upstream fetch must start. An empty store
// fetches the full lookback; a store whose last bar is from an earlier
// day re-fetches from that day forward. A series already carrying today's
// bar is considered fresh. The re-fetch triggers already at a one-day
// gap, on purpose: the last stored bar may have been built from a partial
// day's prices, and starting at its date lets the merge replace it with
// the completed bar.
func (s *Store) fetchWindow(stored contracts.BarSeries, lookbackStart time.Time) (time.Time, bool) {
	last, ok := stored.Last()
	if !ok {
		return lookbackStart, true
	}
	if stored[0].Date.After(contracts.Day(lookbackStart)) {
		// The stored history does not reach back to the requested window,
		// so extending the tail is not enough. A brand-new asset re-fetches
		// its short history; the merge keeps that idempotent.
		return lookbackStart, true
	}
	today := contracts.Day(s.now())
	if !last.Date.Before(today) {
		return time.Time{}, false
	}
	return last.Date, true
}

// feedToken returns the token identifier used against the price feed.
// Some collaterals price through a proxy feed rather than their own
// address.
func (s *Store) feedToken(market contracts.Market) string {
	if market.PriceFeedID != "" {
		return market.PriceFeedID
	}
	return market.Token
}

// InvalidateSession drops the per-run memo. The next GetDailyBars call
// for each market consults the repository again.
func (s *Store) InvalidateSession() {
	s.mu.Lock()
	s.memo = make(map[string]contracts.BarSeries)
	s.mu.Unlock()
}
