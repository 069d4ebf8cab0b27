package contracts

import (
	"context"
	"time"
)

// PriceSource supplies raw price history for one asset on one chain.
// Implementations page through upstream data themselves; callers receive
// the assembled, deduplicated point series.
type PriceSource interface {
	PriceHistory(ctx context.Context, chain, token string, from time.Time) ([]PricePoint, error)
}

// MarketDataSource supplies the protocol-side time series and point-in-time
// state for a market.
type MarketDataSource interface {
	MarketSnapshots(ctx context.Context, market Market) (SnapshotSeries, error)
	SoftLiquidationRatios(ctx context.Context, market Market, from, to time.Time) (SLRatioSeries, error)
	LiquidationOverview(ctx context.Context, market Market) (*LiquidationOverview, error)
	MarketStatus(ctx context.Context, market Market) (*MarketStatus, error)
}

// BarStore resolves daily OHLC bar series for a market, fetching only
// missing history and persisting what it fetched.
type BarStore interface {
	GetDailyBars(ctx context.Context, market Market, lookbackStart time.Time) (BarSeries, error)
}

// BarRepository persists daily bar series per market. Merging is
// last-write-wins by date, so re-running a fetch is idempotent.
type BarRepository interface {
	Load(ctx context.Context, marketKey string) (BarSeries, error)
	Save(ctx context.Context, marketKey string, series BarSeries) error
}

// Evaluator computes a full score breakdown for one market.
type Evaluator interface {
	Evaluate(ctx context.Context, market Market) (*ScoreBreakdown, error)
}
