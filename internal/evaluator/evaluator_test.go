package evaluator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
	"github.com/DiligentDeer/crvhealth/internal/scoring"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeDataSource serves canned market state.
type fakeDataSource struct {
	status    *contracts.MarketStatus
	overview  *contracts.LiquidationOverview
	snapshots contracts.SnapshotSeries
	slSeries  contracts.SLRatioSeries
	statusErr error
}

func (f *fakeDataSource) MarketStatus(ctx context.Context, market contracts.Market) (*contracts.MarketStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeDataSource) LiquidationOverview(ctx context.Context, market contracts.Market) (*contracts.LiquidationOverview, error) {
	return f.overview, nil
}

func (f *fakeDataSource) MarketSnapshots(ctx context.Context, market contracts.Market) (contracts.SnapshotSeries, error) {
	return f.snapshots, nil
}

func (f *fakeDataSource) SoftLiquidationRatios(ctx context.Context, market contracts.Market, from, to time.Time) (contracts.SLRatioSeries, error) {
	return f.slSeries, nil
}

// fakeBarStore serves canned bar series keyed by market.
type fakeBarStore struct {
	series map[string]contracts.BarSeries
}

func (f *fakeBarStore) GetDailyBars(ctx context.Context, market contracts.Market, lookbackStart time.Time) (contracts.BarSeries, error) {
	return f.series[market.Key()], nil
}

// randomBars generates n daily bars as a geometric random walk with
// plausible intraday ranges.
func randomBars(n int, seed int64, dailyVol float64) contracts.BarSeries {
	rng := rand.New(rand.NewSource(seed))
	start := fixedNow.AddDate(0, 0, -n)
	series := make(contracts.BarSeries, n)

	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		close := open * math.Exp(rng.NormFloat64()*dailyVol)
		high := math.Max(open, close) * (1 + 0.3*dailyVol*rng.Float64())
		low := math.Min(open, close) * (1 - 0.3*dailyVol*rng.Float64())
		series[i] = contracts.PriceBar{
			Date:  contracts.Day(start.AddDate(0, 0, i)),
			Open:  open,
			High:  high,
			Low:   low,
			Close: close,
		}
		price = close
	}
	return series
}

func constantSnapshots(n int, collateralUSD, debt float64) contracts.SnapshotSeries {
	series := make(contracts.SnapshotSeries, n)
	for i := range series {
		series[i] = contracts.Snapshot{
			Timestamp:          fixedNow.AddDate(0, 0, i-n),
			TotalCollateralUSD: collateralUSD,
			TotalDebt:          debt,
		}
	}
	return series
}

func constantSLSeries(n int, debtRatio, collRatio float64) contracts.SLRatioSeries {
	series := make(contracts.SLRatioSeries, n)
	for i := range series {
		series[i] = contracts.SLRatioPoint{
			Timestamp:              fixedNow.AddDate(0, 0, i-n),
			DebtUnderSLRatio:       debtRatio,
			CollateralUnderSLRatio: collRatio,
		}
	}
	return series
}

func testMarkets() (contracts.Market, contracts.Market) {
	asset := contracts.NewMarket("wstETH", "0xToken", "0xAMM", "0xController", "", 100, 0.06, "")
	reference := contracts.NewMarket("WETH", "0xRefToken", "0xRefAMM", "0xRefController", "", 100, 0.06, "")
	return asset, reference
}

func newTestEvaluator(data *fakeDataSource, bars *fakeBarStore, reference contracts.Market) *Evaluator {
	eval := New(data, bars, reference, 120, logger.NewNop())
	eval.now = func() time.Time { return fixedNow }
	eval.newRunID = func() string { return "test-run" }
	return eval
}

func healthyDataSource() *fakeDataSource {
	return &fakeDataSource{
		status:    &contracts.MarketStatus{Address: "0xController", TotalDebt: 1_000_000, Borrowable: 4_000_000},
		overview:  &contracts.LiquidationOverview{BadDebt: 0},
		snapshots: constantSnapshots(40, 1_500_000, 1_000_000),
		slSeries:  constantSLSeries(40, 0.1, 0.2),
	}
}

func TestEvaluateFullBreakdown(t *testing.T) {
	asset, reference := testMarkets()
	data := healthyDataSource()
	bars := &fakeBarStore{series: map[string]contracts.BarSeries{
		asset.Key():     randomBars(120, 1, 0.04),
		reference.Key(): randomBars(120, 2, 0.03),
	}}

	breakdown, err := newTestEvaluator(data, bars, reference).Evaluate(context.Background(), asset)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if breakdown.Partial {
		t.Fatalf("breakdown partial, invalid categories: %+v", invalidCategories(breakdown))
	}
	if breakdown.Market != "wstETH" {
		t.Errorf("Market = %q, want wstETH", breakdown.Market)
	}
	if breakdown.RunID != "test-run" {
		t.Errorf("RunID = %q, want test-run", breakdown.RunID)
	}
	if !breakdown.GeneratedAt.Equal(fixedNow) {
		t.Errorf("GeneratedAt = %v, want %v", breakdown.GeneratedAt, fixedNow)
	}
	if breakdown.WeightsVersion != scoring.WeightsVersion {
		t.Errorf("WeightsVersion = %q, want %q", breakdown.WeightsVersion, scoring.WeightsVersion)
	}
	if len(breakdown.Categories) != len(scoring.CompositeWeights) {
		t.Fatalf("got %d categories, want %d", len(breakdown.Categories), len(scoring.CompositeWeights))
	}

	// The composite must be re-derivable from the published records alone.
	var weighted, totalWeight float64
	for _, rec := range breakdown.Categories {
		if !rec.Valid {
			t.Errorf("category %s invalid: %s", rec.Name, rec.Reason)
			continue
		}
		if rec.Score < 0 || rec.Score > 1 {
			t.Errorf("category %s score %v outside [0,1]", rec.Name, rec.Score)
		}
		weighted += rec.Score * rec.Weight
		totalWeight += rec.Weight
	}
	if totalWeight != 100 {
		t.Errorf("weights sum to %v, want 100", totalWeight)
	}
	if diff := math.Abs(breakdown.Composite - weighted/100); diff > 1e-9 {
		t.Errorf("Composite = %v, re-derived %v", breakdown.Composite, weighted/100)
	}
	if breakdown.Band != contracts.BandFor(breakdown.Composite) {
		t.Errorf("Band = %q, want %q", breakdown.Band, contracts.BandFor(breakdown.Composite))
	}

	wantScores := map[string]float64{
		contracts.CategoryBadDebt:              1.0,
		contracts.CategoryDebtCeiling:          1.0,
		contracts.CategoryBorrowerDistribution: 0.5,
		contracts.CategorySLResponsiveness:     0.5,
		contracts.CategorySLProfitability:      0.5,
		// Constant 1.5 collateral ratio: 7d/30d trend is neutral, the
		// absolute view is interpolated between the LTV bounds.
		contracts.CategoryCollateralRatio: 0.2811594,
		// 20% under SL scored 0.9, neutral trend scored 0.5, blended 0.4/0.6.
		contracts.CategoryCollateralUnderSL: 0.66,
	}
	for name, want := range wantScores {
		rec, ok := breakdown.Category(name)
		if !ok {
			t.Errorf("category %s missing", name)
			continue
		}
		if math.Abs(rec.Score-want) > 1e-6 {
			t.Errorf("category %s score = %v, want %v", name, rec.Score, want)
		}
	}

	for _, key := range []string{"beta", "vol_ratio", "vol_30d", "vol_90d", "drop1_parametric", "drop2_parametric", "cr_ratio", "bad_debt"} {
		if _, ok := breakdown.Metrics[key]; !ok {
			t.Errorf("metric %s missing from breakdown", key)
		}
	}
}

func TestEvaluatePartialOnShortPriceHistory(t *testing.T) {
	asset, reference := testMarkets()
	data := healthyDataSource()
	bars := &fakeBarStore{series: map[string]contracts.BarSeries{
		asset.Key():     randomBars(10, 1, 0.04),
		reference.Key(): randomBars(120, 2, 0.03),
	}}

	breakdown, err := newTestEvaluator(data, bars, reference).Evaluate(context.Background(), asset)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if !breakdown.Partial {
		t.Error("Partial = false, want true with 10 days of price history")
	}
	if !math.IsNaN(breakdown.Composite) {
		t.Errorf("Composite = %v, want NaN for partial breakdown", breakdown.Composite)
	}
	if breakdown.Band != "" {
		t.Errorf("Band = %q, want empty for partial breakdown", breakdown.Band)
	}

	wantInvalid := []string{
		contracts.CategoryVolatility,
		contracts.CategoryPriceDrop,
		contracts.CategoryInterdepMomentum,
		contracts.CategoryInterdepVolatility,
	}
	for _, name := range wantInvalid {
		rec, ok := breakdown.Category(name)
		if !ok {
			t.Fatalf("category %s missing", name)
		}
		if rec.Valid {
			t.Errorf("category %s valid, want invalid", name)
		}
		if rec.Reason == "" {
			t.Errorf("category %s has no reason", name)
		}
	}

	// Categories not touching price history stay valid.
	for _, name := range []string{contracts.CategoryBadDebt, contracts.CategoryDebtCeiling, contracts.CategoryCollateralRatio} {
		rec, _ := breakdown.Category(name)
		if !rec.Valid {
			t.Errorf("category %s invalid: %s", name, rec.Reason)
		}
	}
}

func TestEvaluatePartialOnMissingSnapshots(t *testing.T) {
	asset, reference := testMarkets()
	data := healthyDataSource()
	data.snapshots = nil
	data.slSeries = nil
	bars := &fakeBarStore{series: map[string]contracts.BarSeries{
		asset.Key():     randomBars(120, 1, 0.04),
		reference.Key(): randomBars(120, 2, 0.03),
	}}

	breakdown, err := newTestEvaluator(data, bars, reference).Evaluate(context.Background(), asset)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if !breakdown.Partial {
		t.Error("Partial = false, want true with no snapshot history")
	}
	if rec, _ := breakdown.Category(contracts.CategoryCollateralRatio); rec.Valid || rec.Reason != "no snapshot history" {
		t.Errorf("collateral_ratio = %+v, want invalid with reason", rec)
	}
	if rec, _ := breakdown.Category(contracts.CategoryCollateralUnderSL); rec.Valid || rec.Reason != "no soft-liquidation history" {
		t.Errorf("collateral_under_sl = %+v, want invalid with reason", rec)
	}
	// Both interdependencies depend on an invalid component.
	for _, name := range []string{contracts.CategoryInterdepMomentum, contracts.CategoryInterdepVolatility} {
		if rec, _ := breakdown.Category(name); rec.Valid {
			t.Errorf("category %s valid, want invalid", name)
		}
	}
}

func TestEvaluateDataSourceError(t *testing.T) {
	asset, reference := testMarkets()
	data := healthyDataSource()
	data.statusErr = errors.New("upstream down")
	bars := &fakeBarStore{series: map[string]contracts.BarSeries{}}

	if _, err := newTestEvaluator(data, bars, reference).Evaluate(context.Background(), asset); err == nil {
		t.Error("Evaluate() error = nil, want upstream error")
	}
}

func TestEvaluateManualInputs(t *testing.T) {
	asset, reference := testMarkets()
	data := healthyDataSource()
	bars := &fakeBarStore{series: map[string]contracts.BarSeries{
		asset.Key():     randomBars(120, 1, 0.04),
		reference.Key(): randomBars(120, 2, 0.03),
	}}

	eval := newTestEvaluator(data, bars, reference).WithManualInputs(ManualInputs{
		BorrowerDistBenchmark:  0.9,
		BorrowerDistRelative:   0.7,
		SLResponsiveness:       0.8,
		SLProfitability:        0.6,
		RecommendedDebtCeiling: 2_000_000,
	})

	breakdown, err := eval.Evaluate(context.Background(), asset)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	wantScores := map[string]float64{
		contracts.CategoryBorrowerDistribution: 0.8,
		contracts.CategorySLResponsiveness:     0.8,
		contracts.CategorySLProfitability:      0.6,
		// Ceiling 5M above the 2M recommendation, debt 1M within it.
		contracts.CategoryDebtCeiling: 0.75,
	}
	for name, want := range wantScores {
		rec, ok := breakdown.Category(name)
		if !ok {
			t.Fatalf("category %s missing", name)
		}
		if math.Abs(rec.Score-want) > 1e-9 {
			t.Errorf("category %s score = %v, want %v", name, rec.Score, want)
		}
	}
	if got := breakdown.Metrics["recommended_debt_ceiling"]; got != 2_000_000 {
		t.Errorf("recommended_debt_ceiling metric = %v, want 2000000", got)
	}
}

func invalidCategories(b *contracts.ScoreBreakdown) []string {
	var names []string
	for _, rec := range b.Categories {
		if !rec.Valid {
			names = append(names, rec.Name+": "+rec.Reason)
		}
	}
	return names
}
