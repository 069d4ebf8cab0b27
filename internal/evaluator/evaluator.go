// Package evaluator orchestrates a full scoring run: it pulls market
// state, snapshot history and price bars, derives the risk metrics,
// normalizes them and assembles the weighted composite breakdown.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
	"github.com/DiligentDeer/crvhealth/internal/metrics"
	"github.com/DiligentDeer/crvhealth/internal/scoring"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
)

// ManualInputs carries the category inputs that are not yet derived from
// on-chain data. Each defaults to the neutral 0.5 when left at zero
// value via DefaultManualInputs.
type ManualInputs struct {
	BorrowerDistBenchmark float64 `json:"borrower_dist_benchmark"`
	BorrowerDistRelative  float64 `json:"borrower_dist_relative"`
	SLResponsiveness      float64 `json:"sl_responsiveness"`
	SLProfitability       float64 `json:"sl_profitability"`

	// RecommendedDebtCeiling of zero means "use the market's current
	// effective ceiling", which scores the category at 1.0.
	RecommendedDebtCeiling float64 `json:"recommended_debt_ceiling"`
}

// DefaultManualInputs returns the neutral manual inputs.
func DefaultManualInputs() ManualInputs {
	return ManualInputs{
		BorrowerDistBenchmark: 0.5,
		BorrowerDistRelative:  0.5,
		SLResponsiveness:      0.5,
		SLProfitability:       0.5,
	}
}

// Evaluator implements contracts.Evaluator.
// SSOT: metric-to-score wiring lives only here.
type Evaluator struct {
	data         contracts.MarketDataSource
	bars         contracts.BarStore
	reference    contracts.Market
	lookbackDays int
	manual       ManualInputs
	logger       *logger.Logger

	// now and newRunID are swappable for tests.
	now      func() time.Time
	newRunID func() string
}

// New creates an evaluator. reference is the beta reference market; its
// bar series is fetched once per run through the bar store's memo.
func New(data contracts.MarketDataSource, bars contracts.BarStore, reference contracts.Market, lookbackDays int, log *logger.Logger) *Evaluator {
	return &Evaluator{
		data:         data,
		bars:         bars,
		reference:    reference,
		lookbackDays: lookbackDays,
		manual:       DefaultManualInputs(),
		logger:       log,
		now:          time.Now,
		newRunID:     func() string { return uuid.NewString() },
	}
}

// WithManualInputs overrides the manual category inputs for subsequent
// evaluations.
func (e *Evaluator) WithManualInputs(in ManualInputs) *Evaluator {
	e.manual = in
	return e
}

// Evaluate computes the full score breakdown for one market. Categories
// whose underlying data is missing or insufficient come back invalid with
// a reason; the composite is NaN and the breakdown marked partial unless
// every weighted category is valid.
func (e *Evaluator) Evaluate(ctx context.Context, market contracts.Market) (*contracts.ScoreBreakdown, error) {
	start := e.now()
	from := start.AddDate(0, 0, -e.lookbackDays)

	status, err := e.data.MarketStatus(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("market status for %s: %w", market.Name, err)
	}
	overview, err := e.data.LiquidationOverview(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("liquidation overview for %s: %w", market.Name, err)
	}
	snapshots, err := e.data.MarketSnapshots(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("snapshots for %s: %w", market.Name, err)
	}
	slSeries, err := e.data.SoftLiquidationRatios(ctx, market, from, start)
	if err != nil {
		return nil, fmt.Errorf("soft-liquidation ratios for %s: %w", market.Name, err)
	}
	assetBars, err := e.bars.GetDailyBars(ctx, market, from)
	if err != nil {
		return nil, fmt.Errorf("bars for %s: %w", market.Name, err)
	}
	refBars, err := e.bars.GetDailyBars(ctx, e.reference, from)
	if err != nil {
		return nil, fmt.Errorf("reference bars for %s: %w", e.reference.Name, err)
	}

	rawMetrics := make(map[string]float64)
	cat := make(map[string]categoryResult)

	// Bad debt and debt ceiling come straight from current market state.
	cat[contracts.CategoryBadDebt] = okResult(scoring.ScoreBadDebt(overview.BadDebt, status.TotalDebt), overview.BadDebt)
	rawMetrics["bad_debt"] = overview.BadDebt
	rawMetrics["total_debt"] = status.TotalDebt

	ceiling := status.DebtCeiling()
	recommended := e.manual.RecommendedDebtCeiling
	if recommended == 0 {
		recommended = ceiling
	}
	cat[contracts.CategoryDebtCeiling] = okResult(scoring.ScoreDebtCeiling(recommended, ceiling, status.TotalDebt), ceiling)
	rawMetrics["debt_ceiling"] = ceiling
	rawMetrics["recommended_debt_ceiling"] = recommended

	// Collateral ratio: 7d/30d trend blended with the absolute LTV view.
	crRow := metrics.LatestCollateralRatioRow(snapshots)
	if len(snapshots) == 0 || crRow.CRRatio == 0 {
		cat[contracts.CategoryCollateralRatio] = invalidResult("no snapshot history")
	} else {
		relativeCR := scoring.ScoreMetric(contracts.MetricResult{
			Name: "cr_7d_over_30d", Value: crRow.CRRatio7dOver30d,
			Upper: scoring.RelativeCRUpper, Lower: scoring.RelativeCRLower, HigherIsBetter: true,
		})
		absoluteCR := scoring.ScoreMetric(contracts.MetricResult{
			Name: "current_ltv", Value: 1 / crRow.CRRatio,
			Upper: scoring.LTVBoundFraction * market.MaxLTV, Lower: scoring.LTVBoundFraction * market.MinLTV,
		})
		cat[contracts.CategoryCollateralRatio] = resultFor(
			scoring.CollateralRatioScore(relativeCR, absoluteCR), crRow.CRRatio, "collateral ratio history too short")
	}
	rawMetrics["cr_ratio"] = crRow.CRRatio
	rawMetrics["cr_7d_over_30d"] = crRow.CRRatio7dOver30d

	// Collateral under soft liquidation: current exposure blended with its
	// 7d/30d trend.
	slRow := metrics.LatestSLRatioRow(slSeries)
	if len(slSeries) == 0 {
		cat[contracts.CategoryCollateralUnderSL] = invalidResult("no soft-liquidation history")
	} else {
		slCurrent := scoring.ScoreMetric(contracts.MetricResult{
			Name: "coll_under_sl", Value: slRow.CollUnderSL,
			Upper: scoring.CollUnderSLUpper, Lower: scoring.CollUnderSLLower,
		})
		slRelative := scoring.ScoreMetric(contracts.MetricResult{
			Name: "coll_under_sl_7d_over_30d", Value: slRow.CollUnderSLRelative,
			Upper: scoring.CollUnderSLRelUpper, Lower: scoring.CollUnderSLRelLower,
		}.WithMid(scoring.CollUnderSLRelMid))
		cat[contracts.CategoryCollateralUnderSL] = resultFor(
			scoring.CollateralUnderSLScore(slCurrent, slRelative), slRow.CollUnderSL, "soft-liquidation history too short")
	}
	rawMetrics["coll_under_sl"] = slRow.CollUnderSL
	rawMetrics["coll_under_sl_7d_over_30d"] = slRow.CollUnderSLRelative

	// Volatility regime: 30d/90d ratio blended with beta against the
	// reference asset.
	vol30, vol90, volRatio := metrics.VolatilityRatio(assetBars)
	beta := metrics.Beta(assetBars, refBars)
	volRatioScore := scoring.ScoreMetric(contracts.MetricResult{
		Name: "vol_ratio", Value: volRatio,
		Upper: scoring.VolRatioUpper, Lower: scoring.VolRatioLower,
	})
	betaScore := scoring.ScoreMetric(contracts.MetricResult{
		Name: "beta", Value: beta,
		Upper: scoring.BetaUpper, Lower: scoring.BetaLower,
	}.WithMid(scoring.BetaMid))
	cat[contracts.CategoryVolatility] = resultFor(
		scoring.VolatilityScore(volRatioScore, betaScore), volRatio, "price history too short for volatility windows")
	rawMetrics["vol_30d"] = vol30
	rawMetrics["vol_90d"] = vol90
	rawMetrics["vol_ratio"] = volRatio
	rawMetrics["beta"] = beta

	// Tail risk: parametric drop probabilities from the fitted t
	// distribution.
	drops, err := metrics.AnalyzePriceDrops(assetBars, metrics.DefaultDropThresholds)
	switch {
	case errors.Is(err, metrics.ErrInsufficientData):
		cat[contracts.CategoryPriceDrop] = invalidResult("price history too short for distribution fit")
	case err != nil:
		return nil, fmt.Errorf("price drop analysis for %s: %w", market.Name, err)
	default:
		drop1 := drops["drop1"]
		drop2 := drops["drop2"]
		drop1Score := scoring.ScoreMetric(contracts.MetricResult{
			Name: "drop1_parametric", Value: drop1.ParametricProbability,
			Upper: scoring.Drop1Upper, Lower: scoring.DropLower,
		})
		drop2Score := scoring.ScoreMetric(contracts.MetricResult{
			Name: "drop2_parametric", Value: drop2.ParametricProbability,
			Upper: scoring.Drop2Upper, Lower: scoring.DropLower,
		})
		cat[contracts.CategoryPriceDrop] = resultFor(
			scoring.PriceDropScore(drop1Score, drop2Score), drop1.ParametricProbability, "distribution fit produced no probability")
		rawMetrics["drop1_parametric"] = drop1.ParametricProbability
		rawMetrics["drop1_historical"] = drop1.HistoricalProbability
		rawMetrics["drop2_parametric"] = drop2.ParametricProbability
		rawMetrics["drop2_historical"] = drop2.HistoricalProbability
	}

	// Manual categories until their on-chain derivations land.
	distScore := scoring.BorrowerDistributionScore(e.manual.BorrowerDistBenchmark, e.manual.BorrowerDistRelative)
	cat[contracts.CategoryBorrowerDistribution] = okResult(distScore, distScore)
	cat[contracts.CategorySLResponsiveness] = okResult(e.manual.SLResponsiveness, e.manual.SLResponsiveness)
	cat[contracts.CategorySLProfitability] = okResult(e.manual.SLProfitability, e.manual.SLProfitability)

	// Interdependency: medians over the already-scored component
	// categories. An invalid component makes the interdependency invalid.
	if vals, reason, ok := componentScores(cat,
		contracts.CategoryPriceDrop, contracts.CategoryDebtCeiling,
		contracts.CategoryCollateralRatio, contracts.CategoryBorrowerDistribution); ok {
		score := scoring.InterdependencyMomentum(vals[0], vals[1], vals[2], vals[3])
		cat[contracts.CategoryInterdepMomentum] = okResult(score, score)
	} else {
		cat[contracts.CategoryInterdepMomentum] = invalidResult(reason)
	}
	if vals, reason, ok := componentScores(cat,
		contracts.CategoryVolatility, contracts.CategorySLResponsiveness,
		contracts.CategorySLProfitability, contracts.CategoryCollateralUnderSL,
		contracts.CategoryBorrowerDistribution); ok {
		score := scoring.InterdependencyVolatility(vals[0], vals[1], vals[2], vals[3], vals[4])
		cat[contracts.CategoryInterdepVolatility] = okResult(score, score)
	} else {
		cat[contracts.CategoryInterdepVolatility] = invalidResult(reason)
	}

	breakdown := e.assemble(market, start, cat, rawMetrics)

	e.logger.WithFields(map[string]interface{}{
		"market":    market.Name,
		"composite": breakdown.Composite,
		"band":      breakdown.Band,
		"partial":   breakdown.Partial,
	}).Info("Market evaluated")
	return breakdown, nil
}

// assemble orders the category results by the weight table and derives
// the composite, partial flag and band.
func (e *Evaluator) assemble(market contracts.Market, start time.Time, cat map[string]categoryResult, rawMetrics map[string]float64) *contracts.ScoreBreakdown {
	breakdown := &contracts.ScoreBreakdown{
		Market:         market.Name,
		RunID:          e.newRunID(),
		GeneratedAt:    start.UTC(),
		WeightsVersion: scoring.WeightsVersion,
		Metrics:        rawMetrics,
	}

	scores := make(map[string]float64, len(scoring.CompositeWeights))
	partial := false
	for _, cw := range scoring.CompositeWeights {
		res := cat[cw.Name]
		rec := contracts.ScoreRecord{
			Name:     cw.Name,
			RawValue: res.raw,
			Score:    res.score,
			Weight:   cw.Weight,
			Valid:    res.valid,
			Reason:   res.reason,
		}
		breakdown.Categories = append(breakdown.Categories, rec)
		if !res.valid {
			partial = true
			continue
		}
		scores[cw.Name] = res.score
	}

	breakdown.Partial = partial
	if partial {
		breakdown.Composite = math.NaN()
	} else {
		composite, err := scoring.Composite(scores)
		if err != nil {
			// Unreachable with the full map built above; treat as partial.
			breakdown.Partial = true
			composite = math.NaN()
		}
		breakdown.Composite = composite
	}
	breakdown.Band = contracts.BandFor(breakdown.Composite)
	return breakdown
}

// categoryResult is the internal pre-record shape of one scored category.
type categoryResult struct {
	score  float64
	raw    float64
	valid  bool
	reason string
}

func okResult(score, raw float64) categoryResult {
	return categoryResult{score: score, raw: raw, valid: true}
}

func invalidResult(reason string) categoryResult {
	return categoryResult{score: math.NaN(), raw: math.NaN(), reason: reason}
}

// resultFor validates a computed score: NaN means the underlying data
// could not support the category.
func resultFor(score, raw float64, reason string) categoryResult {
	if math.IsNaN(score) {
		return categoryResult{score: math.NaN(), raw: raw, reason: reason}
	}
	return categoryResult{score: score, raw: raw, valid: true}
}

// componentScores gathers the scores of the named categories. ok is
// false with a reason when any component is missing or invalid.
func componentScores(cat map[string]categoryResult, names ...string) ([]float64, string, bool) {
	values := make([]float64, 0, len(names))
	for _, name := range names {
		res, ok := cat[name]
		if !ok || !res.valid {
			return nil, fmt.Sprintf("component %s unavailable", name), false
		}
		values = append(values, res.score)
	}
	return values, "", true
}
