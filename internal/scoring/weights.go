package scoring

import "github.com/DiligentDeer/crvhealth/internal/contracts"

// WeightsVersion identifies the active composite weight table. The table
// is a versioned constant: the composite must be re-derivable from the
// category scores and this table alone.
const WeightsVersion = "2.0.0"

// CategoryWeight pairs a category with its composite weight.
type CategoryWeight struct {
	Name   string
	Weight float64
}

// CompositeWeights is the version 2.0.0 tiered weight table, summing to
// 100. Tier 1 (critical): debt ceiling, bad debt. Tier 2 (core):
// volatility, collateral ratio, collateral under SL. Tier 3 (secondary):
// price drop, borrower distribution, SL responsiveness, SL profitability.
// Tier 4: the two interdependency scores.
var CompositeWeights = []CategoryWeight{
	{contracts.CategoryBadDebt, 13},
	{contracts.CategoryDebtCeiling, 13},
	{contracts.CategoryCollateralRatio, 10},
	{contracts.CategoryCollateralUnderSL, 10},
	{contracts.CategoryVolatility, 10},
	{contracts.CategoryPriceDrop, 8},
	{contracts.CategoryBorrowerDistribution, 8},
	{contracts.CategorySLResponsiveness, 8},
	{contracts.CategorySLProfitability, 8},
	{contracts.CategoryInterdepVolatility, 6},
	{contracts.CategoryInterdepMomentum, 6},
}

// WeightFor returns the composite weight of a category, or 0 when the
// category is not part of the table.
func WeightFor(name string) float64 {
	for _, cw := range CompositeWeights {
		if cw.Name == name {
			return cw.Weight
		}
	}
	return 0
}

// Category blend weights. Each blend is a documented constant of the
// scoring contract, not user-configurable.
const (
	// collateral ratio = 0.4*relative + 0.6*absolute
	crRelativeWeight = 0.4
	crAbsoluteWeight = 0.6

	// price drop = equal blend of both threshold scores
	dropBlendWeight = 0.5

	// volatility = 0.4*volatility-ratio score + 0.6*beta score
	volRatioWeight = 0.4
	betaWeight     = 0.6

	// collateral under SL = 0.4*current + 0.6*relative
	slCurrentWeight  = 0.4
	slRelativeWeight = 0.6

	// borrower distribution = equal blend of benchmark and relative
	distBlendWeight = 0.5
)

// Normalization bounds for the raw metrics, from the published
// methodology.
const (
	// 7d/30d collateral-ratio trend, higher is better
	RelativeCRUpper = 1.1
	RelativeCRLower = 0.9

	// beta against the reference asset, lower is better, neutral at 1.0
	BetaUpper = 2.5
	BetaLower = 0.5
	BetaMid   = 1.0

	// parametric drop probabilities, lower is better
	Drop1Upper = 0.03   // 7.5% drop
	Drop2Upper = 0.0075 // 15% drop
	DropLower  = 0.0

	// 30d/90d volatility ratio, lower is better
	VolRatioUpper = 1.5
	VolRatioLower = 0.75

	// current collateral share in soft-liquidation, lower is better
	CollUnderSLUpper = 2.0
	CollUnderSLLower = 0.0

	// 7d/30d soft-liquidation trend, lower is better, neutral at 1.0
	CollUnderSLRelUpper = 2.5
	CollUnderSLRelLower = 0.5
	CollUnderSLRelMid   = 1.0

	// absolute LTV bounds are scored against this fraction of the
	// market's structural min/max LTV
	LTVBoundFraction = 0.75
)
