package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/DiligentDeer/crvhealth/internal/metrics"
)

// =============================================================================
// Category blends
// =============================================================================

// CollateralRatioScore blends the 7d/30d trend score with the absolute
// LTV score.
func CollateralRatioScore(relative, absolute float64) float64 {
	return crRelativeWeight*relative + crAbsoluteWeight*absolute
}

// PriceDropScore blends the scores of both drop thresholds equally.
func PriceDropScore(drop1, drop2 float64) float64 {
	return dropBlendWeight*drop1 + dropBlendWeight*drop2
}

// VolatilityScore blends the volatility-ratio score with the beta score.
func VolatilityScore(volRatio, beta float64) float64 {
	return volRatioWeight*volRatio + betaWeight*beta
}

// CollateralUnderSLScore blends the current soft-liquidation exposure
// score with its 7d/30d trend score.
func CollateralUnderSLScore(current, relative float64) float64 {
	return slCurrentWeight*current + slRelativeWeight*relative
}

// BorrowerDistributionScore blends the benchmark-comparison and relative
// distribution scores equally. Both are caller-supplied inputs until the
// Herfindahl-Hirschman method lands.
func BorrowerDistributionScore(benchmark, relative float64) float64 {
	return distBlendWeight*benchmark + distBlendWeight*relative
}

// =============================================================================
// Interdependency scores
// =============================================================================

// InterdependencyMomentum captures shared sensitivity to price momentum
// across the price-drop, debt-ceiling, collateral-ratio and
// borrower-distribution categories. The published methodology describes
// this as a "minimum" but the reference behavior is the statistical
// median; the median is what downstream consumers expect.
func InterdependencyMomentum(priceDrop, debtCeiling, collateralRatio, borrowerDist float64) float64 {
	return metrics.Median([]float64{priceDrop, debtCeiling, collateralRatio, borrowerDist})
}

// InterdependencyVolatility captures shared sensitivity to the volatility
// regime across the volatility, SL-responsiveness, SL-profitability,
// collateral-under-SL and borrower-distribution categories. Median, per
// the note on InterdependencyMomentum.
func InterdependencyVolatility(volatility, slResponsiveness, slProfitability, collUnderSL, borrowerDist float64) float64 {
	return metrics.Median([]float64{volatility, slResponsiveness, slProfitability, collUnderSL, borrowerDist})
}

// =============================================================================
// Composite
// =============================================================================

var (
	// ErrZeroWeight is returned by dynamic aggregation when the supplied
	// weights sum to zero; a composite cannot be formed.
	ErrZeroWeight = errors.New("total weight is zero")

	// ErrMissingCategory is returned when a fixed-table composite is
	// requested without every weighted category present.
	ErrMissingCategory = errors.New("missing category score")
)

// Composite computes the fixed-weight composite from a full set of
// category scores. Every category in the weight table must be present;
// a NaN category score makes the composite NaN (partial breakdowns are
// represented upstream, not silently dropped here).
func Composite(scores map[string]float64) (float64, error) {
	var total float64
	for _, cw := range CompositeWeights {
		score, ok := scores[cw.Name]
		if !ok {
			return math.NaN(), fmt.Errorf("%w: %s", ErrMissingCategory, cw.Name)
		}
		total += score * cw.Weight
	}
	return total / 100, nil
}

// DynamicInput is one entry of the dynamic aggregation mode.
type DynamicInput struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// DynamicComposite accepts an arbitrary metric -> (score, weight) mapping
// and returns the weight-normalized composite. Weights that do not sum
// to 100 are normalized; a total weight of zero fails explicitly rather
// than dividing by zero.
func DynamicComposite(inputs map[string]DynamicInput) (float64, error) {
	if len(inputs) == 0 {
		return math.NaN(), ErrZeroWeight
	}

	var totalWeight float64
	for _, in := range inputs {
		totalWeight += in.Weight
	}
	if totalWeight == 0 {
		return math.NaN(), ErrZeroWeight
	}

	var composite float64
	for _, in := range inputs {
		composite += in.Score * (in.Weight / totalWeight)
	}
	return composite, nil
}
