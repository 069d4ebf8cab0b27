// Package scoring turns raw risk metrics into bounded [0,1] scores and
// aggregates them into the composite market health score.
package scoring

import (
	"math"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// =============================================================================
// Direction-aware piecewise-linear normalizer
// =============================================================================

// ScoreWithLimits maps a raw value onto [0,1] through the piecewise-linear
// function (lower, 0) -> (mid, 0.5) -> (upper, 1.0) with mid at the range
// midpoint. When higherIsBetter is false the shape is mirrored: lower
// maps to 1.0 and upper to 0.0. Values outside the bounds clamp to the
// boundary score. NaN input propagates as NaN.
func ScoreWithLimits(value, upper, lower float64, higherIsBetter bool) float64 {
	return ScoreWithLimitsMid(value, upper, lower, higherIsBetter, (upper+lower)/2)
}

// ScoreWithLimitsMid is ScoreWithLimits with an explicit midpoint,
// letting callers skew which half of the range maps onto which half of
// the score (e.g. beta scored against mid 1.0 inside [0.5, 2.5]).
func ScoreWithLimitsMid(value, upper, lower float64, higherIsBetter bool, mid float64) float64 {
	if math.IsNaN(value) {
		return math.NaN()
	}

	if higherIsBetter {
		switch {
		case value >= upper:
			return 1.0
		case value <= lower:
			return 0.0
		case value <= mid:
			return 0.5 * (value - lower) / (mid - lower)
		default:
			return 0.5 + 0.5*(value-mid)/(upper-mid)
		}
	}

	switch {
	case value >= upper:
		return 0.0
	case value <= lower:
		return 1.0
	case value <= mid:
		return 1.0 - 0.5*(value-lower)/(mid-lower)
	default:
		return 0.5 - 0.5*(value-mid)/(upper-mid)
	}
}

// ScoreMetric normalizes a raw metric against the bounds it carries. A
// nil Mid falls back to the range midpoint.
func ScoreMetric(m contracts.MetricResult) float64 {
	if m.Mid != nil {
		return ScoreWithLimitsMid(m.Value, m.Upper, m.Lower, m.HigherIsBetter, *m.Mid)
	}
	return ScoreWithLimits(m.Value, m.Upper, m.Lower, m.HigherIsBetter)
}

// =============================================================================
// Named scoring policies
// =============================================================================

// Bad-debt ratio breakpoints, as fractions of total debt.
const (
	badDebtHalfScoreRatio = 0.001 // 0.1% of total debt scores 0.5
	badDebtZeroScoreRatio = 0.01  // 1% of total debt scores 0.0
)

// ScoreBadDebt scores absolute bad debt against the market's total debt.
// Zero bad debt is a perfect 1.0; a ratio below 0.1% of total debt maps
// linearly onto [0.5, 1.0]; between 0.1% and 1% onto [0, 0.5]; at or
// above 1% the score is 0.
func ScoreBadDebt(badDebt, currentDebt float64) float64 {
	switch {
	case badDebt == 0:
		return 1.0
	case badDebt < badDebtHalfScoreRatio*currentDebt:
		return 0.5 + 0.5*(badDebt/(badDebtHalfScoreRatio*currentDebt))
	case badDebt < badDebtZeroScoreRatio*currentDebt:
		return 0.5 * (badDebt / (badDebtZeroScoreRatio * currentDebt))
	default:
		return 0.0
	}
}

// ScoreDebtCeiling scores the current debt ceiling against a recommended
// ceiling. A ceiling at or below the recommendation is a perfect 1.0;
// with the ceiling above but current debt still within the
// recommendation the score blends linearly through [0.5, 1.0]; once
// current debt exceeds the recommendation the score is 0.
func ScoreDebtCeiling(recommendedCeiling, currentCeiling, currentDebt float64) float64 {
	switch {
	case currentCeiling <= recommendedCeiling:
		return 1.0
	case currentDebt <= recommendedCeiling:
		return 0.5 + 0.5*((recommendedCeiling-currentDebt)/recommendedCeiling)
	default:
		return 0.0
	}
}
