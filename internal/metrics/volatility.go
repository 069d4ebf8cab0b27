package metrics

import (
	"math"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// =============================================================================
// High-low / close-open variance estimator (Garman-Klass style)
// =============================================================================

// Window sizes for the volatility ratio.
const (
	shortVolWindow = 30
	longVolWindow  = 90
)

// gkTerm is the per-bar contribution to the variance estimator:
//
//	0.5*ln^2(high/low) - (2*ln(2)-1)*ln^2(close/open)
//
// The inputs are log ratios, so the term is invariant to a uniform
// rescaling of all OHLC values within a bar.
func gkTerm(b contracts.PriceBar) float64 {
	logHL := math.Log(b.High / b.Low)
	logCO := math.Log(b.Close / b.Open)
	return 0.5*logHL*logHL - (2*math.Ln2-1)*logCO*logCO
}

// gkVariance is the mean estimator term over the whole series.
func gkVariance(series contracts.BarSeries) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, b := range series {
		sum += gkTerm(b)
	}
	return sum / float64(len(series))
}

// Volatility computes the whole-series estimator volatility. A variance
// of zero or below returns NaN: the estimator can go negative on short or
// degenerate samples, and "could not be computed" must stay distinct from
// "no movement" for callers like the beta estimator.
func Volatility(series contracts.BarSeries) float64 {
	variance := gkVariance(series)
	if math.IsNaN(variance) || variance <= 0 {
		return math.NaN()
	}
	return math.Sqrt(variance)
}

// RollingVolatility computes the estimator volatility over the last full
// window of size w. Negative variance is clamped to zero before the
// square root. NaN when the series is shorter than the window.
func RollingVolatility(series contracts.BarSeries, w int) float64 {
	if w <= 0 || len(series) < w {
		return math.NaN()
	}
	variance := gkVariance(series.Tail(w))
	return math.Sqrt(math.Max(variance, 0))
}

// VolatilityRatio returns the 30d and 90d rolling volatilities at the
// last point of each window and their ratio. A 90d volatility of exactly
// zero yields the neutral ratio 1.0; a short series propagates NaN.
func VolatilityRatio(series contracts.BarSeries) (vol30, vol90, ratio float64) {
	vol30 = RollingVolatility(series, shortVolWindow)
	vol90 = RollingVolatility(series, longVolWindow)

	if vol90 == 0 {
		return vol30, vol90, 1.0
	}
	return vol30, vol90, vol30 / vol90
}
