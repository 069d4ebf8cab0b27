package metrics

import (
	"fmt"
	"math"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// =============================================================================
// Tail-risk model: drop probabilities from a fitted t distribution
// =============================================================================

// DefaultDropThresholds are the drop sizes the scoring pipeline evaluates,
// as positive fractions (7.5% and 15% daily drops).
var DefaultDropThresholds = []float64{0.075, 0.15}

// DropProbability is the tail-risk estimate for one drop threshold.
type DropProbability struct {
	// ParametricProbability is the probability of a daily drop at least
	// as large as the threshold under the fitted t distribution.
	ParametricProbability float64 `json:"parametric_probability"`
	// HistoricalProbability is the empirical frequency over the raw
	// (untrimmed) daily-return series.
	HistoricalProbability float64 `json:"historical_probability"`
	ThresholdPct          float64 `json:"threshold_pct"`
}

// outlierSigmas is the trim bound applied to the pooled sample before the
// distribution fit.
const outlierSigmas = 5.0

// AnalyzePriceDrops fits a Student's-t location-scale distribution to the
// pooled daily returns and true-range returns of a bar series and derives
// drop probabilities for each threshold. The result map is keyed
// "drop1", "drop2", ... in threshold order.
func AnalyzePriceDrops(series contracts.BarSeries, thresholds []float64) (map[string]DropProbability, error) {
	dailyReturns := make([]float64, 0, len(series))
	trueRangeReturns := make([]float64, 0, len(series))
	for _, b := range series {
		if b.Open == 0 {
			continue
		}
		dailyReturns = append(dailyReturns, (b.Close-b.Open)/b.Open)
		trueRangeReturns = append(trueRangeReturns, (b.High-b.Low)/b.Open)
	}

	if len(dailyReturns) == 0 {
		return nil, ErrInsufficientData
	}

	// Pool both series for a fuller picture of daily movement, then trim
	// points beyond 5 standard deviations of the pooled mean.
	pooled := make([]float64, 0, 2*len(dailyReturns))
	pooled = append(pooled, dailyReturns...)
	pooled = append(pooled, trueRangeReturns...)

	trimmed := trimOutliers(pooled, outlierSigmas)

	dist, err := FitStudentT(trimmed)
	if err != nil {
		return nil, fmt.Errorf("t-distribution fit: %w", err)
	}

	probabilities := make(map[string]DropProbability, len(thresholds))
	for i, threshold := range thresholds {
		historical := 0
		for _, r := range dailyReturns {
			if r <= -threshold {
				historical++
			}
		}

		probabilities[fmt.Sprintf("drop%d", i+1)] = DropProbability{
			ParametricProbability: dist.CDF(-threshold),
			HistoricalProbability: float64(historical) / float64(len(dailyReturns)),
			ThresholdPct:          threshold * 100,
		}
	}

	return probabilities, nil
}

// trimOutliers drops points farther than sigmas standard deviations from
// the sample mean. A zero-dispersion sample is returned unchanged.
func trimOutliers(xs []float64, sigmas float64) []float64 {
	mean := Mean(xs)
	std := StdDev(xs)
	if std == 0 || math.IsNaN(std) {
		return xs
	}

	trimmed := make([]float64, 0, len(xs))
	for _, x := range xs {
		if math.Abs(x-mean) <= sigmas*std {
			trimmed = append(trimmed, x)
		}
	}
	return trimmed
}
