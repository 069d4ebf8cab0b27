package metrics

import (
	"math"
	"time"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// =============================================================================
// Beta (volatility-scaled correlation against a reference asset)
// =============================================================================

// logCloseReturns returns ln(close_t / close_{t-1}) keyed by bar date.
func logCloseReturns(series contracts.BarSeries) map[time.Time]float64 {
	returns := make(map[time.Time]float64, len(series))
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Close
		if prev <= 0 || series[i].Close <= 0 {
			continue
		}
		returns[series[i].Date] = math.Log(series[i].Close / prev)
	}
	return returns
}

// Beta computes the estimator-volatility-scaled correlation of an asset
// against a reference asset over the same lookback window:
//
//	beta = corr(log returns) * vol(asset) / vol(reference)
//
// Both volatilities are whole-window estimates. An undefined or zero
// reference volatility makes beta NaN; a misleading finite number is
// never substituted.
func Beta(asset, reference contracts.BarSeries) float64 {
	assetReturns := logCloseReturns(asset)
	refReturns := logCloseReturns(reference)

	// Correlate over the overlapping dated range only. Walking the
	// asset's bars keeps the pairing ordered by date.
	var xs, ys []float64
	for _, bar := range asset {
		ar, okA := assetReturns[bar.Date]
		rr, okR := refReturns[bar.Date]
		if okA && okR {
			xs = append(xs, ar)
			ys = append(ys, rr)
		}
	}

	correlation := PearsonCorrelation(xs, ys)

	assetVol := Volatility(asset)
	refVol := Volatility(reference)

	if math.IsNaN(correlation) || math.IsNaN(assetVol) || math.IsNaN(refVol) || refVol == 0 {
		return math.NaN()
	}
	return correlation * (assetVol / refVol)
}
