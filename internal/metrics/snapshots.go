package metrics

import (
	"math"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// =============================================================================
// Rolling snapshot-series statistics
// =============================================================================

// Rolling window sizes, in daily snapshots.
const (
	rollingShortWindow = 7
	rollingLongWindow  = 30
)

// CollateralRatioRow is the derived collateral-ratio view of one snapshot.
// Rolling fields are NaN until their window is full.
type CollateralRatioRow struct {
	CRRatio          float64 `json:"cr_ratio"`
	CRRatio7d        float64 `json:"cr_ratio_7d"`
	CRRatio30d       float64 `json:"cr_ratio_30d"`
	CRRatio7dOver30d float64 `json:"cr_7d_over_30d"`
}

// CollateralRatioRows derives per-snapshot collateral ratios and their
// 7/30-day rolling means. A zero total debt makes that row's ratio NaN
// rather than infinite.
func CollateralRatioRows(series contracts.SnapshotSeries) []CollateralRatioRow {
	ratios := make([]float64, len(series))
	for i, s := range series {
		if s.TotalDebt == 0 {
			ratios[i] = math.NaN()
			continue
		}
		ratios[i] = s.TotalCollateralUSD / s.TotalDebt
	}

	rows := make([]CollateralRatioRow, len(series))
	for i := range series {
		row := CollateralRatioRow{
			CRRatio:    ratios[i],
			CRRatio7d:  rollingMean(ratios, i, rollingShortWindow),
			CRRatio30d: rollingMean(ratios, i, rollingLongWindow),
		}
		row.CRRatio7dOver30d = row.CRRatio7d / row.CRRatio30d
		rows[i] = row
	}
	return rows
}

// LatestCollateralRatioRow returns the most recent derived row. An empty
// series yields an explicit zero-valued sentinel, not an error.
func LatestCollateralRatioRow(series contracts.SnapshotSeries) CollateralRatioRow {
	rows := CollateralRatioRows(series)
	if len(rows) == 0 {
		return CollateralRatioRow{}
	}
	return rows[len(rows)-1]
}

// SLRatioRow is the derived soft-liquidation exposure view of one
// observation: current ratios, their rolling means, and the 7d/30d
// relative ratios.
type SLRatioRow struct {
	DebtUnderSL         float64 `json:"debt_under_sl_ratio"`
	DebtUnderSL7d       float64 `json:"debt_under_sl_ratio_7d"`
	DebtUnderSL30d      float64 `json:"debt_under_sl_ratio_30d"`
	DebtUnderSLRelative float64 `json:"debt_under_sl_7d_over_30d"`
	CollUnderSL         float64 `json:"collateral_under_sl_ratio"`
	CollUnderSL7d       float64 `json:"collateral_under_sl_ratio_7d"`
	CollUnderSL30d      float64 `json:"collateral_under_sl_ratio_30d"`
	CollUnderSLRelative float64 `json:"collateral_under_sl_7d_over_30d"`
}

// LatestSLRatioRow returns the most recent derived soft-liquidation row.
// A 30-day mean of exactly zero makes the relative ratio default to the
// neutral 1.0; a market with no SL activity is not a fault. An empty
// series yields the zero sentinel.
func LatestSLRatioRow(series contracts.SLRatioSeries) SLRatioRow {
	if len(series) == 0 {
		return SLRatioRow{}
	}

	debt := make([]float64, len(series))
	coll := make([]float64, len(series))
	for i, p := range series {
		debt[i] = p.DebtUnderSLRatio
		coll[i] = p.CollateralUnderSLRatio
	}

	last := len(series) - 1
	row := SLRatioRow{
		DebtUnderSL:    debt[last],
		DebtUnderSL7d:  rollingMean(debt, last, rollingShortWindow),
		DebtUnderSL30d: rollingMean(debt, last, rollingLongWindow),
		CollUnderSL:    coll[last],
		CollUnderSL7d:  rollingMean(coll, last, rollingShortWindow),
		CollUnderSL30d: rollingMean(coll, last, rollingLongWindow),
	}
	row.DebtUnderSLRelative = relativeRatio(row.DebtUnderSL7d, row.DebtUnderSL30d)
	row.CollUnderSLRelative = relativeRatio(row.CollUnderSL7d, row.CollUnderSL30d)
	return row
}

// rollingMean computes the mean of the window of size w ending at index i.
// NaN until the window is full, matching the rolling-statistics view the
// snapshot feed exposes.
func rollingMean(xs []float64, i, w int) float64 {
	if i+1 < w {
		return math.NaN()
	}
	var sum float64
	for j := i - w + 1; j <= i; j++ {
		sum += xs[j]
	}
	return sum / float64(w)
}

// relativeRatio is shortWindow/longWindow with the zero-denominator
// default of 1.0 (neutral).
func relativeRatio(short, long float64) float64 {
	if long == 0 {
		return 1.0
	}
	return short / long
}
