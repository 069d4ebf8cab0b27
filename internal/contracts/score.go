package contracts

import (
	"math"
	"time"
)

// Category names, in the order they appear in a breakdown.
const (
	CategoryBadDebt              = "bad_debt"
	CategoryDebtCeiling          = "debt_ceiling"
	CategoryCollateralRatio      = "collateral_ratio"
	CategoryCollateralUnderSL    = "collateral_under_sl"
	CategoryVolatility           = "volatility"
	CategoryPriceDrop            = "price_drop"
	CategoryBorrowerDistribution = "borrower_distribution"
	CategorySLResponsiveness     = "sl_responsiveness"
	CategorySLProfitability      = "sl_profitability"
	CategoryInterdepVolatility   = "interdependency_volatility"
	CategoryInterdepMomentum     = "interdependency_momentum"
)

// MetricResult is a named raw value together with the bounds that will
// normalize it. Ephemeral, recomputed per evaluation.
type MetricResult struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Upper          float64 `json:"upper"`
	Lower          float64 `json:"lower"`
	HigherIsBetter bool    `json:"higher_is_better"`
	// Mid overrides the (upper+lower)/2 midpoint when non-nil.
	Mid *float64 `json:"mid,omitempty"`
}

// WithMid returns a copy with the midpoint override set.
func (m MetricResult) WithMid(mid float64) MetricResult {
	m.Mid = &mid
	return m
}

// ScoreRecord is one scored category inside a breakdown.
type ScoreRecord struct {
	Name     string  `json:"name"`
	RawValue float64 `json:"raw_value"`
	Score    float64 `json:"score"` // in [0,1] when Valid
	Weight   float64 `json:"weight"`
	Valid    bool    `json:"valid"`
	Reason   string  `json:"reason,omitempty"` // set when the category could not be computed
}

// ScoreBreakdown is the full result of one scoring run for one market.
// Owned by the caller; has no lifecycle beyond the run that produced it.
type ScoreBreakdown struct {
	Market         string    `json:"market"`
	RunID          string    `json:"run_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	WeightsVersion string    `json:"weights_version"`

	// Categories is ordered; the composite must be re-derivable from it
	// and the published weight table alone.
	Categories []ScoreRecord `json:"categories"`

	// Metrics carries the individually named raw metrics (cr ratios,
	// volatilities, beta, drop probabilities) for display and audit.
	Metrics map[string]float64 `json:"metrics"`

	Composite float64 `json:"composite"` // NaN when Partial
	Partial   bool    `json:"partial"`
	Band      string  `json:"band,omitempty"`
}

// Category returns the record with the given name. ok is false when the
// breakdown does not contain it.
func (b *ScoreBreakdown) Category(name string) (ScoreRecord, bool) {
	for _, rec := range b.Categories {
		if rec.Name == name {
			return rec, true
		}
	}
	return ScoreRecord{}, false
}

// Band labels for the composite score.
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandModerate  = "moderate"
	BandPoor      = "poor"
)

// BandFor maps a composite score onto its health band.
func BandFor(score float64) string {
	switch {
	case math.IsNaN(score):
		return ""
	case score >= 0.8:
		return BandExcellent
	case score >= 0.6:
		return BandGood
	case score >= 0.4:
		return BandModerate
	default:
		return BandPoor
	}
}
