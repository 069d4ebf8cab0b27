package contracts

import "time"

// Snapshot is one periodic protocol snapshot for a market.
type Snapshot struct {
	Timestamp           time.Time `json:"dt"`
	TotalCollateralUSD  float64   `json:"total_collateral_usd"`
	TotalDebt           float64   `json:"total_debt"`
	LoanDiscount        float64   `json:"loan_discount"`
	LiquidationDiscount float64   `json:"liquidation_discount"`
}

// SnapshotSeries is an ordered-by-time sequence of snapshots for one
// market. Append-only from the feed's point of view; rolling statistics
// are derived views, never stored back into the series.
type SnapshotSeries []Snapshot

// SLRatioPoint is one observation of the soft-liquidation exposure ratios.
type SLRatioPoint struct {
	Timestamp              time.Time `json:"timestamp"`
	DebtUnderSLRatio       float64   `json:"debt_under_sl_ratio"`
	CollateralUnderSLRatio float64   `json:"collateral_under_sl_ratio"`
}

// SLRatioSeries is an ordered-by-time sequence of soft-liquidation ratios.
type SLRatioSeries []SLRatioPoint

// MarketStatus is the point-in-time state of a market from the registry
// listing endpoint.
type MarketStatus struct {
	Address             string  `json:"address"`
	TotalDebt           float64 `json:"total_debt"`
	Borrowable          float64 `json:"borrowable"`
	CollateralAmount    float64 `json:"collateral_amount"`
	CollateralAmountUSD float64 `json:"collateral_amount_usd"`
	NLoans              int     `json:"n_loans"`
	CollateralToken     string  `json:"collateral_token"`
	StablecoinToken     string  `json:"stablecoin_token"`
}

// DebtCeiling returns the current effective debt ceiling.
func (s MarketStatus) DebtCeiling() float64 {
	return s.Borrowable + s.TotalDebt
}

// LiquidationOverview carries the bad-debt figure for a market, in
// absolute currency units.
type LiquidationOverview struct {
	BadDebt float64 `json:"bad_debt"`
}
