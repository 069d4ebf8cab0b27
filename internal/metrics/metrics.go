// Package metrics derives the statistical risk metrics of the scoring
// pipeline: the high-low/close-open volatility estimator, the heavy-tailed
// drop-probability model, beta against a reference asset, and the rolling
// collateral-ratio statistics. All routines are pure and in-memory.
package metrics

import "errors"

var (
	// ErrInsufficientData means a rolling window or distribution fit
	// needs more points than the series provides. Metrics that can be
	// partially computed report NaN instead.
	ErrInsufficientData = errors.New("insufficient data")
)
