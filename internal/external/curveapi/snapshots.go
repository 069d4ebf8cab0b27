package curveapi

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// snapshotRecord is the wire shape of one market snapshot.
type snapshotRecord struct {
	Dt                  string    `json:"dt"`
	TotalCollateralUSD  flexFloat `json:"total_collateral_usd"`
	TotalDebt           flexFloat `json:"total_debt"`
	LoanDiscount        flexFloat `json:"loan_discount"`
	LiquidationDiscount flexFloat `json:"liquidation_discount"`
}

// snapshotTimeLayouts are the timestamp formats the API has been seen to
// return for snapshot rows.
var snapshotTimeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// MarketSnapshots fetches the daily snapshot history for a market,
// ordered by time ascending.
// SSOT: the snapshots endpoint is called only here.
func (c *Client) MarketSnapshots(ctx context.Context, market contracts.Market) (contracts.SnapshotSeries, error) {
	path := fmt.Sprintf("/v1/crvusd/markets/%s/%s/snapshots", c.chain, market.Controller)
	params := url.Values{
		"fetch_on_chain": {"false"},
		"agg":            {"day"},
	}

	var payload struct {
		Data []snapshotRecord `json:"data"`
	}
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, fmt.Errorf("fetch snapshots for %s: %w", market.Name, err)
	}

	series := make(contracts.SnapshotSeries, 0, len(payload.Data))
	for _, rec := range payload.Data {
		ts, err := parseSnapshotTime(rec.Dt)
		if err != nil {
			return nil, fmt.Errorf("snapshot timestamp for %s: %w", market.Name, err)
		}
		series = append(series, contracts.Snapshot{
			Timestamp:           ts,
			TotalCollateralUSD:  float64(rec.TotalCollateralUSD),
			TotalDebt:           float64(rec.TotalDebt),
			LoanDiscount:        float64(rec.LoanDiscount),
			LiquidationDiscount: float64(rec.LiquidationDiscount),
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	c.logger.WithFields(map[string]interface{}{
		"market": market.Name,
		"count":  len(series),
	}).Debug("Fetched market snapshots")
	return series, nil
}

func parseSnapshotTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range snapshotTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
