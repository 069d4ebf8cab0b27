package curveapi

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// LiquidationOverview fetches the liquidation overview for a market; the
// scoring pipeline consumes only the bad-debt figure.
// SSOT: the liquidations overview endpoint is called only here.
func (c *Client) LiquidationOverview(ctx context.Context, market contracts.Market) (*contracts.LiquidationOverview, error) {
	path := fmt.Sprintf("/v1/crvusd/liquidations/%s/%s/overview", c.chain, market.Controller)
	params := url.Values{
		"fetch_on_chain": {"false"},
	}

	var payload struct {
		BadDebt flexFloat `json:"bad_debt"`
	}
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, fmt.Errorf("fetch liquidation overview for %s: %w", market.Name, err)
	}

	return &contracts.LiquidationOverview{BadDebt: float64(payload.BadDebt)}, nil
}

// slRatioRecord is the wire shape of one soft-liquidation ratio point.
type slRatioRecord struct {
	Timestamp              string    `json:"timestamp"`
	DebtUnderSLRatio       flexFloat `json:"debt_under_sl_ratio"`
	CollateralUnderSLRatio flexFloat `json:"collateral_under_sl_ratio"`
}

// SoftLiquidationRatios fetches the soft-liquidation exposure history for
// a market over [from, to], ordered by time ascending.
// SSOT: the soft_liquidation_ratio endpoint is called only here.
func (c *Client) SoftLiquidationRatios(ctx context.Context, market contracts.Market, from, to time.Time) (contracts.SLRatioSeries, error) {
	path := fmt.Sprintf("/v1/crvusd/liquidations/%s/%s/soft_liquidation_ratio", c.chain, market.Controller)
	params := url.Values{
		"start": {strconv.FormatInt(from.Unix(), 10)},
		"end":   {strconv.FormatInt(to.Unix(), 10)},
	}

	var payload struct {
		Data []slRatioRecord `json:"data"`
	}
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, fmt.Errorf("fetch soft-liquidation ratios for %s: %w", market.Name, err)
	}

	series := make(contracts.SLRatioSeries, 0, len(payload.Data))
	for _, rec := range payload.Data {
		ts, err := parseSnapshotTime(rec.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("soft-liquidation timestamp for %s: %w", market.Name, err)
		}
		series = append(series, contracts.SLRatioPoint{
			Timestamp:              ts,
			DebtUnderSLRatio:       float64(rec.DebtUnderSLRatio),
			CollateralUnderSLRatio: float64(rec.CollateralUnderSLRatio),
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	c.logger.WithFields(map[string]interface{}{
		"market": market.Name,
		"count":  len(series),
	}).Debug("Fetched soft-liquidation ratios")
	return series, nil
}
