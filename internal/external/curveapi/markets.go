package curveapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// marketRecord is the wire shape of one active-market listing entry.
type marketRecord struct {
	Address             string    `json:"address"`
	TotalDebt           flexFloat `json:"total_debt"`
	Borrowable          flexFloat `json:"borrowable"`
	CollateralAmount    flexFloat `json:"collateral_amount"`
	CollateralAmountUSD flexFloat `json:"collateral_amount_usd"`
	NLoans              int       `json:"n_loans"`
	CollateralToken     string    `json:"collateral_token"`
	StablecoinToken     string    `json:"stablecoin_token"`
}

// ActiveMarkets lists the active mint markets on the configured chain.
// SSOT: the markets listing endpoint is called only here.
func (c *Client) ActiveMarkets(ctx context.Context) ([]contracts.MarketStatus, error) {
	path := fmt.Sprintf("/v1/crvusd/markets/%s", c.chain)
	params := url.Values{
		"fetch_on_chain": {"true"},
		"page":           {"1"},
		"per_page":       {"100"},
	}

	var payload struct {
		Data []marketRecord `json:"data"`
	}
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, fmt.Errorf("fetch active markets: %w", err)
	}

	statuses := make([]contracts.MarketStatus, 0, len(payload.Data))
	for _, rec := range payload.Data {
		statuses = append(statuses, contracts.MarketStatus{
			Address:             rec.Address,
			TotalDebt:           float64(rec.TotalDebt),
			Borrowable:          float64(rec.Borrowable),
			CollateralAmount:    float64(rec.CollateralAmount),
			CollateralAmountUSD: float64(rec.CollateralAmountUSD),
			NLoans:              rec.NLoans,
			CollateralToken:     rec.CollateralToken,
			StablecoinToken:     rec.StablecoinToken,
		})
	}
	return statuses, nil
}

// MarketStatus returns the point-in-time status of one market, selected
// from the active-market listing by controller address.
func (c *Client) MarketStatus(ctx context.Context, market contracts.Market) (*contracts.MarketStatus, error) {
	statuses, err := c.ActiveMarkets(ctx)
	if err != nil {
		return nil, err
	}

	key := market.Key()
	for i := range statuses {
		if strings.ToLower(statuses[i].Address) == key {
			return &statuses[i], nil
		}
	}
	return nil, fmt.Errorf("market %s (%s) not found in active markets", market.Name, market.Controller)
}
