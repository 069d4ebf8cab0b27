package contracts

import "strings"

// Market is the immutable identity of a crvUSD mint market. Instances are
// created once at registry load and never mutated afterwards.
// SSOT: LTV bound derivation happens only in NewMarket.
type Market struct {
	Name        string  `json:"name" yaml:"market"`
	Token       string  `json:"token" yaml:"token"`           // collateral token address
	AMM         string  `json:"amm" yaml:"amm"`               // LLAMMA address
	Controller  string  `json:"controller" yaml:"controller"` // controller contract address
	Policy      string  `json:"policy" yaml:"policy"`         // monetary policy contract
	A           int64   `json:"amplification" yaml:"amp"`
	LiqDiscount float64 `json:"liq_discount" yaml:"liq_discount"`
	PriceFeedID string  `json:"price_feed_id" yaml:"price_feed_id"`

	// Derived bounds, see NewMarket.
	MaxLTV float64 `json:"max_ltv" yaml:"-"`
	MinLTV float64 `json:"min_ltv" yaml:"-"`
}

// NewMarket builds a Market and derives its LTV bounds from the
// amplification parameter and liquidation discount:
//
//	max_ltv = 1 - liq_discount - 2/A
//	min_ltv = 1 - liq_discount - 25/A
func NewMarket(name, token, amm, controller, policy string, a int64, liqDiscount float64, priceFeedID string) Market {
	m := Market{
		Name:        name,
		Token:       token,
		AMM:         amm,
		Controller:  controller,
		Policy:      policy,
		A:           a,
		LiqDiscount: liqDiscount,
		PriceFeedID: priceFeedID,
	}
	m.deriveBounds()
	return m
}

func (m *Market) deriveBounds() {
	if m.A == 0 {
		return
	}
	m.MaxLTV = 1 - m.LiqDiscount - 2/float64(m.A)
	m.MinLTV = 1 - m.LiqDiscount - 25/float64(m.A)
}

// Key returns the normalized lookup key for this market. Market identity
// is the controller address alone, compared case-insensitively; the key
// must be used wherever a Market indexes a map.
func (m Market) Key() string {
	return strings.ToLower(m.Controller)
}

// Equal reports whether two markets are the same market. Only the
// controller address participates in identity.
func (m Market) Equal(other Market) bool {
	return m.Key() == other.Key()
}
