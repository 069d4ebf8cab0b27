package registry

import (
	"math"
	"strings"
	"testing"
)

const testRegistry = `
markets:
  - market: wstETH
    token: "0xToken1"
    amm: "0xAMM1"
    controller: "0xAAAA"
    amp: 100
    liq_discount: 0.06
  - market: WBTC
    token: "0xToken2"
    amm: "0xAMM2"
    controller: "0xBBBB"
    amp: 100
    liq_discount: 0.065
`

func TestParse(t *testing.T) {
	reg, err := Parse([]byte(testRegistry))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}

	m, ok := reg.ByName("wstETH")
	if !ok {
		t.Fatal("ByName(wstETH) not found")
	}

	wantMax := 1 - 0.06 - 2.0/100
	if math.Abs(m.MaxLTV-wantMax) > 1e-12 {
		t.Errorf("MaxLTV = %v, want %v", m.MaxLTV, wantMax)
	}

	// Controller lookup is case-insensitive.
	if _, ok := reg.ByController("0xaaaa"); !ok {
		t.Error("ByController(lowercase) not found")
	}
	if _, ok := reg.ByController("0xAAAA"); !ok {
		t.Error("ByController(original case) not found")
	}

	all := reg.All()
	if len(all) != 2 || all[0].Name != "wstETH" || all[1].Name != "WBTC" {
		t.Errorf("All() order = %v, want registry file order", all)
	}
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty registry",
			yaml:    "markets: []",
			wantErr: "no markets",
		},
		{
			name: "missing controller",
			yaml: `
markets:
  - market: broken
    token: "0xT"
    amp: 100
    liq_discount: 0.06
`,
			wantErr: "controller",
		},
		{
			name: "zero amplification",
			yaml: `
markets:
  - market: broken
    token: "0xT"
    controller: "0xC"
    amp: 0
    liq_discount: 0.06
`,
			wantErr: "amplification",
		},
		{
			name: "duplicate controller",
			yaml: `
markets:
  - market: one
    token: "0xT"
    controller: "0xSAME"
    amp: 100
    liq_discount: 0.06
  - market: two
    token: "0xT"
    controller: "0xsame"
    amp: 100
    liq_discount: 0.06
`,
			wantErr: "duplicate controller",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
