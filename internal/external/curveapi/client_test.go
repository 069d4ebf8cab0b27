package curveapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
	"github.com/DiligentDeer/crvhealth/pkg/config"
	"github.com/DiligentDeer/crvhealth/pkg/httputil"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.NewNop()).DisableRetry()
	return NewClient(httpClient, logger.NewNop(), server.URL, "ethereum")
}

func testMarket() contracts.Market {
	return contracts.NewMarket("wstETH", "0xToken", "0xAMM", "0xCtrl", "0xPolicy", 100, 0.06, "")
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		name string
		json string
		want float64
	}{
		{"plain number", `0.06`, 0.06},
		{"quoted number", `"0.06"`, 0.06},
		{"quoted scientific", `"6E-2"`, 0.06},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flexFloat
			if err := json.Unmarshal([]byte(tt.json), &f); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.json, err)
			}
			if float64(f) != tt.want {
				t.Errorf("flexFloat(%s) = %v, want %v", tt.json, float64(f), tt.want)
			}
		})
	}

	var f flexFloat
	if err := json.Unmarshal([]byte(`"not a number"`), &f); err == nil {
		t.Error("Unmarshal(garbage) error = nil, want error")
	}
}

func TestMarketSnapshots(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/v1/crvusd/markets/ethereum/0xCtrl/snapshots"
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		if got := r.URL.Query().Get("agg"); got != "day" {
			t.Errorf("agg = %q, want day", got)
		}

		// Out of order on purpose; the client must sort ascending.
		w.Write([]byte(`{"data": [
			{"dt": "2026-04-02T00:00:00", "total_collateral_usd": 1600000, "total_debt": "1000000", "loan_discount": "9E-2", "liquidation_discount": 0.06},
			{"dt": "2026-04-01T00:00:00", "total_collateral_usd": 1500000, "total_debt": 1000000, "loan_discount": 0.09, "liquidation_discount": 0.06}
		]}`))
	})

	series, err := client.MarketSnapshots(context.Background(), testMarket())
	if err != nil {
		t.Fatalf("MarketSnapshots() error = %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(series))
	}
	if !series[0].Timestamp.Before(series[1].Timestamp) {
		t.Error("snapshots not sorted ascending")
	}
	if series[0].TotalCollateralUSD != 1500000 {
		t.Errorf("first snapshot collateral = %v, want 1500000", series[0].TotalCollateralUSD)
	}
	if series[1].TotalDebt != 1000000 {
		t.Errorf("string-encoded debt = %v, want 1000000", series[1].TotalDebt)
	}
	if series[1].LoanDiscount != 0.09 {
		t.Errorf("scientific-notation loan discount = %v, want 0.09", series[1].LoanDiscount)
	}
}

func TestMarketSnapshotsUpstreamError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := client.MarketSnapshots(context.Background(), testMarket()); err == nil {
		t.Error("MarketSnapshots() error = nil on 404, want error")
	}
}

func TestParseSnapshotTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-04-01T12:30:00", time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC)},
		{"2026-04-01T12:30:00Z", time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC)},
		{"2026-04-01", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := parseSnapshotTime(tt.in)
		if err != nil {
			t.Errorf("parseSnapshotTime(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseSnapshotTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := parseSnapshotTime("yesterday"); err == nil {
		t.Error("parseSnapshotTime(garbage) error = nil, want error")
	}
}

func TestMarketStatusSelectsByController(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [
			{"address": "0xOTHER", "total_debt": 1, "borrowable": 1, "n_loans": 1},
			{"address": "0xCTRL", "total_debt": 5000000, "borrowable": 2000000, "n_loans": 120}
		]}`))
	})

	status, err := client.MarketStatus(context.Background(), testMarket())
	if err != nil {
		t.Fatalf("MarketStatus() error = %v", err)
	}

	if status.TotalDebt != 5000000 {
		t.Errorf("TotalDebt = %v, want 5000000 (case-insensitive address match)", status.TotalDebt)
	}
	if got := status.DebtCeiling(); got != 7000000 {
		t.Errorf("DebtCeiling() = %v, want 7000000", got)
	}
}

func TestMarketStatusNotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"address": "0xOTHER"}]}`))
	})

	if _, err := client.MarketStatus(context.Background(), testMarket()); err == nil {
		t.Error("MarketStatus() error = nil for absent market, want error")
	}
}
