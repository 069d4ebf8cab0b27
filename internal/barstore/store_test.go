package barstore

import (
	"context"
	"testing"
	"time"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
)

// fakePriceSource records the fetch windows it was asked for.
type fakePriceSource struct {
	points []contracts.PricePoint
	calls  []time.Time
}

func (f *fakePriceSource) PriceHistory(_ context.Context, _, _ string, from time.Time) ([]contracts.PricePoint, error) {
	f.calls = append(f.calls, from)
	var out []contracts.PricePoint
	for _, p := range f.points {
		if !p.Timestamp.Before(from) {
			out = append(out, p)
		}
	}
	return out, nil
}

func hourlyPoints(start time.Time, days int) []contracts.PricePoint {
	var points []contracts.PricePoint
	price := 100.0
	for d := 0; d < days; d++ {
		for h := 0; h < 24; h += 6 {
			points = append(points, contracts.PricePoint{
				Timestamp: start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour),
				Price:     price,
			})
			price += 0.5
		}
	}
	return points
}

func testMarket() contracts.Market {
	return contracts.NewMarket("wstETH", "0xToken", "0xAMM", "0xCtrl", "0xPolicy", 100, 0.06, "")
}

func TestStoreFullFetchOnEmptyRepository(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	source := &fakePriceSource{points: hourlyPoints(start, 10)}
	repo := NewMemoryRepository()

	store := New(source, repo, "ethereum", logger.NewNop())
	store.now = func() time.Time { return start.AddDate(0, 0, 10) }

	series, err := store.GetDailyBars(context.Background(), testMarket(), start)
	if err != nil {
		t.Fatalf("GetDailyBars() error = %v", err)
	}
	if len(series) != 10 {
		t.Fatalf("got %d bars, want 10", len(series))
	}
	if len(source.calls) != 1 || !source.calls[0].Equal(start) {
		t.Errorf("fetch calls = %v, want one full-lookback fetch", source.calls)
	}

	// Persisted for the next session.
	stored, err := repo.Load(context.Background(), testMarket().Key())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(stored) != 10 {
		t.Errorf("repository holds %d bars, want 10", len(stored))
	}
}

func TestStoreMemoAvoidsRefetch(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	source := &fakePriceSource{points: hourlyPoints(start, 5)}

	store := New(source, NewMemoryRepository(), "ethereum", logger.NewNop())
	store.now = func() time.Time { return start.AddDate(0, 0, 5) }

	ctx := context.Background()
	if _, err := store.GetDailyBars(ctx, testMarket(), start); err != nil {
		t.Fatalf("first GetDailyBars() error = %v", err)
	}
	if _, err := store.GetDailyBars(ctx, testMarket(), start); err != nil {
		t.Fatalf("second GetDailyBars() error = %v", err)
	}

	if len(source.calls) != 1 {
		t.Errorf("fetch calls = %d, want 1 (memo hit)", len(source.calls))
	}
}

func TestStoreMemoKeyedByLookbackWindow(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	source := &fakePriceSource{points: hourlyPoints(start, 10)}

	store := New(source, NewMemoryRepository(), "ethereum", logger.NewNop())
	store.now = func() time.Time { return start.AddDate(0, 0, 10) }

	ctx := context.Background()
	short, err := store.GetDailyBars(ctx, testMarket(), start.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("short-window GetDailyBars() error = %v", err)
	}
	if len(short) != 3 {
		t.Fatalf("short window: got %d bars, want 3", len(short))
	}

	// A wider window in the same session must not be served the short
	// window's memoized series.
	full, err := store.GetDailyBars(ctx, testMarket(), start)
	if err != nil {
		t.Fatalf("full-window GetDailyBars() error = %v", err)
	}
	if len(full) != 10 {
		t.Errorf("full window: got %d bars, want 10", len(full))
	}
	if len(source.calls) != 2 {
		t.Errorf("fetch calls = %d, want 2 (one per window)", len(source.calls))
	}
}

func TestStoreIncrementalTailFetch(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	source := &fakePriceSource{points: hourlyPoints(start, 5)}
	repo := NewMemoryRepository()

	store := New(source, repo, "ethereum", logger.NewNop())
	store.now = func() time.Time { return start.AddDate(0, 0, 5) }

	ctx := context.Background()
	if _, err := store.GetDailyBars(ctx, testMarket(), start); err != nil {
		t.Fatalf("GetDailyBars() error = %v", err)
	}

	// Two days pass; the upstream has more history and the memo is a new
	// session's.
	source.points = hourlyPoints(start, 7)
	store.now = func() time.Time { return start.AddDate(0, 0, 7) }
	store.InvalidateSession()

	series, err := store.GetDailyBars(ctx, testMarket(), start)
	if err != nil {
		t.Fatalf("GetDailyBars() after new day error = %v", err)
	}
	if len(series) != 7 {
		t.Fatalf("got %d bars, want 7", len(series))
	}

	if len(source.calls) != 2 {
		t.Fatalf("fetch calls = %d, want 2", len(source.calls))
	}
	// The second fetch starts at the last stored day, not at lookback
	// start, so the partial last bar is replaced.
	wantFrom := start.AddDate(0, 0, 4)
	if !source.calls[1].Equal(wantFrom) {
		t.Errorf("tail fetch from %v, want %v", source.calls[1], wantFrom)
	}
}

func TestStoreFreshSeriesSkipsFetch(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	source := &fakePriceSource{}
	repo := NewMemoryRepository()

	// Repository already covers the window through "today".
	today := start.AddDate(0, 0, 3)
	stored := make(contracts.BarSeries, 4)
	for i := range stored {
		stored[i] = contracts.PriceBar{Date: start.AddDate(0, 0, i), Open: 1, High: 1, Low: 1, Close: 1}
	}
	if err := repo.Save(context.Background(), testMarket().Key(), stored); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	store := New(source, repo, "ethereum", logger.NewNop())
	store.now = func() time.Time { return today.Add(6 * time.Hour) }

	if _, err := store.GetDailyBars(context.Background(), testMarket(), start); err != nil {
		t.Fatalf("GetDailyBars() error = %v", err)
	}
	if len(source.calls) != 0 {
		t.Errorf("fetch calls = %d, want 0 for a fresh series", len(source.calls))
	}
}
