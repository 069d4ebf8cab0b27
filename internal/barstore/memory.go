package barstore

import (
	"context"
	"sync"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// MemoryRepository is an in-memory contracts.BarRepository for tests and
// one-off CLI runs without a database.
type MemoryRepository struct {
	mu     sync.Mutex
	series map[string]contracts.BarSeries
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{series: make(map[string]contracts.BarSeries)}
}

// Load returns a copy of the stored series for a market.
func (r *MemoryRepository) Load(_ context.Context, marketKey string) (contracts.BarSeries, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.series[marketKey]
	out := make(contracts.BarSeries, len(stored))
	copy(out, stored)
	return out, nil
}

// Save merges the given series into the stored one, last-write-wins by
// date.
func (r *MemoryRepository) Save(_ context.Context, marketKey string, series contracts.BarSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series[marketKey] = Merge(r.series[marketKey], series)
	return nil
}
