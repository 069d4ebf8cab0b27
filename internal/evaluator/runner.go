package evaluator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
	"github.com/DiligentDeer/crvhealth/pkg/redis"
)

// RunResult is the outcome of evaluating one market. A failed market
// carries its error; the run as a whole does not abort.
type RunResult struct {
	Market    contracts.Market
	Breakdown *contracts.ScoreBreakdown
	Err       error
}

// Runner evaluates many markets concurrently and caches the daily
// breakdowns. The cache key carries the calendar day, so a new day
// naturally misses the cache instead of relying on TTL expiry.
type Runner struct {
	eval    contracts.Evaluator
	cache   *redis.Cache
	workers int
	logger  *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewRunner creates a runner. cache may be backed by a disabled client;
// lookups then always miss.
func NewRunner(eval contracts.Evaluator, cache *redis.Cache, workers int, log *logger.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		eval:    eval,
		cache:   cache,
		workers: workers,
		logger:  log,
		now:     time.Now,
	}
}

// EvaluateAll scores every given market using a bounded worker pool.
// Results come back in input order.
func (r *Runner) EvaluateAll(ctx context.Context, markets []contracts.Market) []RunResult {
	results := make([]RunResult, len(markets))

	type job struct {
		idx    int
		market contracts.Market
	}
	jobCh := make(chan job, len(markets))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				breakdown, err := r.EvaluateCached(ctx, j.market)
				results[j.idx] = RunResult{Market: j.market, Breakdown: breakdown, Err: err}
			}
		}()
	}

	for i, m := range markets {
		jobCh <- job{idx: i, market: m}
	}
	close(jobCh)
	wg.Wait()

	successCount := 0
	failCount := 0
	for _, res := range results {
		if res.Err != nil {
			failCount++
			r.logger.WithError(res.Err).WithField("market", res.Market.Name).Error("Market evaluation failed")
		} else {
			successCount++
		}
	}
	r.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  failCount,
		"total":   len(markets),
	}).Info("Scoring run completed")

	return results
}

// EvaluateCached returns today's cached breakdown for the market when
// present, evaluating and caching otherwise. Cache failures degrade to a
// plain evaluation.
func (r *Runner) EvaluateCached(ctx context.Context, market contracts.Market) (*contracts.ScoreBreakdown, error) {
	key := r.cacheKey(market)

	var cached contracts.ScoreBreakdown
	hit, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.logger.WithError(err).WithField("market", market.Name).Warn("Score cache lookup failed")
	}
	if hit && !cached.Partial {
		return &cached, nil
	}

	breakdown, err := r.eval.Evaluate(ctx, market)
	if err != nil {
		return nil, err
	}
	if !breakdown.Partial {
		if err := r.cache.Set(ctx, key, breakdown, 0); err != nil {
			r.logger.WithError(err).WithField("market", market.Name).Warn("Score cache store failed")
		}
	}
	return breakdown, nil
}

func (r *Runner) cacheKey(market contracts.Market) string {
	return fmt.Sprintf("scores:%s:%s", market.Key(), r.now().UTC().Format("2006-01-02"))
}
