package jobs

import (
	"context"
	"fmt"

	"github.com/DiligentDeer/crvhealth/internal/barstore"
	"github.com/DiligentDeer/crvhealth/internal/evaluator"
	"github.com/DiligentDeer/crvhealth/internal/registry"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
)

// ScoringJob refreshes the daily score breakdown for every registered
// market.
// SSOT: the scoring refresh schedule lives in this job only.
type ScoringJob struct {
	runner   *evaluator.Runner
	registry *registry.Registry
	bars     *barstore.Store
	logger   *logger.Logger
}

// NewScoringJob creates a new scoring job.
func NewScoringJob(runner *evaluator.Runner, reg *registry.Registry, bars *barstore.Store, log *logger.Logger) *ScoringJob {
	return &ScoringJob{
		runner:   runner,
		registry: reg,
		bars:     bars,
		logger:   log,
	}
}

// Name returns the job name.
func (j *ScoringJob) Name() string {
	return "daily_scoring"
}

// Schedule runs daily at 01:00 UTC, after upstream daily aggregates have
// settled.
func (j *ScoringJob) Schedule() string {
	return "0 0 1 * * *"
}

// Run refreshes every market's breakdown. The bar-store memo is dropped
// first so the run observes the new day's bars.
func (j *ScoringJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scoring run")

	j.bars.InvalidateSession()

	results := j.runner.EvaluateAll(ctx, j.registry.All())
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed == len(results) && len(results) > 0 {
		return fmt.Errorf("all %d markets failed to evaluate", failed)
	}
	return nil
}
