package commands

import (
	"fmt"

	"github.com/DiligentDeer/crvhealth/internal/barstore"
	"github.com/DiligentDeer/crvhealth/internal/contracts"
	"github.com/DiligentDeer/crvhealth/internal/evaluator"
	"github.com/DiligentDeer/crvhealth/internal/external/curveapi"
	"github.com/DiligentDeer/crvhealth/internal/external/defillama"
	"github.com/DiligentDeer/crvhealth/internal/registry"
	"github.com/DiligentDeer/crvhealth/pkg/config"
	"github.com/DiligentDeer/crvhealth/pkg/database"
	"github.com/DiligentDeer/crvhealth/pkg/httputil"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
	"github.com/DiligentDeer/crvhealth/pkg/redis"
)

// app bundles the wired components every command starts from.
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	registry *registry.Registry
	bars     *barstore.Store
	runner   *evaluator.Runner

	db    *database.DB
	redis *redis.Client
}

// Close releases the app's connections.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// bootstrap loads config and wires the full evaluation stack. The daily
// bar repository is Postgres when DATABASE_URL is set and in-memory
// otherwise, so one-off CLI runs work without infrastructure.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if registryPath != "" {
		cfg.Scoring.RegistryPath = registryPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	reg, err := registry.Load(cfg.Scoring.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	reference, ok := reg.ByName(cfg.Scoring.ReferenceAsset)
	if !ok {
		return nil, fmt.Errorf("reference asset %q not in registry", cfg.Scoring.ReferenceAsset)
	}

	a := &app{cfg: cfg, logger: log, registry: reg}

	var barRepo contracts.BarRepository
	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		barRepo = barstore.NewPostgresRepository(db.Pool)
		log.Info("Connected to database")
	} else {
		barRepo = barstore.NewMemoryRepository()
		log.Warn("DATABASE_URL not set, daily bars will not persist")
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = redisClient

	httpClient := httputil.New(cfg, log)
	curveClient := curveapi.NewClient(httpClient, log, cfg.CurveAPI.BaseURL, cfg.CurveAPI.Chain).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "crvhealth"))
	llamaClient := defillama.NewClient(httpClient, log, cfg.Llama)

	a.bars = barstore.New(llamaClient, barRepo, cfg.CurveAPI.Chain, log)

	eval := evaluator.New(curveClient, a.bars, reference, cfg.Scoring.LookbackDays, log)
	cache := redis.NewCache(redisClient, "scores")
	a.runner = evaluator.NewRunner(eval, cache, cfg.Scoring.Workers, log)

	return a, nil
}
