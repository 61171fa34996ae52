package app

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/interfaces"
	"github.com/ternarybob/creditcore/internal/models"
	"github.com/ternarybob/creditcore/internal/services/analysis"
	"github.com/ternarybob/creditcore/internal/services/cache"
	"github.com/ternarybob/creditcore/internal/services/creditrisk"
	"github.com/ternarybob/creditcore/internal/services/rating"
	"github.com/ternarybob/creditcore/internal/services/request"
	"github.com/ternarybob/creditcore/internal/services/retry"
	"github.com/ternarybob/creditcore/internal/services/taxonomy"
	"github.com/ternarybob/creditcore/internal/services/validation"
	"github.com/ternarybob/creditcore/internal/storage"
)

// cacheModel tags cache entries written by the rule-based classifier
const cacheModel = "deterministic"

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Taxonomy *taxonomy.Taxonomy
	Cache    interfaces.SemanticCache
	Retry    *retry.Policy
	Analysis *analysis.Service

	// Registry is nil unless metrics are enabled
	Registry *prometheus.Registry

	cacheCloser io.Closer
}

// New initializes the application with all dependencies.
// Configuration defects are returned as *models.ConfigurationError.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Metrics.Enabled {
		app.Registry = prometheus.NewRegistry()
	}

	tax, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy: %w", err)
	}
	app.Taxonomy = tax
	logger.Debug().
		Str("version", tax.Version()).
		Int("keys", tax.Len()).
		Msg("Taxonomy loaded")

	if err := app.initCache(); err != nil {
		return nil, err
	}

	initial, maxDelay := cfg.RetryDelays()
	app.Retry = retry.NewPolicy(logger).WithRateLimit(cfg.Retry.RateLimit)
	app.Retry.MaxAttempts = cfg.Retry.MaxAttempts
	app.Retry.InitialDelay = initial
	app.Retry.MaxDelay = maxDelay
	app.Retry.Multiplier = cfg.Retry.Multiplier

	svc, err := analysis.NewService(analysis.Options{
		Taxonomy: tax,
		Tolerances: validation.TolerancePolicy{
			Balance:  cfg.Validation.BalanceTolerance,
			Subtotal: cfg.Validation.SubtotalTolerance,
		},
		Weights:    weightsFromConfig(cfg.Rating.Weights),
		PDBands:    bandsFromConfig(cfg.Rating.PDBands),
		Versions:   cfg.Versions,
		Cache:      app.Cache,
		Registerer: app.registerer(),
	}, logger)
	if err != nil {
		app.closeCache()
		return nil, fmt.Errorf("failed to initialize analysis service: %w", err)
	}
	app.Analysis = svc

	logger.Info().
		Str("cache_backend", string(cfg.CacheBackend())).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initCache opens the configured store and wraps it in the semantic cache
func (a *App) initCache() error {
	store, closer, err := storage.NewCacheStore(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.cacheCloser = closer

	if store == nil {
		a.Cache = cache.NewNoop()
		a.Logger.Debug().Msg("Semantic cache disabled")
		return nil
	}

	a.Cache = cache.NewService(store, cache.Options{
		SchemaVersion: a.Config.Cache.SchemaVersion,
		PromptVersion: a.Config.Cache.PromptVersion,
		Model:         cacheModel,
		TTL:           a.Config.CacheTTL(),
		Registerer:    a.registerer(),
	}, a.Logger)
	return nil
}

// registerer returns the metrics registry or nil so collectors stay unregistered
func (a *App) registerer() prometheus.Registerer {
	if a.Registry == nil {
		return nil
	}
	return a.Registry
}

// LoadRequest reads a request file, retrying transient I/O failures
func (a *App) LoadRequest(ctx context.Context, path string) (*models.AnalysisRequest, error) {
	return retry.Do(ctx, a.Retry, "load_request", func() (*models.AnalysisRequest, error) {
		return request.Load(path)
	})
}

// Analyze runs the pipeline for one request
func (a *App) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	return a.Analysis.Analyze(ctx, req)
}

// Close releases the cache backend
func (a *App) Close() error {
	if err := a.closeCache(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	return nil
}

func (a *App) closeCache() error {
	if a.cacheCloser == nil {
		return nil
	}
	err := a.cacheCloser.Close()
	a.cacheCloser = nil
	return err
}

// weightsFromConfig converts configured weights; an empty map keeps the defaults
func weightsFromConfig(m map[string]int) rating.Weights {
	if len(m) == 0 {
		return nil
	}
	w := make(rating.Weights, len(m))
	for k, v := range m {
		w[models.SectionKey(k)] = v
	}
	return w
}

// bandsFromConfig overlays configured PD bands on the defaults
func bandsFromConfig(m map[string]float64) creditrisk.PDBands {
	if len(m) == 0 {
		return nil
	}
	bands := creditrisk.DefaultPDBands()
	for g, v := range m {
		bands[models.RatingGrade(g)] = v
	}
	return bands
}
