// Package app wires configuration into the analysis service and its
// adapters. Both binaries build on it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/adapters/cache"
	"github.com/sitepulse/analyst/internal/adapters/database"
	"github.com/sitepulse/analyst/internal/adapters/events"
	"github.com/sitepulse/analyst/internal/adapters/providers/analytics"
	"github.com/sitepulse/analyst/internal/adapters/providers/meta"
	"github.com/sitepulse/analyst/internal/adapters/providers/searchconsole"
	"github.com/sitepulse/analyst/internal/adapters/storage"
	"github.com/sitepulse/analyst/internal/analysis"
	"github.com/sitepulse/analyst/internal/api/middleware"
	"github.com/sitepulse/analyst/internal/application/services"
	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/providers"
	"github.com/sitepulse/analyst/internal/domain/repositories"
	"github.com/sitepulse/analyst/internal/infrastructure/clients/postgres"
	"github.com/sitepulse/analyst/internal/infrastructure/clients/redis"
	"github.com/sitepulse/analyst/internal/infrastructure/observability"
	"github.com/sitepulse/analyst/pkg/config"
	apperrors "github.com/sitepulse/analyst/pkg/errors"
)

// App holds the wired service and the resources that must be closed.
type App struct {
	Service *services.AnalysisService
	Cache   providers.CacheProvider
	Events  providers.EventBus
	Metrics *observability.Metrics

	// Warmer is set when the history is served through the shared cache.
	Warmer *services.CacheWarmingService

	closers []func() error
}

// Weights returns the score weights configured for the engine.
func Weights(cfg config.AnalysisConfig) entities.Weights {
	return entities.Weights{
		SearchVisibility:   cfg.SearchWeight,
		GA4Performance:     cfg.WebWeight,
		MetaPerformance:    cfg.SocialWeight,
		TechnicalHealth:    cfg.TechnicalWeight,
		ContentPerformance: cfg.ContentWeight,
	}
}

// New builds the analysis service from configuration. Redis is optional: when
// it is disabled or unreachable the service runs with an in-process cache and
// without events. A CONFIGURATION error means the weights are invalid.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	engine, err := analysis.NewEngine(Weights(cfg.Analysis))
	if err != nil {
		return nil, err
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.Metrics = metrics

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			// Continue without Redis - reports are cached in process
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		} else {
			a.closers = append(a.closers, redisClient.Close)
			a.Cache = cache.NewRedisAdapter(redisClient)
			bus := events.NewRedisEventBus(redisClient)
			a.closers = append(a.closers, bus.Close)
			a.Events = bus
			log.Info().Msg("Redis cache and event bus initialized")
		}
	}
	if a.Cache == nil {
		a.Cache = cache.NewMemoryAdapter()
	}

	history, err := a.history(ctx, cfg, metrics)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = services.NewAnalysisService(services.AnalysisDependencies{
		Engine:  engine,
		History: history,
		Search:  searchconsole.NewProvider(cfg.SearchConsole, cfg.HTTPClient),
		Web:     analytics.NewProvider(cfg.GA4, cfg.HTTPClient),
		Social:  meta.NewProvider(cfg.Meta, cfg.HTTPClient),
		Cache:   a.Cache,
		Events:  a.Events,
		Metrics: metrics,
	}, services.AnalysisServiceConfig{
		DefaultDays:  cfg.Analysis.DefaultDays,
		DefaultSite:  firstNonEmpty(cfg.Analysis.DefaultSite, cfg.SearchConsole.SiteURL),
		TailSize:     cfg.History.TailSize,
		FetchTimeout: cfg.Analysis.ChannelFetchTimeout,
	})

	if _, cached := history.(*database.CachedHistoryAdapter); cached {
		a.Warmer = services.NewCacheWarmingService(history, cfg.History.TailSize)
	}

	if a.Events != nil {
		invalidation := services.NewCacheInvalidationService(a.Cache, a.Events,
			database.HistoryCacheKeys, middleware.SiteCacheKeys)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("Cache invalidation disabled")
		} else {
			a.closers = append(a.closers, func() error {
				invalidation.Stop()
				return nil
			})
		}
	}
	return a, nil
}

func (a *App) history(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (repositories.HistoryRepository, error) {
	switch cfg.History.Backend {
	case config.HistoryBackendPostgres:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to initialize PostgreSQL client", err)
		}
		a.closers = append(a.closers, pgClient.Close)

		adapter := database.NewHistoryAdapter(pgClient, cfg.History.RetentionDays, metrics)
		if err := adapter.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		if _, inProcess := a.Cache.(*cache.MemoryAdapter); inProcess {
			return adapter, nil
		}
		log.Info().Msg("History adapter wrapped with caching layer")
		return database.NewCachedHistoryAdapter(adapter, a.Cache, metrics), nil
	default:
		store, err := storage.NewFileHistoryStore(cfg.History.Dir, cfg.History.RetentionDays)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to open history directory", err)
		}
		log.Info().Str("dir", cfg.History.Dir).Msg("Using file history store")
		return store, nil
	}
}

// Close releases the clients opened by New, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Error closing resource")
		}
	}
	a.closers = nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
