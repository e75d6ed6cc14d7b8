package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/domain/repositories"
)

// CacheWarmingService reads the latest report and trend tail of every stored
// site through a cached history, so first requests after a restart or a
// flush are served from cache.
type CacheWarmingService struct {
	history  repositories.HistoryRepository
	tailSize int
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(history repositories.HistoryRepository, tailSize int) *CacheWarmingService {
	if tailSize < 2 {
		tailSize = 2
	}
	return &CacheWarmingService{history: history, tailSize: tailSize}
}

// WarmCache loads every site once and returns how many were warmed
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	sites, err := s.history.ListSites(ctx)
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if _, err := s.history.Latest(ctx, site); err != nil {
			log.Warn().Err(err).Str("site", site).Msg("Failed to warm latest report")
			continue
		}
		if _, err := s.history.LoadTail(ctx, site, s.tailSize); err != nil {
			log.Warn().Err(err).Str("site", site).Msg("Failed to warm history tail")
			continue
		}
		warmed++
	}

	log.Debug().Int("sites", len(sites)).Int("warmed", warmed).Msg("Cache warming completed")
	return warmed, nil
}

// StartPeriodicWarming warms once, then again every interval until ctx ends
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if _, err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping cache warming service")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("Periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("Started periodic cache warming")
}
