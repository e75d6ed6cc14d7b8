package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/providers"
)

// CacheKeyFunc lists the cache keys that go stale when a site gets a new report
type CacheKeyFunc func(site string) []string

// CacheInvalidationService drops cached history and responses when report
// events arrive, so every instance sharing the cache sees new reports.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	keyFuncs []CacheKeyFunc
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus, keyFuncs ...CacheKeyFunc) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		keyFuncs: keyFuncs,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for report events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelReports)
	if err != nil {
		return fmt.Errorf("failed to subscribe to report updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Int("key_sets", len(s.keyFuncs)).Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service and waits for the event loop
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	<-s.done
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ReportEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil || event.EventType != entities.ReportEventTypeGenerated {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.ReportEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidateSite(ctx, event.Site); err != nil {
		log.Warn().Err(err).Str("site", event.Site).Str("event_id", event.ID).Msg("Failed to invalidate site cache")
		return
	}
	log.Debug().Str("site", event.Site).Str("report_id", event.ReportID).Msg("Invalidated site cache")
}

// InvalidateSite deletes every cached entry derived from a site's history
func (s *CacheInvalidationService) InvalidateSite(ctx context.Context, site string) error {
	site = entities.SiteKey(site)

	var keys []string
	for _, fn := range s.keyFuncs {
		keys = append(keys, fn(site)...)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete %d cache keys: %w", len(keys), err)
	}
	return nil
}
