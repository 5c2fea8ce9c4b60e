package livedata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/tripguard/tripguard/internal/travelrisk"
)

// Provider defines the interface for live data sources.
type Provider interface {
	// GetConditions fetches the conditions for one trip query.
	GetConditions(ctx context.Context, q Query) (*travelrisk.LiveConditions, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the live data service.
type ServiceConfig struct {
	// Provider is the live data source.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long fetched conditions are served from cache
	// (default: 15 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale conditions when the provider
	// fails (default: 2 hours).
	StaleIfErrorTTL time.Duration

	// Meter records provider and cache metrics. Nil disables them.
	Meter metric.Meter
}

// Service provides live conditions with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	metrics         *providerMetrics

	inflight singleflight.Group

	mu              sync.RWMutex
	cache           map[string]*cachedConditions
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedConditions struct {
	conditions *travelrisk.LiveConditions
	fetchedAt  time.Time
	expiresAt  time.Time
}

// NewService creates a new live data service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 2 * time.Hour
	}

	metrics, err := newProviderMetrics(cfg.Meter)
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("live data metrics disabled")
		metrics, _ = newProviderMetrics(nil)
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		metrics:         metrics,
		cache:           make(map[string]*cachedConditions),
		cleanupInterval: 5 * time.Minute,
	}
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// GetConditions returns live conditions for a query, from cache when fresh.
// The returned value is a copy the caller may modify.
func (s *Service) GetConditions(ctx context.Context, q Query) (*travelrisk.LiveConditions, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := q.Key()

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.metrics.recordCacheHit(s.provider.Name())
		return copyConditions(cached.conditions), nil
	}
	s.mu.RUnlock()
	s.metrics.recordCacheMiss(s.provider.Name())

	return s.fetch(ctx, q, key, false)
}

// Refresh fetches a query from the provider regardless of cache freshness.
// Provider failures are returned rather than masked by stale data.
func (s *Service) Refresh(ctx context.Context, q Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	_, err := s.fetch(ctx, q, q.Key(), true)
	return err
}

// fetch calls the provider without holding the cache lock. Concurrent
// fetches of one key share a single provider call; distinct keys proceed
// in parallel.
func (s *Service) fetch(ctx context.Context, q Query, key string, force bool) (*travelrisk.LiveConditions, error) {
	op := opGet
	if force {
		op = opRefresh
	}

	v, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		return s.fetchAndStore(ctx, q, key, op)
	})
	if err == nil {
		if shared {
			s.logger.Debug().Str("key", key).Msg("joined in-flight live data fetch")
		}
		return copyConditions(v.(*travelrisk.LiveConditions)), nil
	}

	if errors.Is(err, ErrNoDataForDistrict) {
		return nil, err
	}

	s.logger.Error().Err(err).
		Str("from", q.FromDistrict).
		Str("to", q.ToDistrict).
		Msg("failed to fetch live conditions")

	if !force {
		s.mu.RLock()
		cached, ok := s.cache[key]
		s.mu.RUnlock()
		if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale live conditions due to provider error")
			s.metrics.recordStale(s.provider.Name())
			return copyConditions(cached.conditions), nil
		}
	}

	// The cause is kept as text only, so provider-side validation failures
	// never read as caller input errors.
	return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

// fetchAndStore runs one provider call and caches its result. The stored
// value is never handed out directly.
func (s *Service) fetchAndStore(ctx context.Context, q Query, key, op string) (*travelrisk.LiveConditions, error) {
	s.logger.Debug().
		Str("from", q.FromDistrict).
		Str("to", q.ToDistrict).
		Str("provider", s.provider.Name()).
		Msg("fetching live conditions from provider")

	start := time.Now()
	conditions, err := s.provider.GetConditions(ctx, q)
	s.metrics.recordRequest(s.provider.Name(), op, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	stored := copyConditions(conditions)
	now := time.Now()

	s.mu.Lock()
	s.cache[key] = &cachedConditions{
		conditions: stored,
		fetchedAt:  now,
		expiresAt:  now.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded()
	s.mu.Unlock()

	return stored, nil
}

// cleanupIfNeeded drops entries too old to serve even as stale data.
// Callers hold s.mu.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired live data cache entries")
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedConditions)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		}
	}

	return CacheStats{
		Entries:      len(s.cache),
		FreshEntries: fresh,
		Provider:     s.provider.Name(),
	}
}

func copyConditions(c *travelrisk.LiveConditions) *travelrisk.LiveConditions {
	if c == nil {
		return nil
	}
	cpy := *c
	cpy.Weather.To.Alerts = append([]string(nil), c.Weather.To.Alerts...)
	cpy.Weather.Route.FloodProneSegments = append([]string(nil), c.Weather.Route.FloodProneSegments...)
	cpy.Infrastructure.HospitalsTo = append([]travelrisk.Hospital(nil), c.Infrastructure.HospitalsTo...)
	cpy.Infrastructure.PharmaciesTo = append([]travelrisk.Pharmacy(nil), c.Infrastructure.PharmaciesTo...)
	return &cpy
}
