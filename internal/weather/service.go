package weather

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service puts the cache in front of the provider manager.
type Service struct {
	manager *Manager
	cache   Cache
	logger  *zap.Logger
}

// NewService creates a new Service.
func NewService(manager *Manager, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		manager: manager,
		cache:   cache,
		logger:  logger,
	}
}

// Lookup returns weather for the coordinates, serving from cache when possible.
// Cached snapshots are keyed by coordinates only, so the display name is
// patched in on every hit.
func (s *Service) Lookup(ctx context.Context, lat, lon float64, locationName string) (WeatherData, error) {
	key := CacheKey(lat, lon)

	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("cache hit", zap.String("key", key), zap.String("location", locationName))
		return cached.WithLocation(locationName), nil
	}

	s.logger.Debug("cache miss", zap.String("key", key), zap.String("location", locationName))
	return s.fetchAndStore(ctx, key, lat, lon, locationName)
}

// Refresh fetches fresh data regardless of the cache and stores it.
func (s *Service) Refresh(ctx context.Context, lat, lon float64, locationName string) error {
	_, err := s.fetchAndStore(ctx, CacheKey(lat, lon), lat, lon, locationName)
	return err
}

func (s *Service) fetchAndStore(ctx context.Context, key string, lat, lon float64, locationName string) (WeatherData, error) {
	data, err := s.manager.GetWeather(ctx, lat, lon, locationName)
	if err != nil {
		return WeatherData{}, fmt.Errorf("fetch weather for %s: %w", key, err)
	}

	// A cancelled request may still have produced data; it is not cached.
	if ctx.Err() == nil {
		s.cache.Set(key, data)
		s.logger.Info("cached weather", zap.String("key", key), zap.String("provider", data.Provider))
	}
	return data, nil
}

// SwitchProvider promotes name to primary and invalidates the cache, since
// cached snapshots carry the old provider's attribution.
func (s *Service) SwitchProvider(name string) (ProviderSystemInfo, error) {
	if err := s.manager.SwitchPrimary(name); err != nil {
		return ProviderSystemInfo{}, err
	}
	s.cache.Clear()
	return s.manager.GetProviderInfo(), nil
}

// ProviderInfo delegates to the manager.
func (s *Service) ProviderInfo() ProviderSystemInfo {
	return s.manager.GetProviderInfo()
}

// AvailableProviders delegates to the manager.
func (s *Service) AvailableProviders() []string {
	return s.manager.GetAvailableProviderNames()
}
