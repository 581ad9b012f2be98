package weather

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager holds the registered providers and their primary/fallback ordering,
// and executes failover across them.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string // empty when unset
	fallbacks []string

	logger *zap.Logger
}

// NewManager creates an empty Manager. A nil logger disables logging.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// Register adds p. The first provider registered this way becomes primary.
func (m *Manager) Register(p Provider) {
	name := p.Name()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.providers[name] = p
	if m.primary == "" {
		m.primary = name
		m.fallbacks = without(m.fallbacks, name)
	}
	m.logger.Info("registered provider", zap.String("provider", name), zap.Bool("primary", m.primary == name))
}

// RegisterFallback adds p and appends it to the fallback order. It never
// becomes primary on its own.
func (m *Manager) RegisterFallback(p Provider) {
	name := p.Name()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.providers[name] = p
	if name != m.primary && !contains(m.fallbacks, name) {
		m.fallbacks = append(m.fallbacks, name)
	}
	m.logger.Info("registered fallback provider", zap.String("provider", name))
}

// attempt is one provider to try, resolved under the read lock.
type attempt struct {
	name     string
	provider Provider
	role     string
}

// plan snapshots the current ordering so no lock is held during network calls.
func (m *Manager) plan() []attempt {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order := make([]attempt, 0, len(m.fallbacks)+1)
	if p, ok := m.providers[m.primary]; ok && m.primary != "" {
		order = append(order, attempt{name: m.primary, provider: p, role: "primary"})
	}
	for _, name := range m.fallbacks {
		if p, ok := m.providers[name]; ok {
			order = append(order, attempt{name: name, provider: p, role: "fallback"})
		}
	}
	return order
}

// GetWeather tries the primary, then each fallback in order, and returns the
// first successful result. Each provider gets exactly one attempt, bounded by
// its own timeout.
func (m *Manager) GetWeather(ctx context.Context, lat, lon float64, locationName string) (WeatherData, error) {
	failed := &AllProvidersFailedError{}

	for _, a := range m.plan() {
		if err := ctx.Err(); err != nil {
			m.logger.Warn("weather lookup abandoned", zap.String("location", locationName), zap.Error(err))
			failed.Failures = append(failed.Failures, ProviderFailure{Provider: a.name, Err: err})
			return WeatherData{}, failed
		}

		m.logger.Info("trying provider",
			zap.String("provider", a.name),
			zap.String("role", a.role),
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
		)

		data, err := m.try(ctx, a.provider, lat, lon, locationName)
		if err == nil {
			return data, nil
		}

		m.logger.Warn("provider failed",
			zap.String("provider", a.name),
			zap.String("role", a.role),
			zap.Error(err),
		)
		failed.Failures = append(failed.Failures, ProviderFailure{Provider: a.name, Err: err})
	}

	m.logger.Error("all weather providers failed", zap.String("location", locationName), zap.Int("attempts", len(failed.Failures)))
	return WeatherData{}, failed
}

func (m *Manager) try(ctx context.Context, p Provider, lat, lon float64, locationName string) (WeatherData, error) {
	timeout := time.Duration(p.Info().Timeout) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return p.GetWeather(attemptCtx, lat, lon, locationName)
}

// SwitchPrimary makes name the primary provider. The previous primary is
// demoted to the end of the fallback list.
func (m *Manager) SwitchPrimary(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.providers[name]; !ok {
		return &ProviderNotFoundError{Name: name, Available: m.namesLocked()}
	}

	fallbacks := make([]string, 0, len(m.fallbacks)+1)
	fallbacks = append(fallbacks, m.fallbacks...)
	if m.primary != "" && !contains(fallbacks, m.primary) {
		fallbacks = append(fallbacks, m.primary)
	}

	m.primary = name
	m.fallbacks = without(fallbacks, name)

	m.logger.Info("switched primary provider", zap.String("provider", name), zap.Strings("fallbacks", m.fallbacks))
	return nil
}

// GetProviderInfo returns a snapshot of the ordering and provider metadata.
func (m *Manager) GetProviderInfo() ProviderSystemInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := ProviderSystemInfo{
		Fallbacks: append([]string{}, m.fallbacks...),
		Providers: make(map[string]ProviderInfo, len(m.providers)),
	}
	if m.primary != "" {
		primary := m.primary
		info.Primary = &primary
	}
	for name, p := range m.providers {
		info.Providers[name] = p.Info()
	}
	return info
}

// GetAvailableProviderNames returns every registered provider name, sorted.
func (m *Manager) GetAvailableProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.namesLocked()
}

func (m *Manager) namesLocked() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func without(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
