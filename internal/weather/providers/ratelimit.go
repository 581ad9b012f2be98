package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-gateway/internal/weather"
)

// RateLimitedProvider throttles outbound calls of the wrapped provider.
// It keeps the wrapped provider's name so switching by name is unaffected.
type RateLimitedProvider struct {
	provider weather.Provider
	limiter  *rate.Limiter
}

var _ weather.Provider = (*RateLimitedProvider)(nil)

// NewRateLimited allows rps requests per second with the given burst.
func NewRateLimited(p weather.Provider, rps float64, burst int) *RateLimitedProvider {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{
		provider: p,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Description() string {
	return r.provider.Description()
}

func (r *RateLimitedProvider) Info() weather.ProviderInfo {
	return r.provider.Info()
}

// FetchRaw waits for a token before delegating. A wait that cannot finish
// within ctx counts as an upstream failure.
func (r *RateLimitedProvider) FetchRaw(ctx context.Context, lat, lon float64) (weather.RawPayload, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &weather.UpstreamError{Provider: r.Name(), Err: fmt.Errorf("rate limit: %w", err)}
	}
	return r.provider.FetchRaw(ctx, lat, lon)
}

func (r *RateLimitedProvider) Normalize(raw weather.RawPayload, locationName string) (weather.WeatherData, error) {
	return r.provider.Normalize(raw, locationName)
}

func (r *RateLimitedProvider) GetWeather(ctx context.Context, lat, lon float64, locationName string) (weather.WeatherData, error) {
	return weather.GetWeather(ctx, r, lat, lon, locationName)
}
