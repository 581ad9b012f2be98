package weather

import (
	"context"
	"time"
)

// DefaultTimeout bounds every provider call.
const DefaultTimeout = 10 * time.Second

// RawPayload is an upstream response body, still in the provider's own schema.
type RawPayload []byte

// Provider abstracts one upstream weather API (e.g. Open-Meteo, PirateWeather).
type Provider interface {
	Name() string
	Description() string
	FetchRaw(ctx context.Context, lat, lon float64) (RawPayload, error)
	Normalize(raw RawPayload, locationName string) (WeatherData, error)
	GetWeather(ctx context.Context, lat, lon float64, locationName string) (WeatherData, error)
	Info() ProviderInfo
}

// Source is the part of a Provider that differs between implementations.
type Source interface {
	Name() string
	Description() string
	FetchRaw(ctx context.Context, lat, lon float64) (RawPayload, error)
	Normalize(raw RawPayload, locationName string) (WeatherData, error)
}

// GetWeather fetches from src and normalizes the result, stopping at the first error.
func GetWeather(ctx context.Context, src Source, lat, lon float64, locationName string) (WeatherData, error) {
	raw, err := src.FetchRaw(ctx, lat, lon)
	if err != nil {
		return WeatherData{}, err
	}
	return src.Normalize(raw, locationName)
}

// InfoFor builds the metadata every provider reports.
func InfoFor(src Source) ProviderInfo {
	return ProviderInfo{
		Name:        src.Name(),
		Timeout:     int(DefaultTimeout / time.Second),
		Description: src.Description(),
	}
}

// Cache is the contract the weather cache must satisfy.
type Cache interface {
	Get(key string) (WeatherData, bool)
	Set(key string, value WeatherData)
	Clear()
}
