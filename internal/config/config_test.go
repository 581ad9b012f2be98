package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "OPENMETEO_BASE_URL", "PIRATE_WEATHER_API_KEY", "PIRATE_WEATHER_BASE_URL",
		"PIRATE_WEATHER_RPS", "PIRATE_WEATHER_BURST", "NWS_ENABLED", "NWS_BASE_URL", "CACHE_MAX_SIZE", "CACHE_TTL",
		"WARM_CITIES", "WARM_INTERVAL", "GEOCODER_API_KEY", "LOG_LEVEL", "LOG_DEV",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.CacheMaxSize != 100 || cfg.CacheTTL != 600*time.Second {
		t.Fatalf("unexpected cache defaults: %d / %s", cfg.CacheMaxSize, cfg.CacheTTL)
	}
	if cfg.PirateWeatherEnabled() {
		t.Fatalf("PirateWeather must be disabled without a key")
	}
	if !cfg.NWSEnabled || cfg.NWSBaseURL != "" {
		t.Fatalf("expected the NWS fallback enabled by default")
	}
	if len(cfg.WarmCities) != 0 {
		t.Fatalf("expected no warm cities, got %v", cfg.WarmCities)
	}
	if cfg.LogLevel != "info" || cfg.LogDev {
		t.Fatalf("unexpected log settings: %q / %v", cfg.LogLevel, cfg.LogDev)
	}
}

func TestLoadPlaceholderKeyIsAbsent(t *testing.T) {
	clearEnv(t)
	t.Setenv("PIRATE_WEATHER_API_KEY", "YOUR_API_KEY_HERE")
	t.Setenv("GEOCODER_API_KEY", "YOUR_API_KEY_HERE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PirateWeatherEnabled() || cfg.GeocoderAPIKey != "" {
		t.Fatalf("placeholder credentials must be treated as absent")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("PIRATE_WEATHER_API_KEY", " real-key ")
	t.Setenv("PIRATE_WEATHER_RPS", "2.5")
	t.Setenv("PIRATE_WEATHER_BURST", "3")
	t.Setenv("CACHE_MAX_SIZE", "50")
	t.Setenv("CACHE_TTL", "120")
	t.Setenv("WARM_CITIES", "chicago, london")
	t.Setenv("WARM_INTERVAL", "5m")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("NWS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "3000" || cfg.PirateWeatherAPIKey != "real-key" {
		t.Fatalf("unexpected port/key: %q / %q", cfg.Port, cfg.PirateWeatherAPIKey)
	}
	if cfg.PirateWeatherRPS != 2.5 || cfg.PirateWeatherBurst != 3 {
		t.Fatalf("unexpected rate limit: %v / %d", cfg.PirateWeatherRPS, cfg.PirateWeatherBurst)
	}
	if cfg.CacheMaxSize != 50 || cfg.CacheTTL != 2*time.Minute {
		t.Fatalf("unexpected cache config: %d / %s", cfg.CacheMaxSize, cfg.CacheTTL)
	}
	if len(cfg.WarmCities) != 2 || cfg.WarmCities[1] != "london" || cfg.WarmInterval != 5*time.Minute {
		t.Fatalf("unexpected warm config: %v / %s", cfg.WarmCities, cfg.WarmInterval)
	}
	if !cfg.LogDev {
		t.Fatalf("expected development logging")
	}
	if cfg.NWSEnabled {
		t.Fatalf("expected the NWS fallback disabled")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CACHE_TTL":          "soon",
		"WARM_INTERVAL":      "-1m",
		"PIRATE_WEATHER_RPS": "fast",
		"CACHE_MAX_SIZE":     "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}
