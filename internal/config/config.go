package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-gateway/internal/common"
)

type AppConfig struct {
	Port string

	OpenMeteoBaseURL string

	// PirateWeatherAPIKey is empty when unset or a placeholder.
	PirateWeatherAPIKey  string
	PirateWeatherBaseURL string
	PirateWeatherRPS     float64 // 0 disables rate limiting
	PirateWeatherBurst   int

	// NWSEnabled registers the keyless, US-only National Weather Service fallback.
	NWSEnabled bool
	NWSBaseURL string

	CacheMaxSize int
	CacheTTL     time.Duration

	// WarmCities are pre-fetched every WarmInterval; empty disables warming.
	WarmCities   []string
	WarmInterval time.Duration

	GeocoderAPIKey string

	LogLevel string
	LogDev   bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.OpenMeteoBaseURL = os.Getenv("OPENMETEO_BASE_URL")

	cfg.PirateWeatherAPIKey = credential("PIRATE_WEATHER_API_KEY")
	cfg.PirateWeatherBaseURL = os.Getenv("PIRATE_WEATHER_BASE_URL")

	rps, err := getenvFloat("PIRATE_WEATHER_RPS", 0)
	if err != nil {
		return nil, err
	}
	if rps < 0 {
		return nil, fmt.Errorf("invalid PIRATE_WEATHER_RPS: must not be negative")
	}
	cfg.PirateWeatherRPS = rps
	cfg.PirateWeatherBurst = getenvInt("PIRATE_WEATHER_BURST", 1)

	cfg.NWSEnabled = getenvBool("NWS_ENABLED", true)
	cfg.NWSBaseURL = os.Getenv("NWS_BASE_URL")

	cfg.CacheMaxSize = getenvInt("CACHE_MAX_SIZE", 100)
	if cfg.CacheMaxSize <= 0 {
		return nil, fmt.Errorf("invalid CACHE_MAX_SIZE: must be positive")
	}

	// CACHE_TTL accepts a duration ("10m") or plain seconds ("600").
	ttl, err := getenvDuration("CACHE_TTL", 600*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = ttl

	cfg.WarmCities = common.SplitList(os.Getenv("WARM_CITIES"))
	interval, err := getenvDuration("WARM_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.WarmInterval = interval

	cfg.GeocoderAPIKey = credential("GEOCODER_API_KEY")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogDev = getenvBool("LOG_DEV", false)

	return cfg, nil
}

// PirateWeatherEnabled reports whether a usable credential was supplied.
func (c *AppConfig) PirateWeatherEnabled() bool {
	return c.PirateWeatherAPIKey != ""
}

func credential(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if common.IsPlaceholder(v) {
		return ""
	}
	return v
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		v = strconv.Itoa(secs) + "s"
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
