package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-gateway/internal/api/http"
	"github.com/i474232898/weather-gateway/internal/config"
	"github.com/i474232898/weather-gateway/internal/locations"
	"github.com/i474232898/weather-gateway/internal/logging"
	"github.com/i474232898/weather-gateway/internal/scheduler"
	"github.com/i474232898/weather-gateway/internal/store"
	"github.com/i474232898/weather-gateway/internal/weather"
	"github.com/i474232898/weather-gateway/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Shared HTTP client for outbound provider calls.
	httpClient := providers.NewHTTPClient(weather.DefaultTimeout)

	// Open-Meteo needs no credential and is always the initial primary.
	manager := weather.NewManager(zlog)
	manager.Register(providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoBaseURL))

	if cfg.PirateWeatherEnabled() {
		var pirate weather.Provider = providers.NewPirateWeatherProvider(httpClient, cfg.PirateWeatherBaseURL, cfg.PirateWeatherAPIKey)
		if cfg.PirateWeatherRPS > 0 {
			pirate = providers.NewRateLimited(pirate, cfg.PirateWeatherRPS, cfg.PirateWeatherBurst)
		}
		manager.RegisterFallback(pirate)
	} else {
		zlog.Warn("PIRATE_WEATHER_API_KEY not set; skipping the PirateWeather fallback")
	}

	// NWS covers US coordinates only; elsewhere it fails over like any other error.
	if cfg.NWSEnabled {
		manager.RegisterFallback(providers.NewNWSProvider(httpClient, cfg.NWSBaseURL))
	}

	cache := store.NewWeatherCache(cfg.CacheMaxSize, cfg.CacheTTL)
	service := weather.NewService(manager, cache, zlog)

	var geo locations.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geo = locations.NewGoogleGeocoder(cfg.GeocoderAPIKey, "")
	}
	resolver := locations.NewResolver(geo, zlog)

	// Scheduler that periodically pre-warms the cache.
	sched := scheduler.New(warmPlaces(cfg.WarmCities, resolver, zlog), cfg.WarmInterval, service, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-gateway",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Failover can take one provider timeout per registered provider.
		WriteTimeout: 30 * time.Second,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New())

	// API routes.
	httpapi.RegisterRoutes(app, service, resolver, cache, zlog)

	go func() {
		zlog.Info("listening",
			zap.String("port", cfg.Port),
			zap.Strings("providers", manager.GetAvailableProviderNames()))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}

// warmPlaces resolves WARM_CITIES, skipping names that cannot be resolved.
func warmPlaces(cities []string, resolver *locations.Resolver, zlog *zap.Logger) []locations.Place {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	places := make([]locations.Place, 0, len(cities))
	for _, city := range cities {
		p, err := resolver.Resolve(ctx, city)
		if err != nil {
			zlog.Warn("skipping warm city", zap.String("city", city), zap.Error(err))
			continue
		}
		places = append(places, p)
	}
	return places
}
