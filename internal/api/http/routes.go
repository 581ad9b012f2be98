package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-gateway/internal/locations"
	"github.com/i474232898/weather-gateway/internal/store"
	"github.com/i474232898/weather-gateway/internal/weather"
)

const fetchFailedMessage = "Failed to fetch weather data from all sources"

var validate = validator.New()

// StatsSource exposes cache statistics.
type StatsSource interface {
	Stats() store.Stats
}

type handlers struct {
	service  *weather.Service
	resolver *locations.Resolver
	cache    StatsSource
	logger   *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, resolver *locations.Resolver, cache StatsSource, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = locations.NewResolver(nil, logger)
	}
	h := &handlers{
		service:  service,
		resolver: resolver,
		cache:    cache,
		logger:   logger,
	}

	app.Get("/health", h.health)

	api := app.Group("/api")
	api.Get("/weather", h.getWeather)
	api.Get("/providers", h.providers)
	api.Post("/providers/switch", h.switchProvider)
	api.Get("/cache/stats", h.cacheStats)
	api.Get("/cities", h.cities)
}

// ErrorHandler renders every unhandled error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "weather-gateway",
	})
}

func (h *handlers) getWeather(c *fiber.Ctx) error {
	q, err := parseWeatherQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if q.City != "" {
		place, err := h.resolver.Resolve(c.UserContext(), q.City)
		if err != nil {
			if errors.Is(err, locations.ErrUnknownCity) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error":            fmt.Sprintf("City '%s' not found", q.City),
					"available_cities": locations.KnownKeys(),
				})
			}
			return err
		}
		q.Lat, q.Lon = place.Lat, place.Lon
		if q.Location == "" {
			q.Location = place.Name
		}
	}
	if q.Location == "" {
		q.Location = locations.DefaultName
	}

	data, err := h.service.Lookup(c.UserContext(), q.Lat, q.Lon, q.Location)
	if err != nil {
		h.logger.Error("weather lookup failed",
			zap.Float64("lat", q.Lat),
			zap.Float64("lon", q.Lon),
			zap.String("location", q.Location),
			zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, fetchFailedMessage)
	}

	return c.JSON(data)
}

func (h *handlers) providers(c *fiber.Ctx) error {
	return c.JSON(h.service.ProviderInfo())
}

func (h *handlers) switchProvider(c *fiber.Ctx) error {
	var req switchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	info, err := h.service.SwitchProvider(req.Provider)
	if err != nil {
		var nf *weather.ProviderNotFoundError
		if errors.As(err, &nf) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":             false,
				"error":               fmt.Sprintf("Provider %s not found", req.Provider),
				"available_providers": nf.Available,
			})
		}
		return err
	}

	h.logger.Info("switched primary provider", zap.String("provider", req.Provider))
	return c.JSON(fiber.Map{
		"success":       true,
		"message":       fmt.Sprintf("Switched to %s provider", req.Provider),
		"provider_info": info,
	})
}

func (h *handlers) cacheStats(c *fiber.Ctx) error {
	return c.JSON(h.cache.Stats())
}

func (h *handlers) cities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"cities": locations.Known(),
	})
}

// weatherQuery holds query parameters for the weather endpoint.
type weatherQuery struct {
	Lat      float64 `validate:"gte=-90,lte=90"`
	Lon      float64 `validate:"gte=-180,lte=180"`
	Location string  `validate:"max=100"`
	City     string  `validate:"max=100"`
}

func parseWeatherQuery(c *fiber.Ctx) (weatherQuery, error) {
	// Query values alias fasthttp buffers; the location name outlives the request in the cache.
	q := weatherQuery{
		Location: strings.Clone(c.Query("location")),
		City:     strings.Clone(c.Query("city")),
	}

	var err error
	if q.Lat, err = floatQuery(c, "lat", locations.DefaultLat); err != nil {
		return q, err
	}
	if q.Lon, err = floatQuery(c, "lon", locations.DefaultLon); err != nil {
		return q, err
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func floatQuery(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not a number", key, raw)
	}
	return f, nil
}

// switchRequest is the body of POST /api/providers/switch.
type switchRequest struct {
	Provider string `json:"provider" validate:"required"`
}
