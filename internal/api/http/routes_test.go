package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-gateway/internal/store"
	"github.com/i474232898/weather-gateway/internal/weather"
)

type stubProvider struct {
	name string
	fail bool
}

func (s *stubProvider) Name() string               { return s.name }
func (s *stubProvider) Description() string        { return s.name + " stub" }
func (s *stubProvider) Info() weather.ProviderInfo { return weather.InfoFor(s) }

func (s *stubProvider) FetchRaw(ctx context.Context, lat, lon float64) (weather.RawPayload, error) {
	if s.fail {
		return nil, &weather.UpstreamError{Provider: s.name, StatusCode: 503, Err: errors.New("unavailable")}
	}
	return weather.RawPayload(`{}`), nil
}

func (s *stubProvider) Normalize(raw weather.RawPayload, locationName string) (weather.WeatherData, error) {
	return weather.WeatherData{
		Current:  weather.CurrentWeather{Temperature: 72, Icon: "clear-day"},
		Hourly:   []weather.HourlyForecast{},
		Daily:    []weather.DailyForecast{},
		Location: locationName,
		Provider: s.name,
	}, nil
}

func (s *stubProvider) GetWeather(ctx context.Context, lat, lon float64, locationName string) (weather.WeatherData, error) {
	return weather.GetWeather(ctx, s, lat, lon, locationName)
}

func newTestApp(t *testing.T, provs ...*stubProvider) (*fiber.App, *store.WeatherCache) {
	t.Helper()

	m := weather.NewManager(nil)
	for i, p := range provs {
		if i == 0 {
			m.Register(p)
		} else {
			m.RegisterFallback(p)
		}
	}
	cache := store.NewWeatherCache(10, time.Minute)
	svc := weather.NewService(m, cache, nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc, nil, cache, nil)
	return app, cache
}

func do(t *testing.T, app *fiber.App, req *http.Request, wantStatus int) map[string]any {
	t.Helper()

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, resp.StatusCode, body)
	}

	out := map[string]any{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", body, err)
	}
	return out
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	out := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil), http.StatusOK)
	if out["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", out)
	}
}

func TestWeatherDefaultsToChicago(t *testing.T) {
	app, cache := newTestApp(t, &stubProvider{name: "OpenMeteo"})

	out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather", nil), http.StatusOK)
	if out["location"] != "Chicago" || out["provider"] != "OpenMeteo" {
		t.Fatalf("unexpected body: %v", out)
	}
	current, _ := out["current"].(map[string]any)
	if _, present := current["precipitation_type"]; present {
		t.Fatalf("absent precipitation type must be omitted, got %v", current)
	}

	stats := cache.Stats()
	if stats.Count != 1 || stats.Keys[0] != "41.8781,-87.6298" {
		t.Fatalf("unexpected cache state: %+v", stats)
	}
}

func TestWeatherCachedLocationIsPatched(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{name: "OpenMeteo"})

	do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather?lat=51.5074&lon=-0.1278&location=London", nil), http.StatusOK)
	out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather?lat=51.5074&lon=-0.1278&location=Greenwich", nil), http.StatusOK)
	if out["location"] != "Greenwich" {
		t.Fatalf("expected patched location, got %v", out["location"])
	}
}

func TestWeatherByCity(t *testing.T) {
	app, cache := newTestApp(t, &stubProvider{name: "OpenMeteo"})

	out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather?city=tokyo", nil), http.StatusOK)
	if out["location"] != "Tokyo" {
		t.Fatalf("unexpected location: %v", out["location"])
	}
	if _, ok := cache.Get("35.6762,139.6503"); !ok {
		t.Fatalf("expected Tokyo coordinates cached")
	}
}

func TestWeatherUnknownCity(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{name: "OpenMeteo"})

	out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather?city=atlantis", nil), http.StatusNotFound)
	if out["error"] != "City 'atlantis' not found" {
		t.Fatalf("unexpected error: %v", out["error"])
	}
	if cities, _ := out["available_cities"].([]any); len(cities) != 10 {
		t.Fatalf("expected 10 available cities, got %v", out["available_cities"])
	}
}

func TestWeatherValidation(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{name: "OpenMeteo"})

	for _, query := range []string{"lat=91", "lon=-181", "lat=abc", "lat=NaN"} {
		out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather?"+query, nil), http.StatusBadRequest)
		if _, ok := out["error"]; !ok {
			t.Fatalf("%s: expected error body, got %v", query, out)
		}
	}
}

func TestWeatherAllProvidersFail(t *testing.T) {
	app, cache := newTestApp(t, &stubProvider{name: "A", fail: true}, &stubProvider{name: "B", fail: true})

	out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather", nil), http.StatusInternalServerError)
	if out["error"] != "Failed to fetch weather data from all sources" {
		t.Fatalf("unexpected error: %v", out["error"])
	}
	if cache.Stats().Count != 0 {
		t.Fatalf("failures must not be cached")
	}
}

func TestWeatherFailover(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{name: "OpenMeteo", fail: true}, &stubProvider{name: "PirateWeather"})

	out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather", nil), http.StatusOK)
	if out["provider"] != "PirateWeather" {
		t.Fatalf("expected fallback attribution, got %v", out["provider"])
	}
}

func TestProviders(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{name: "OpenMeteo"}, &stubProvider{name: "PirateWeather"})

	out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/providers", nil), http.StatusOK)
	if out["primary"] != "OpenMeteo" {
		t.Fatalf("unexpected primary: %v", out["primary"])
	}
	fallbacks, _ := out["fallbacks"].([]any)
	if len(fallbacks) != 1 || fallbacks[0] != "PirateWeather" {
		t.Fatalf("unexpected fallbacks: %v", out["fallbacks"])
	}
	provs, _ := out["providers"].(map[string]any)
	info, _ := provs["PirateWeather"].(map[string]any)
	if info["timeout"] != float64(10) {
		t.Fatalf("unexpected provider info: %v", info)
	}
}

func switchReq(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/providers/switch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSwitchProvider(t *testing.T) {
	app, cache := newTestApp(t, &stubProvider{name: "OpenMeteo"}, &stubProvider{name: "PirateWeather"})

	do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather", nil), http.StatusOK)

	out := do(t, app, switchReq(`{"provider":"PirateWeather"}`), http.StatusOK)
	if out["success"] != true || out["message"] != "Switched to PirateWeather provider" {
		t.Fatalf("unexpected body: %v", out)
	}
	info, _ := out["provider_info"].(map[string]any)
	if info["primary"] != "PirateWeather" {
		t.Fatalf("unexpected provider_info: %v", info)
	}
	if cache.Stats().Count != 0 {
		t.Fatalf("expected cache cleared after switch")
	}

	weatherOut := do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather", nil), http.StatusOK)
	if weatherOut["provider"] != "PirateWeather" {
		t.Fatalf("expected new primary to serve, got %v", weatherOut["provider"])
	}
}

func TestSwitchProviderUnknown(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{name: "OpenMeteo"}, &stubProvider{name: "PirateWeather"})

	out := do(t, app, switchReq(`{"provider":"AccuWeather"}`), http.StatusBadRequest)
	if out["success"] != false || out["error"] != "Provider AccuWeather not found" {
		t.Fatalf("unexpected body: %v", out)
	}
	avail, _ := out["available_providers"].([]any)
	if len(avail) != 2 || avail[0] != "OpenMeteo" || avail[1] != "PirateWeather" {
		t.Fatalf("unexpected available providers: %v", out["available_providers"])
	}
}

func TestSwitchProviderMissingName(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{name: "OpenMeteo"})

	do(t, app, switchReq(`{}`), http.StatusBadRequest)
	do(t, app, switchReq(`not json`), http.StatusBadRequest)
}

func TestCacheStats(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{name: "OpenMeteo"})

	do(t, app, httptest.NewRequest(http.MethodGet, "/api/weather?city=paris", nil), http.StatusOK)

	out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil), http.StatusOK)
	if out["cache_size"] != float64(1) || out["max_size"] != float64(10) || out["ttl_seconds"] != float64(60) {
		t.Fatalf("unexpected stats: %v", out)
	}
	keys, _ := out["cached_locations"].([]any)
	if len(keys) != 1 || keys[0] != "48.8566,2.3522" {
		t.Fatalf("unexpected cached locations: %v", out["cached_locations"])
	}
}

func TestCities(t *testing.T) {
	app, _ := newTestApp(t)

	out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/cities", nil), http.StatusOK)
	cities, _ := out["cities"].([]any)
	if len(cities) != 10 {
		t.Fatalf("expected 10 cities, got %d", len(cities))
	}
}
