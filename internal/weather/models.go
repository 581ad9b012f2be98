package weather

import "fmt"

// Caps on forecast lengths in a normalized snapshot.
const (
	MaxHourly = 24
	MaxDaily  = 7
)

// WeatherData is the canonical, provider-agnostic snapshot served to clients.
// Temperatures are Fahrenheit, wind is mph and precipitation is inches,
// whatever the source provider.
type WeatherData struct {
	Current  CurrentWeather   `json:"current"`
	Hourly   []HourlyForecast `json:"hourly"`
	Daily    []DailyForecast  `json:"daily"`
	Location string           `json:"location"`
	Provider string           `json:"provider"`
}

// CurrentWeather holds the conditions at fetch time.
type CurrentWeather struct {
	Temperature       int     `json:"temperature"`
	FeelsLike         int     `json:"feels_like"`
	Humidity          int     `json:"humidity"`
	WindSpeed         int     `json:"wind_speed"`
	UVIndex           float64 `json:"uv_index"`
	PrecipitationRate float64 `json:"precipitation_rate"`
	PrecipitationProb int     `json:"precipitation_prob"`
	// PrecipitationType is nil when nothing is falling.
	PrecipitationType *string `json:"precipitation_type,omitempty"`
	Icon              string  `json:"icon"`
	Summary           string  `json:"summary"`
}

// HourlyForecast is one hour of the next-day outlook.
type HourlyForecast struct {
	Temp int    `json:"temp"`
	Icon string `json:"icon"`
	Rain int    `json:"rain"` // probability, 0-100
	T    string `json:"t"`    // "3pm"
	Desc string `json:"desc"`
}

// DailyForecast is one day of the week outlook.
type DailyForecast struct {
	H    int    `json:"h"`
	L    int    `json:"l"`
	Icon string `json:"icon"`
	D    string `json:"d"` // "Mon"
}

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Name        string `json:"name"`
	Timeout     int    `json:"timeout"` // seconds
	Description string `json:"description"`
}

// ProviderSystemInfo is a point-in-time view of the manager's ordering.
type ProviderSystemInfo struct {
	Primary   *string                 `json:"primary"`
	Fallbacks []string                `json:"fallbacks"`
	Providers map[string]ProviderInfo `json:"providers"`
}

// CacheKey returns the coordinate fingerprint used to key cached snapshots.
// The display name is deliberately not part of the key.
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// WithLocation returns a copy of d carrying a different display name.
func (d WeatherData) WithLocation(name string) WeatherData {
	d.Location = name
	return d
}

// StringPtr is a small helper for optional string fields.
func StringPtr(s string) *string {
	return &s
}
