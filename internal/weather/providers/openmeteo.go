package providers

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/i474232898/weather-gateway/internal/weather"
)

const (
	OpenMeteoName       = "OpenMeteo"
	DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"
)

var openMeteoParams = map[string]string{
	"current":            "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,weather_code,cloud_cover,wind_speed_10m,wind_direction_10m,uv_index",
	"hourly":             "temperature_2m,precipitation_probability,precipitation,weather_code,cloud_cover,wind_speed_10m",
	"daily":              "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max,uv_index_max",
	"temperature_unit":   "fahrenheit",
	"wind_speed_unit":    "mph",
	"precipitation_unit": "inch",
	"timezone":           "auto",
	"forecast_days":      "7",
}

// WMO weather interpretation codes.
var openMeteoIcons = map[int]string{
	0: "clear-day", 1: "clear-day", 2: "partly-cloudy-day", 3: "cloudy",
	45: "fog", 48: "fog",
	51: "light-rain", 53: "rain", 55: "heavy-rain",
	61: "light-rain", 63: "rain", 65: "heavy-rain",
	71: "light-snow", 73: "snow", 75: "heavy-snow",
	80: "light-rain", 81: "rain", 82: "heavy-rain",
	85: "light-snow", 86: "heavy-snow",
	95: "thunderstorm", 96: "thunderstorm", 99: "thunderstorm",
}

var openMeteoDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// OpenMeteoIcon maps a WMO code to an icon name, defaulting to "clear-day".
func OpenMeteoIcon(code int) string {
	if icon, ok := openMeteoIcons[code]; ok {
		return icon
	}
	return "clear-day"
}

// OpenMeteoDescription maps a WMO code to text, defaulting to "Unknown".
func OpenMeteoDescription(code int) string {
	if desc, ok := openMeteoDescriptions[code]; ok {
		return desc
	}
	return "Unknown"
}

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// No credential is required.
type OpenMeteoProvider struct {
	baseURL string
	client  *resty.Client
}

var _ weather.Provider = (*OpenMeteoProvider)(nil)

func NewOpenMeteoProvider(client *resty.Client, baseURL string) *OpenMeteoProvider {
	if client == nil {
		client = NewHTTPClient(weather.DefaultTimeout)
	}
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		baseURL: baseURL,
		client:  client,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return OpenMeteoName
}

func (p *OpenMeteoProvider) Description() string {
	return "Open-Meteo weather provider - free, accurate, European weather service"
}

func (p *OpenMeteoProvider) Info() weather.ProviderInfo {
	return weather.InfoFor(p)
}

func (p *OpenMeteoProvider) GetWeather(ctx context.Context, lat, lon float64, locationName string) (weather.WeatherData, error) {
	return weather.GetWeather(ctx, p, lat, lon, locationName)
}

// FetchRaw requests current, hourly and daily data already in imperial units.
func (p *OpenMeteoProvider) FetchRaw(ctx context.Context, lat, lon float64) (weather.RawPayload, error) {
	params := make(map[string]string, len(openMeteoParams)+2)
	for k, v := range openMeteoParams {
		params[k] = v
	}
	params["latitude"] = formatCoord(lat)
	params["longitude"] = formatCoord(lon)

	return fetchJSON(ctx, p.client, p.Name(), p.baseURL, params)
}

// Normalize maps an Open-Meteo payload into the canonical schema.
func (p *OpenMeteoProvider) Normalize(raw weather.RawPayload, locationName string) (weather.WeatherData, error) {
	root := gjson.ParseBytes(raw)

	current, ok := object(root, "current")
	if !ok {
		return weather.WeatherData{}, &weather.SchemaError{Provider: p.Name(), Section: "current"}
	}
	hourly, ok := object(root, "hourly")
	if !ok {
		return weather.WeatherData{}, &weather.SchemaError{Provider: p.Name(), Section: "hourly"}
	}
	daily, ok := object(root, "daily")
	if !ok {
		return weather.WeatherData{}, &weather.SchemaError{Provider: p.Name(), Section: "daily"}
	}

	loc := openMeteoZone(root)

	return weather.WeatherData{
		Current:  p.current(current),
		Hourly:   p.hourly(hourly, loc),
		Daily:    p.daily(daily, loc),
		Location: locationName,
		Provider: p.Name(),
	}, nil
}

func (p *OpenMeteoProvider) current(current gjson.Result) weather.CurrentWeather {
	code := int(number(current, "weather_code"))
	precip := number(current, "precipitation")

	cw := weather.CurrentWeather{
		Temperature:       roundInt(number(current, "temperature_2m")),
		FeelsLike:         roundInt(number(current, "apparent_temperature")),
		Humidity:          roundInt(number(current, "relative_humidity_2m")),
		WindSpeed:         roundInt(number(current, "wind_speed_10m")),
		UVIndex:           number(current, "uv_index"),
		PrecipitationRate: precip,
		// Open-Meteo has no probability for current conditions.
		PrecipitationProb: 0,
		Icon:              OpenMeteoIcon(code),
		Summary:           OpenMeteoDescription(code),
	}
	if precip > 0 {
		cw.PrecipitationType = weather.StringPtr("rain")
	}
	return cw
}

// hourly keeps the first samples with a parseable timestamp, past or not.
func (p *OpenMeteoProvider) hourly(hourly gjson.Result, loc *time.Location) []weather.HourlyForecast {
	times, _ := array(hourly, "time")
	temps, _ := array(hourly, "temperature_2m")
	codes, _ := array(hourly, "weather_code")
	probs, _ := array(hourly, "precipitation_probability")

	out := make([]weather.HourlyForecast, 0, weather.MaxHourly)
	for i, ts := range times {
		if len(out) == weather.MaxHourly {
			break
		}
		t, ok := parseOpenMeteoTime(ts, loc)
		if !ok {
			continue
		}
		code := int(numeric(at(codes, i)))
		out = append(out, weather.HourlyForecast{
			Temp: roundInt(numeric(at(temps, i))),
			Icon: OpenMeteoIcon(code),
			Rain: roundInt(numeric(at(probs, i))),
			T:    hourLabel(t),
			Desc: OpenMeteoDescription(code),
		})
	}
	return out
}

func (p *OpenMeteoProvider) daily(daily gjson.Result, loc *time.Location) []weather.DailyForecast {
	times, _ := array(daily, "time")
	highs, _ := array(daily, "temperature_2m_max")
	lows, _ := array(daily, "temperature_2m_min")
	codes, _ := array(daily, "weather_code")

	out := make([]weather.DailyForecast, 0, weather.MaxDaily)
	for i, ts := range times {
		if len(out) == weather.MaxDaily {
			break
		}
		t, ok := parseOpenMeteoTime(ts, loc)
		if !ok {
			continue
		}
		out = append(out, weather.DailyForecast{
			H:    roundInt(numeric(at(highs, i))),
			L:    roundInt(numeric(at(lows, i))),
			Icon: OpenMeteoIcon(int(numeric(at(codes, i)))),
			D:    weekday(t),
		})
	}
	return out
}

// openMeteoZone builds the location's zone from utc_offset_seconds.
// With timezone=auto, timestamps are naive local times.
func openMeteoZone(root gjson.Result) *time.Location {
	offset := root.Get("utc_offset_seconds")
	if offset.Type != gjson.Number {
		return time.UTC
	}
	return time.FixedZone(root.Get("timezone_abbreviation").String(), int(offset.Int()))
}

var openMeteoLayouts = []string{
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseOpenMeteoTime(v gjson.Result, loc *time.Location) (time.Time, bool) {
	switch v.Type {
	case gjson.Number:
		return time.Unix(v.Int(), 0).In(loc), true
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		for _, layout := range openMeteoLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
