package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/i474232898/weather-gateway/internal/weather"
)

const (
	PirateWeatherName       = "PirateWeather"
	DefaultPirateWeatherURL = "https://api.pirateweather.net/forecast"
)

var pirateWeatherIcons = map[string]string{
	"clear-day":           "clear-day",
	"clear-night":         "clear-night",
	"rain":                "rain",
	"snow":                "snow",
	"sleet":               "sleet",
	"wind":                "wind",
	"fog":                 "fog",
	"cloudy":              "cloudy",
	"partly-cloudy-day":   "partly-cloudy-day",
	"partly-cloudy-night": "partly-cloudy-night",
	"hail":                "hail",
	"thunderstorm":        "thunderstorm",
	"tornado":             "wind",
}

// PirateWeatherIcon maps a PirateWeather icon string, defaulting to "clear-day".
func PirateWeatherIcon(icon string) string {
	if mapped, ok := pirateWeatherIcons[icon]; ok {
		return mapped
	}
	return "clear-day"
}

// PirateWeatherProvider implements the weather.Provider interface for PirateWeather.
type PirateWeatherProvider struct {
	apiKey  string
	baseURL string
	client  *resty.Client
	now     func() time.Time
}

var _ weather.Provider = (*PirateWeatherProvider)(nil)

func NewPirateWeatherProvider(client *resty.Client, baseURL, apiKey string) *PirateWeatherProvider {
	if client == nil {
		client = NewHTTPClient(weather.DefaultTimeout)
	}
	if baseURL == "" {
		baseURL = DefaultPirateWeatherURL
	}
	return &PirateWeatherProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     time.Now,
	}
}

func (p *PirateWeatherProvider) Name() string {
	return PirateWeatherName
}

func (p *PirateWeatherProvider) Description() string {
	return "PirateWeather provider - Dark Sky compatible API"
}

func (p *PirateWeatherProvider) Info() weather.ProviderInfo {
	return weather.InfoFor(p)
}

func (p *PirateWeatherProvider) GetWeather(ctx context.Context, lat, lon float64, locationName string) (weather.WeatherData, error) {
	return weather.GetWeather(ctx, p, lat, lon, locationName)
}

// FetchRaw calls {base}/{key}/{lat},{lon}. Minutely data and alerts are excluded.
func (p *PirateWeatherProvider) FetchRaw(ctx context.Context, lat, lon float64) (weather.RawPayload, error) {
	if p.apiKey == "" {
		return nil, &weather.UpstreamError{Provider: p.Name(), Err: errMissingAPIKey}
	}

	endpoint := fmt.Sprintf("%s/%s/%s,%s", p.baseURL, url.PathEscape(p.apiKey), formatCoord(lat), formatCoord(lon))
	params := map[string]string{
		"units":   "us",
		"exclude": "minutely,alerts",
	}
	return fetchJSON(ctx, p.client, p.Name(), endpoint, params)
}

// Normalize maps a PirateWeather payload into the canonical schema.
func (p *PirateWeatherProvider) Normalize(raw weather.RawPayload, locationName string) (weather.WeatherData, error) {
	root := gjson.ParseBytes(raw)

	current, ok := object(root, "currently")
	if !ok {
		return weather.WeatherData{}, &weather.SchemaError{Provider: p.Name(), Section: "currently"}
	}
	hourly, ok := array(root, "hourly.data")
	if !ok {
		return weather.WeatherData{}, &weather.SchemaError{Provider: p.Name(), Section: "hourly.data"}
	}
	daily, ok := array(root, "daily.data")
	if !ok {
		return weather.WeatherData{}, &weather.SchemaError{Provider: p.Name(), Section: "daily.data"}
	}

	loc := pirateWeatherZone(root)

	return weather.WeatherData{
		Current:  p.current(current),
		Hourly:   p.hourly(hourly, loc),
		Daily:    p.daily(daily, loc),
		Location: locationName,
		Provider: p.Name(),
	}, nil
}

func (p *PirateWeatherProvider) current(current gjson.Result) weather.CurrentWeather {
	cw := weather.CurrentWeather{
		Temperature:       roundInt(number(current, "temperature")),
		FeelsLike:         roundInt(number(current, "apparentTemperature")),
		Humidity:          percent(number(current, "humidity")),
		WindSpeed:         roundInt(number(current, "windSpeed")),
		UVIndex:           number(current, "uvIndex"),
		PrecipitationRate: number(current, "precipIntensity"),
		PrecipitationProb: percent(number(current, "precipProbability")),
		Icon:              PirateWeatherIcon(text(current, "icon", "")),
		Summary:           text(current, "summary", "Unknown"),
	}
	if kind := text(current, "precipType", ""); kind != "none" && kind != "" {
		cw.PrecipitationType = weather.StringPtr(kind)
	}
	return cw
}

// hourly drops samples already in the past, then keeps the next 24.
func (p *PirateWeatherProvider) hourly(data []gjson.Result, loc *time.Location) []weather.HourlyForecast {
	now := p.now().Unix()

	out := make([]weather.HourlyForecast, 0, weather.MaxHourly)
	for _, h := range data {
		if len(out) == weather.MaxHourly {
			break
		}
		ts := int64(number(h, "time"))
		if ts < now {
			continue
		}
		out = append(out, weather.HourlyForecast{
			Temp: roundInt(number(h, "temperature")),
			Icon: PirateWeatherIcon(text(h, "icon", "")),
			Rain: percent(number(h, "precipProbability")),
			T:    hourLabel(time.Unix(ts, 0).In(loc)),
			Desc: text(h, "summary", "Unknown"),
		})
	}
	return out
}

func (p *PirateWeatherProvider) daily(data []gjson.Result, loc *time.Location) []weather.DailyForecast {
	out := make([]weather.DailyForecast, 0, weather.MaxDaily)
	for _, d := range data {
		if len(out) == weather.MaxDaily {
			break
		}
		ts := int64(number(d, "time"))
		out = append(out, weather.DailyForecast{
			H:    roundInt(number(d, "temperatureHigh")),
			L:    roundInt(number(d, "temperatureLow")),
			Icon: PirateWeatherIcon(text(d, "icon", "")),
			D:    weekday(time.Unix(ts, 0).In(loc)),
		})
	}
	return out
}

// pirateWeatherZone prefers the IANA timezone, then the hour offset, then UTC.
func pirateWeatherZone(root gjson.Result) *time.Location {
	if name := text(root, "timezone", ""); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if offset := root.Get("offset"); offset.Type == gjson.Number {
		return time.FixedZone("", int(offset.Float()*3600))
	}
	return time.UTC
}
