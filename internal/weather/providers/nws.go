package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/i474232898/weather-gateway/internal/weather"
)

const (
	NWSName       = "NationalWeatherService"
	DefaultNWSURL = "https://api.weather.gov"
)

var errNoGridpoint = errors.New("points response has no forecast links")

// NWSIcon maps a National Weather Service short forecast to an icon name.
// Night periods use the night variants for clear and partly cloudy skies.
func NWSIcon(shortForecast string, daytime bool) string {
	s := strings.ToLower(shortForecast)
	switch {
	case strings.Contains(s, "thunder"):
		return "thunderstorm"
	case strings.Contains(s, "sleet"), strings.Contains(s, "freezing"):
		return "sleet"
	case strings.Contains(s, "snow"), strings.Contains(s, "flurries"), strings.Contains(s, "blizzard"):
		if strings.Contains(s, "heavy") {
			return "heavy-snow"
		}
		if strings.Contains(s, "light") || strings.Contains(s, "chance") {
			return "light-snow"
		}
		return "snow"
	case strings.Contains(s, "rain"), strings.Contains(s, "showers"), strings.Contains(s, "drizzle"):
		if strings.Contains(s, "heavy") {
			return "heavy-rain"
		}
		if strings.Contains(s, "light") || strings.Contains(s, "chance") || strings.Contains(s, "drizzle") {
			return "light-rain"
		}
		return "rain"
	case strings.Contains(s, "fog"), strings.Contains(s, "haze"), strings.Contains(s, "smoke"):
		return "fog"
	case strings.Contains(s, "partly"), strings.Contains(s, "mostly sunny"), strings.Contains(s, "mostly clear"):
		if daytime {
			return "partly-cloudy-day"
		}
		return "partly-cloudy-night"
	case strings.Contains(s, "cloudy"), strings.Contains(s, "overcast"):
		return "cloudy"
	case strings.Contains(s, "wind"), strings.Contains(s, "breezy"):
		return "wind"
	case !daytime && (strings.Contains(s, "clear") || strings.Contains(s, "sunny")):
		return "clear-night"
	}
	return "clear-day"
}

// nwsPrecipType derives the falling precipitation from a short forecast.
func nwsPrecipType(shortForecast string) *string {
	s := strings.ToLower(shortForecast)
	switch {
	case strings.Contains(s, "sleet"), strings.Contains(s, "freezing"):
		return weather.StringPtr("sleet")
	case strings.Contains(s, "snow"), strings.Contains(s, "flurries"):
		return weather.StringPtr("snow")
	case strings.Contains(s, "rain"), strings.Contains(s, "showers"), strings.Contains(s, "drizzle"), strings.Contains(s, "thunder"):
		return weather.StringPtr("rain")
	}
	return nil
}

// NWSProvider implements the weather.Provider interface for the US National
// Weather Service. No credential is required, but coverage is US-only.
type NWSProvider struct {
	baseURL string
	client  *resty.Client
	now     func() time.Time
}

var _ weather.Provider = (*NWSProvider)(nil)

func NewNWSProvider(client *resty.Client, baseURL string) *NWSProvider {
	if client == nil {
		client = NewHTTPClient(weather.DefaultTimeout)
	}
	if baseURL == "" {
		baseURL = DefaultNWSURL
	}
	return &NWSProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     time.Now,
	}
}

func (p *NWSProvider) Name() string {
	return NWSName
}

func (p *NWSProvider) Description() string {
	return "National Weather Service provider - official US forecasts, no key required"
}

func (p *NWSProvider) Info() weather.ProviderInfo {
	return weather.InfoFor(p)
}

func (p *NWSProvider) GetWeather(ctx context.Context, lat, lon float64, locationName string) (weather.WeatherData, error) {
	return weather.GetWeather(ctx, p, lat, lon, locationName)
}

// FetchRaw resolves the gridpoint, then fetches its hourly and 12-hour forecasts.
// The three documents are returned as {"points":...,"hourly":...,"forecast":...}.
func (p *NWSProvider) FetchRaw(ctx context.Context, lat, lon float64) (weather.RawPayload, error) {
	points, err := fetchJSON(ctx, p.client, p.Name(), fmt.Sprintf("%s/points/%.4f,%.4f", p.baseURL, lat, lon), nil)
	if err != nil {
		return nil, err
	}

	props := gjson.GetBytes(points, "properties")
	hourlyURL := text(props, "forecastHourly", "")
	forecastURL := text(props, "forecast", "")
	if hourlyURL == "" || forecastURL == "" {
		return nil, &weather.UpstreamError{Provider: p.Name(), Err: errNoGridpoint}
	}

	hourly, err := fetchJSON(ctx, p.client, p.Name(), hourlyURL, nil)
	if err != nil {
		return nil, err
	}
	forecast, err := fetchJSON(ctx, p.client, p.Name(), forecastURL, nil)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, 0, len(points)+len(hourly)+len(forecast)+40)
	raw = append(raw, `{"points":`...)
	raw = append(raw, points...)
	raw = append(raw, `,"hourly":`...)
	raw = append(raw, hourly...)
	raw = append(raw, `,"forecast":`...)
	raw = append(raw, forecast...)
	raw = append(raw, '}')
	return weather.RawPayload(raw), nil
}

// Normalize maps the combined NWS documents into the canonical schema.
// Current conditions come from the hourly period covering now.
func (p *NWSProvider) Normalize(raw weather.RawPayload, locationName string) (weather.WeatherData, error) {
	root := gjson.ParseBytes(raw)

	hourly, ok := array(root, "hourly.properties.periods")
	if !ok {
		return weather.WeatherData{}, &weather.SchemaError{Provider: p.Name(), Section: "hourly.properties.periods"}
	}
	periods, ok := array(root, "forecast.properties.periods")
	if !ok {
		return weather.WeatherData{}, &weather.SchemaError{Provider: p.Name(), Section: "forecast.properties.periods"}
	}

	loc := nwsZone(root)
	upcoming := p.upcoming(hourly)

	return weather.WeatherData{
		Current:  p.current(upcoming),
		Hourly:   p.hourly(upcoming, loc),
		Daily:    p.daily(periods, loc),
		Location: locationName,
		Provider: p.Name(),
	}, nil
}

// upcoming drops periods that have already ended.
func (p *NWSProvider) upcoming(periods []gjson.Result) []gjson.Result {
	now := p.now()

	out := make([]gjson.Result, 0, len(periods))
	for _, period := range periods {
		if end, ok := nwsTime(period, "endTime"); ok && !end.After(now) {
			continue
		}
		out = append(out, period)
	}
	return out
}

func (p *NWSProvider) current(upcoming []gjson.Result) weather.CurrentWeather {
	if len(upcoming) == 0 {
		return weather.CurrentWeather{Icon: "clear-day", Summary: "Unknown"}
	}
	period := upcoming[0]
	short := text(period, "shortForecast", "")
	temp := roundInt(nwsFahrenheit(period))

	return weather.CurrentWeather{
		Temperature: temp,
		// Hourly periods carry no apparent temperature.
		FeelsLike:         temp,
		Humidity:          roundInt(number(period, "relativeHumidity.value")),
		WindSpeed:         nwsWindSpeed(text(period, "windSpeed", "")),
		PrecipitationProb: roundInt(number(period, "probabilityOfPrecipitation.value")),
		PrecipitationType: nwsPrecipType(short),
		Icon:              NWSIcon(short, period.Get("isDaytime").Bool()),
		Summary:           text(period, "shortForecast", "Unknown"),
	}
}

func (p *NWSProvider) hourly(upcoming []gjson.Result, loc *time.Location) []weather.HourlyForecast {
	out := make([]weather.HourlyForecast, 0, weather.MaxHourly)
	for _, period := range upcoming {
		if len(out) == weather.MaxHourly {
			break
		}
		start, ok := nwsTime(period, "startTime")
		if !ok {
			continue
		}
		short := text(period, "shortForecast", "")
		out = append(out, weather.HourlyForecast{
			Temp: roundInt(nwsFahrenheit(period)),
			Icon: NWSIcon(short, period.Get("isDaytime").Bool()),
			Rain: roundInt(number(period, "probabilityOfPrecipitation.value")),
			T:    hourLabel(inZone(start, loc)),
			Desc: text(period, "shortForecast", "Unknown"),
		})
	}
	return out
}

// daily folds the alternating day and night periods into one entry per local date.
// The high and low are the extremes seen that date; the icon prefers the daytime period.
func (p *NWSProvider) daily(periods []gjson.Result, loc *time.Location) []weather.DailyForecast {
	out := make([]weather.DailyForecast, 0, weather.MaxDaily)
	index := make(map[string]int, weather.MaxDaily)
	hasDay := make(map[string]bool, weather.MaxDaily)

	for _, period := range periods {
		start, ok := nwsTime(period, "startTime")
		if !ok {
			continue
		}
		local := inZone(start, loc)
		date := local.Format(time.DateOnly)
		temp := roundInt(nwsFahrenheit(period))
		daytime := period.Get("isDaytime").Bool()
		icon := NWSIcon(text(period, "shortForecast", ""), true)

		i, seen := index[date]
		if !seen {
			if len(out) == weather.MaxDaily {
				break
			}
			index[date] = len(out)
			hasDay[date] = daytime
			out = append(out, weather.DailyForecast{H: temp, L: temp, Icon: icon, D: weekday(local)})
			continue
		}

		d := &out[i]
		d.H = max(d.H, temp)
		d.L = min(d.L, temp)
		if daytime && !hasDay[date] {
			d.Icon = icon
			hasDay[date] = true
		}
	}
	return out
}

// nwsZone loads the gridpoint's IANA zone. A nil zone keeps each timestamp's own offset,
// which NWS already reports in local time.
func nwsZone(root gjson.Result) *time.Location {
	name := text(root, "points.properties.timeZone", "")
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil
	}
	return loc
}

func inZone(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

func nwsTime(period gjson.Result, path string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, text(period, path, ""))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// nwsFahrenheit reads a period temperature, converting Celsius when flagged.
func nwsFahrenheit(period gjson.Result) float64 {
	t := number(period, "temperature")
	if strings.EqualFold(text(period, "temperatureUnit", "F"), "C") {
		return t*9/5 + 32
	}
	return t
}

// nwsWindSpeed parses "10 mph" or "5 to 10 mph", keeping the upper bound.
func nwsWindSpeed(s string) int {
	best := 0
	for _, field := range strings.Fields(s) {
		if n, err := strconv.Atoi(field); err == nil && n > best {
			best = n
		}
	}
	return best
}
