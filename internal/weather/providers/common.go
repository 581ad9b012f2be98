package providers

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/i474232898/weather-gateway/internal/weather"
)

const userAgent = "weather-gateway/1.0"

var (
	errUnexpectedStatus = errors.New("unexpected status code")
	errInvalidBody      = errors.New("response body is not valid JSON")
	errMissingAPIKey    = errors.New("api key is not configured")
)

// NewHTTPClient returns the shared client for outbound provider calls.
// Retries stay disabled: each provider gets one attempt per request.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = weather.DefaultTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
}

// fetchJSON performs a single GET and returns the body when it is a 2xx JSON document.
func fetchJSON(ctx context.Context, client *resty.Client, provider, url string, params map[string]string) (weather.RawPayload, error) {
	req := client.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, &weather.UpstreamError{Provider: provider, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &weather.UpstreamError{Provider: provider, StatusCode: resp.StatusCode(), Err: errUnexpectedStatus}
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, &weather.UpstreamError{Provider: provider, StatusCode: resp.StatusCode(), Err: errInvalidBody}
	}
	return weather.RawPayload(body), nil
}

// object returns root[path] when it is a JSON object.
func object(root gjson.Result, path string) (gjson.Result, bool) {
	r := root.Get(path)
	return r, r.IsObject()
}

// array returns root[path] when it is a JSON array.
func array(root gjson.Result, path string) ([]gjson.Result, bool) {
	r := root.Get(path)
	if !r.IsArray() {
		return nil, false
	}
	return r.Array(), true
}

// number reads a numeric field, yielding 0 when it is absent, null or not a number.
func number(r gjson.Result, path string) float64 {
	return numeric(r.Get(path))
}

func numeric(v gjson.Result) float64 {
	if v.Type != gjson.Number {
		return 0
	}
	return v.Float()
}

// at returns items[i] or an empty result when out of range.
func at(items []gjson.Result, i int) gjson.Result {
	if i < 0 || i >= len(items) {
		return gjson.Result{}
	}
	return items[i]
}

// text reads a string field, yielding def when it is absent or empty.
func text(r gjson.Result, path, def string) string {
	v := r.Get(path)
	if v.Type != gjson.String || v.Str == "" {
		return def
	}
	return v.Str
}

// roundInt rounds half to even, so 72.5 becomes 72 and 73.5 becomes 74.
func roundInt(f float64) int {
	return int(math.RoundToEven(f))
}

func percent(fraction float64) int {
	return roundInt(fraction * 100)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// hourLabel renders "3pm", "10am", "12am".
func hourLabel(t time.Time) string {
	return t.Format("3pm")
}

// weekday renders "Mon".
func weekday(t time.Time) string {
	return t.Format("Mon")
}
