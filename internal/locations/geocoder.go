package locations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelvins/geocoder"
)

// DefaultGoogleGeocodeURL is the Google Geocoding endpoint, including the trailing "?".
const DefaultGoogleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json?"

const geocodeTimeout = 10 * time.Second

var errNoResult = errors.New("geocoder returned no coordinates")

// The geocoder package keeps its endpoint and key in package variables and
// calls them with a client that has no timeout, so one call runs at a time.
var geocodeSlot = make(chan struct{}, 1)

// GoogleGeocoder resolves city names through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey string
	apiURL string
}

// NewGoogleGeocoder creates a GoogleGeocoder. An empty apiURL uses DefaultGoogleGeocodeURL.
func NewGoogleGeocoder(apiKey, apiURL string) *GoogleGeocoder {
	if apiURL == "" {
		apiURL = DefaultGoogleGeocodeURL
	}
	return &GoogleGeocoder{apiKey: apiKey, apiURL: apiURL}
}

type geocodeResult struct {
	loc geocoder.Location
	err error
}

// Geocode looks up city. It returns when ctx is done even if the upstream call has not.
func (g *GoogleGeocoder) Geocode(ctx context.Context, city string) (Place, error) {
	name := strings.TrimSpace(city)
	if name == "" {
		return Place{}, errNoResult
	}

	ctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	select {
	case geocodeSlot <- struct{}{}:
	case <-ctx.Done():
		return Place{}, ctx.Err()
	}

	done := make(chan geocodeResult, 1)
	go func() {
		defer func() { <-geocodeSlot }()
		defer func() {
			if r := recover(); r != nil {
				done <- geocodeResult{err: fmt.Errorf("geocoder: %v", r)}
			}
		}()

		geocoder.ApiUrl = g.apiURL
		geocoder.ApiKey = url.QueryEscape(g.apiKey)
		loc, err := geocoder.Geocoding(geocoder.Address{City: url.QueryEscape(name)})
		done <- geocodeResult{loc: loc, err: err}
	}()

	var res geocodeResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return Place{}, ctx.Err()
	}

	if res.err != nil {
		return Place{}, res.err
	}
	if res.loc.Latitude == 0 && res.loc.Longitude == 0 {
		return Place{}, errNoResult
	}
	return Place{Key: strings.ToLower(name), Name: name, Lat: res.loc.Latitude, Lon: res.loc.Longitude}, nil
}
