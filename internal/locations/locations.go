package locations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Default location when a request names none.
const (
	DefaultLat  = 41.8781
	DefaultLon  = -87.6298
	DefaultName = "Chicago"
)

// ErrUnknownCity is returned when a city is neither in the table nor geocodable.
var ErrUnknownCity = errors.New("unknown city")

// Place is a named coordinate pair.
type Place struct {
	Key  string  `json:"key"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

var cities = map[string]Place{
	"chicago": {Key: "chicago", Name: "Chicago", Lat: 41.8781, Lon: -87.6298},
	"nyc":     {Key: "nyc", Name: "New York City", Lat: 40.7128, Lon: -74.0060},
	"sf":      {Key: "sf", Name: "San Francisco", Lat: 37.7749, Lon: -122.4194},
	"london":  {Key: "london", Name: "London", Lat: 51.5074, Lon: -0.1278},
	"paris":   {Key: "paris", Name: "Paris", Lat: 48.8566, Lon: 2.3522},
	"tokyo":   {Key: "tokyo", Name: "Tokyo", Lat: 35.6762, Lon: 139.6503},
	"sydney":  {Key: "sydney", Name: "Sydney", Lat: -33.8688, Lon: 151.2093},
	"berlin":  {Key: "berlin", Name: "Berlin", Lat: 52.5200, Lon: 13.4050},
	"rome":    {Key: "rome", Name: "Rome", Lat: 41.9028, Lon: 12.4964},
	"madrid":  {Key: "madrid", Name: "Madrid", Lat: 40.4168, Lon: -3.7038},
}

// Known returns the built-in cities sorted by key.
func Known() []Place {
	out := make([]Place, 0, len(cities))
	for _, p := range cities {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// KnownKeys returns the built-in city keys, sorted.
func KnownKeys() []string {
	known := Known()
	keys := make([]string, 0, len(known))
	for _, p := range known {
		keys = append(keys, p.Key)
	}
	return keys
}

// Lookup finds a built-in city by key or display name, case-insensitively.
func Lookup(city string) (Place, bool) {
	needle := strings.ToLower(strings.TrimSpace(city))
	if p, ok := cities[needle]; ok {
		return p, true
	}
	for _, p := range cities {
		if strings.ToLower(p.Name) == needle {
			return p, true
		}
	}
	return Place{}, false
}

// Geocoder resolves free-form city names to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (Place, error)
}

// Resolver resolves city names from the built-in table, falling back to a
// Geocoder when one is configured.
type Resolver struct {
	geocoder Geocoder
	logger   *zap.Logger
}

// NewResolver creates a Resolver. geocoder may be nil.
func NewResolver(geocoder Geocoder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{geocoder: geocoder, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, city string) (Place, error) {
	if strings.TrimSpace(city) == "" {
		return Place{}, fmt.Errorf("%w: empty name", ErrUnknownCity)
	}
	if p, ok := Lookup(city); ok {
		return p, nil
	}
	if r.geocoder == nil {
		return Place{}, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}

	p, err := r.geocoder.Geocode(ctx, city)
	if err != nil {
		r.logger.Warn("geocoding failed", zap.String("city", city), zap.Error(err))
		return Place{}, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	return p, nil
}
