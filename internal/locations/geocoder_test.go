package locations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const osloResponse = `{"status":"OK","results":[{"geometry":{"location":{"lat":59.9139,"lng":10.7522}}}]}`

func newGeocodeServer(t *testing.T, handler http.HandlerFunc) (*GoogleGeocoder, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGoogleGeocoder("test-key", srv.URL+"/json?"), srv
}

func TestGoogleGeocoderResolves(t *testing.T) {
	g, _ := newGeocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json" || r.URL.Query().Get("address") != "Oslo" || r.URL.Query().Get("key") != "test-key" {
			http.Error(w, "bad request "+r.URL.String(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(osloResponse))
	})

	p, err := g.Geocode(context.Background(), " Oslo ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Key != "oslo" || p.Name != "Oslo" || p.Lat != 59.9139 || p.Lon != 10.7522 {
		t.Fatalf("unexpected place %+v", p)
	}
}

func TestGoogleGeocoderEscapesCity(t *testing.T) {
	g, _ := newGeocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("address") != "Springfield&key=evil" || len(q["key"]) != 1 || q.Get("key") != "test-key" {
			http.Error(w, "bad query "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(osloResponse))
	})

	if _, err := g.Geocode(context.Background(), "Springfield&key=evil"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGoogleGeocoderUnlistedStatus(t *testing.T) {
	var calls atomic.Int32
	g, _ := newGeocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"status":"OVER_DAILY_LIMIT","results":[]}`))
			return
		}
		_, _ = w.Write([]byte(osloResponse))
	})

	if _, err := g.Geocode(context.Background(), "Oslo"); err == nil {
		t.Fatalf("expected an error for an empty result set")
	}

	// The slot must be released after a failed lookup.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := g.Geocode(ctx, "Oslo"); err != nil {
		t.Fatalf("unexpected error on second lookup: %v", err)
	}
}

func TestGoogleGeocoderZeroStatus(t *testing.T) {
	g, _ := newGeocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	if _, err := g.Geocode(context.Background(), "Atlantis"); err == nil {
		t.Fatalf("expected an error for ZERO_RESULTS")
	}
}

func TestGoogleGeocoderHonoursContext(t *testing.T) {
	release := make(chan struct{})
	g, _ := newGeocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(osloResponse))
	})
	// Runs before the server cleanup so Close does not wait on the blocked handler.
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Geocode(ctx, "Oslo")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("lookup took %v after the context expired", elapsed)
	}
}

func TestGoogleGeocoderEmptyCity(t *testing.T) {
	g := NewGoogleGeocoder("test-key", "http://127.0.0.1:1/json?")
	if _, err := g.Geocode(context.Background(), "  "); err == nil {
		t.Fatalf("expected an error for an empty city")
	}
}
