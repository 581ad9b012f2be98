package store

import (
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/i474232898/weather-gateway/internal/weather"
)

const (
	DefaultMaxSize = 100
	DefaultTTL     = 600 * time.Second
)

// Stats is a point-in-time view of the cache.
type Stats struct {
	Count       int      `json:"cache_size"`
	MaxCapacity int      `json:"max_size"`
	TTLSeconds  int      `json:"ttl_seconds"`
	Keys        []string `json:"cached_locations"`
}

// WeatherCache is a TTL cache of normalized snapshots with a capacity bound.
// Reads go straight to go-cache; writes are serialized so the bound holds.
type WeatherCache struct {
	items   *gocache.Cache
	setMu   sync.Mutex
	maxSize int
	ttl     time.Duration
}

var _ weather.Cache = (*WeatherCache)(nil)

// NewWeatherCache creates a cache; non-positive arguments fall back to the defaults.
func NewWeatherCache(maxSize int, ttl time.Duration) *WeatherCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &WeatherCache{
		items:   gocache.New(ttl, ttl),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the live entry for key. Expired entries are misses.
func (c *WeatherCache) Get(key string) (weather.WeatherData, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return weather.WeatherData{}, false
	}
	data, ok := v.(weather.WeatherData)
	return data, ok
}

// Set stores value under key with a fresh TTL. When the cache is full and
// key is new, the entries closest to expiry are evicted first.
func (c *WeatherCache) Set(key string, value weather.WeatherData) {
	c.setMu.Lock()
	defer c.setMu.Unlock()

	if _, exists := c.items.Get(key); !exists {
		c.evict()
	}
	c.items.Set(key, value, gocache.DefaultExpiration)
}

func (c *WeatherCache) evict() {
	live := c.items.Items()
	for len(live) >= c.maxSize {
		oldestKey := ""
		var oldest int64
		for k, item := range live {
			if oldestKey == "" || item.Expiration < oldest {
				oldestKey, oldest = k, item.Expiration
			}
		}
		c.items.Delete(oldestKey)
		delete(live, oldestKey)
	}
}

// Clear drops every entry.
func (c *WeatherCache) Clear() {
	c.setMu.Lock()
	defer c.setMu.Unlock()
	c.items.Flush()
}

// Stats reports live entries only; keys are sorted.
func (c *WeatherCache) Stats() Stats {
	live := c.items.Items()
	keys := make([]string, 0, len(live))
	for k := range live {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Stats{
		Count:       len(keys),
		MaxCapacity: c.maxSize,
		TTLSeconds:  int(c.ttl / time.Second),
		Keys:        keys,
	}
}
