package geo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/example/sharego/internal/models"
)

// CachedGeocoder memoizes lookups by normalized place text. Geocode results
// for a place name change rarely, failed lookups are not cached.
type CachedGeocoder struct {
	Next Geocoder

	mu    sync.RWMutex
	store map[string]geocodeEntry
	ttl   time.Duration
}

type geocodeEntry struct {
	c  models.Coord
	ts time.Time
}

func NewCachedGeocoder(next Geocoder, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{Next: next, store: make(map[string]geocodeEntry), ttl: ttl}
}

func normalize(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}

func (c *CachedGeocoder) Geocode(ctx context.Context, place string) (models.Coord, error) {
	k := normalize(place)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if ok && time.Since(e.ts) <= c.ttl {
		return e.c, nil
	}
	coord, err := c.Next.Geocode(ctx, place)
	if err != nil {
		return models.Coord{}, err
	}
	c.mu.Lock()
	c.store[k] = geocodeEntry{c: coord, ts: time.Now()}
	c.mu.Unlock()
	return coord, nil
}
