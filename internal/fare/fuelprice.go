package fare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// FeedClient fetches the current fuel price from the external price feed.
type FeedClient struct {
	Endpoint string
	Client   *http.Client
}

func NewFeedClient(endpoint string) *FeedClient {
	return &FeedClient{Endpoint: endpoint, Client: &http.Client{Timeout: 2 * time.Second}}
}

func (f *FeedClient) FuelPricePerLiter(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fuel feed status %d", resp.StatusCode)
	}
	var out struct {
		PricePerLiter float64 `json:"price_per_liter"`
		Currency      string  `json:"currency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	if out.PricePerLiter <= 0 {
		return 0, fmt.Errorf("fuel feed returned %g", out.PricePerLiter)
	}
	return out.PricePerLiter, nil
}

// NoSource is used when no feed is configured. Every quote fails with
// PricingUnavailable instead of falling back to a stale constant.
type NoSource struct{}

func (NoSource) FuelPricePerLiter(ctx context.Context) (float64, error) {
	return 0, fmt.Errorf("no fuel price feed configured")
}

// CachedSource keeps the last feed value in Redis so every quote does not
// hit the external feed. An expired entry falls through to the feed; there
// is deliberately no stale-value fallback when the feed is down.
type CachedSource struct {
	Next   PriceSource
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func NewCachedSource(next PriceSource, client *redis.Client, key string, ttl time.Duration) *CachedSource {
	return &CachedSource{Next: next, Client: client, Key: key, TTL: ttl}
}

func (c *CachedSource) FuelPricePerLiter(ctx context.Context) (float64, error) {
	if v, err := c.Client.Get(ctx, c.Key).Result(); err == nil {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p > 0 {
			return p, nil
		}
	}
	p, err := c.Next.FuelPricePerLiter(ctx)
	if err != nil {
		return 0, err
	}
	_ = c.Client.Set(ctx, c.Key, strconv.FormatFloat(p, 'f', -1, 64), c.TTL).Err()
	return p, nil
}
