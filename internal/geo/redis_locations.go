package geo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/sharego/internal/models"
)

// RedisLocations implements Locations on Redis GEO commands so multiple API
// instances and the location consumer share one view.
type RedisLocations struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisLocations(addr, password, key string) *RedisLocations {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisLocations{client: c, key: key, ctx: context.Background()}
}

func (r *RedisLocations) Upsert(u models.LocationUpdate) {
	_, _ = r.client.GeoAdd(r.ctx, r.key, &redis.GeoLocation{
		Longitude: u.Loc.Lon, Latitude: u.Loc.Lat, Name: u.PartyID,
	}).Result()
	_ = r.client.HSet(r.ctx, metaKey(u.PartyID), map[string]interface{}{
		"updated": time.Now().Format(time.RFC3339),
	}).Err()
}

func (r *RedisLocations) Lookup(partyID string) (models.LocationUpdate, bool) {
	pos, err := r.client.GeoPos(r.ctx, r.key, partyID).Result()
	if err != nil || len(pos) == 0 || pos[0] == nil {
		return models.LocationUpdate{}, false
	}
	u := models.LocationUpdate{
		PartyID: partyID,
		Loc:     models.Coord{Lat: pos[0].Latitude, Lon: pos[0].Longitude},
	}
	if v, err := r.client.HGet(r.ctx, metaKey(partyID), "updated").Result(); err == nil {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			u.Updated = t
		}
	}
	return u, true
}

func metaKey(id string) string { return "party:meta:" + id }
