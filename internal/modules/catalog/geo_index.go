// README: City GEO index in Redis, used to suggest the closest pickup city.
package catalog

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/pepemlv/partysavingrental/internal/types"
)

const (
	cityGeoKey = "catalog:cities"
	// Covers the continental US from any city.
	searchRadiusMiles = 3000
)

type NearbyCity struct {
	ID    string
	Miles float64
}

type GeoIndex struct {
	redis *redis.Client
}

func NewGeoIndex(redis *redis.Client) *GeoIndex {
	return &GeoIndex{redis: redis}
}

// Reindex replaces the whole index with the given cities.
func (g *GeoIndex) Reindex(ctx context.Context, cities []City) error {
	pipe := g.redis.TxPipeline()
	pipe.Del(ctx, cityGeoKey)
	if len(cities) > 0 {
		locs := make([]*redis.GeoLocation, len(cities))
		for i, c := range cities {
			locs[i] = &redis.GeoLocation{Name: c.ID, Longitude: c.Longitude, Latitude: c.Latitude}
		}
		pipe.GeoAdd(ctx, cityGeoKey, locs...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Nearest returns up to limit city ids ordered by distance from p.
func (g *GeoIndex) Nearest(ctx context.Context, p types.Point, limit int) ([]NearbyCity, error) {
	results, err := g.redis.GeoRadius(ctx, cityGeoKey, p.Lng, p.Lat, &redis.GeoRadiusQuery{
		Radius:   searchRadiusMiles,
		Unit:     "mi",
		WithDist: true,
		Count:    limit,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]NearbyCity, len(results))
	for i, r := range results {
		out[i] = NearbyCity{ID: r.Name, Miles: r.Dist}
	}
	return out, nil
}
