// README: Redis read-through cache in front of any Geocoder.
package location

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pepemlv/partysavingrental/internal/logger"
)

const geocodeKeyPrefix = "geocode:"

type CachedGeocoder struct {
	next  Geocoder
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{next: next, redis: rdb, ttl: ttl}
}

// Geocode serves hits from Redis. Only positive results are cached; misses and
// failures always reach the wrapped geocoder. Redis errors degrade to a pass-through.
func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (*GeocodedAddress, error) {
	key := geocodeCacheKey(query)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var addr GeocodedAddress
		if jsonErr := json.Unmarshal(raw, &addr); jsonErr == nil {
			return &addr, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.Warn("geocode cache read failed", "error", err)
	}

	addr, err := c.next.Geocode(ctx, query)
	if err != nil || addr == nil {
		return addr, err
	}

	if data, err := json.Marshal(addr); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			logger.Warn("geocode cache write failed", "error", err)
		}
	}
	return addr, nil
}

func geocodeCacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return geocodeKeyPrefix + hex.EncodeToString(sum[:16])
}
