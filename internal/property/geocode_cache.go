package property

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedGeocoder memoises geocoding results in Redis. Cache errors fall through to the provider.
type CachedGeocoder struct {
	next   Geocoder
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedGeocoder(next Geocoder, rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) Geocoder {
	if rdb == nil {
		return next
	}
	return &CachedGeocoder{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(address string) string {
	return "geocode:" + strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	key := cacheKey(address)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var loc Location
		if jsonErr := json.Unmarshal(data, &loc); jsonErr == nil {
			return &loc, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Geocode cache read failed", zap.String("key", key), zap.Error(err))
	}

	loc, err := c.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(loc); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Geocode cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return loc, nil
}
