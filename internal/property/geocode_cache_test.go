package property

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRedis struct {
	redis.Cmdable
	data map[string][]byte
	fail bool
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.fail {
		return redis.NewStringResult("", errors.New("redis down"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.fail {
		return redis.NewStatusResult("", errors.New("redis down"))
	}
	f.data[key] = value.([]byte)
	return redis.NewStatusResult("OK", nil)
}

func TestCachedGeocoder(t *testing.T) {
	calls := 0
	next := geocodeFunc(func(ctx context.Context, address string) (*Location, error) {
		calls++
		return &Location{Lat: 3, Lon: 4, Provider: "census"}, nil
	})
	rdb := &fakeRedis{data: map[string][]byte{}}
	g := NewCachedGeocoder(next, rdb, time.Hour, zap.NewNop())

	loc, err := g.Geocode(context.Background(), "1 Main  St")
	require.NoError(t, err)
	assert.Equal(t, 3.0, loc.Lat)

	loc, err = g.Geocode(context.Background(), "1 MAIN st")
	require.NoError(t, err)
	assert.Equal(t, 4.0, loc.Lon)
	assert.Equal(t, 1, calls)
	assert.Contains(t, rdb.data, "geocode:1 main st")
}

func TestCachedGeocoder_RedisDown(t *testing.T) {
	calls := 0
	next := geocodeFunc(func(ctx context.Context, address string) (*Location, error) {
		calls++
		return &Location{Lat: 1}, nil
	})
	g := NewCachedGeocoder(next, &fakeRedis{fail: true}, time.Hour, zap.NewNop())
	_, err := g.Geocode(context.Background(), "x")
	require.NoError(t, err)
	_, err = g.Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	assert.IsType(t, geocodeFunc(nil), NewCachedGeocoder(next, nil, time.Hour, zap.NewNop()))
}
