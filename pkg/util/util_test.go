package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "admin", "s3cret")
	require.NoError(t, err)

	claims, err := ParseJWT(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", ExtractToken(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(r))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
		kind      string
	}{
		{Retryable(errors.New("hubspot 503")), true, "upstream_error"},
		{fmt.Errorf("load: %w", pgx.ErrNoRows), false, "record_not_found"},
		{context.DeadlineExceeded, true, "timeout"},
		{context.Canceled, false, "context_canceled"},
		{errors.New("ERROR: duplicate key value violates unique constraint"), false, "duplicate_key"},
		{errors.New("something odd"), false, "unknown_error"},
	}
	for _, tc := range cases {
		retryable, kind := IsRetryableError(tc.err)
		assert.Equal(t, tc.retryable, retryable, tc.err.Error())
		assert.Equal(t, tc.kind, kind, tc.err.Error())
	}

	retryable, kind := IsRetryableError(nil)
	assert.False(t, retryable)
	assert.Empty(t, kind)
}

type fakeRedis struct {
	redis.Cmdable
	keys map[string]bool
	fail bool
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	if f.fail {
		return redis.NewBoolResult(false, errors.New("redis down"))
	}
	if f.keys[key] {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = true
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.keys, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestDeduper(t *testing.T) {
	ctx := context.Background()
	rdb := &fakeRedis{keys: map[string]bool{}}
	d := NewDeduper(rdb, time.Hour, nil)

	key := DedupKey("followup", 7, 3)
	assert.Equal(t, "dedup:followup:7:3", key)
	assert.True(t, d.AcquireOnce(ctx, key))
	assert.False(t, d.AcquireOnce(ctx, key))

	d.Release(ctx, key)
	assert.True(t, d.AcquireOnce(ctx, key))
}

func TestDeduper_RedisDownAllows(t *testing.T) {
	d := NewDeduper(&fakeRedis{fail: true}, time.Hour, nil)
	assert.True(t, d.AcquireOnce(context.Background(), "k"))
	assert.True(t, d.AcquireOnce(context.Background(), "k"))

	var nilDeduper *Deduper
	assert.True(t, nilDeduper.AcquireOnce(context.Background(), "k"))
}
