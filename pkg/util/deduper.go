package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper 基于 Redis SETNX 的一次性处理保护
type Deduper struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Deduper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// DedupKey 格式化去重 key
func DedupKey(scope string, parts ...any) string {
	key := "dedup:" + scope
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// AcquireOnce returns true if this is the FIRST time the key is seen within ttl,
// false if it's a duplicate. Redis failures never block processing.
func (d *Deduper) AcquireOnce(ctx context.Context, key string) bool {
	if d == nil || d.rdb == nil {
		return true
	}

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("Redis dedup check failed, allowing processing",
			zap.String("dedup_key", key),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Info("Skipped duplicated event", zap.String("dedup_key", key))
	}
	return ok
}

// Release 删除 key，处理失败时调用以便下次重试
func (d *Deduper) Release(ctx context.Context, key string) {
	if d == nil || d.rdb == nil {
		return
	}
	if err := d.rdb.Del(ctx, key).Err(); err != nil {
		d.logger.Warn("Redis dedup release failed", zap.String("dedup_key", key), zap.Error(err))
	}
}
