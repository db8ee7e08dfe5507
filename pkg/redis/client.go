package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"foreclosure-assist/pkg/config"
)

// NewRedisClient 创建 Redis 客户端；Addr 为空时返回 nil，调用方按"无缓存"处理
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// Connect 创建客户端并 PING 一次；失败只记录警告，去重和缓存会降级
func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	rdb := NewRedisClient(cfg)
	if rdb == nil {
		logger.Warn("Redis address not configured, running without cache")
		return nil
	}
	if err := Ping(ctx, rdb); err != nil {
		logger.Warn("Redis not reachable, dedup will fail open", zap.String("addr", cfg.Addr), zap.Error(err))
	}
	return rdb
}

// Ping 带超时的健康检查
func Ping(ctx context.Context, rdb redis.Cmdable) error {
	if rdb == nil {
		return fmt.Errorf("redis client not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rdb.Ping(ctx).Err()
}

// Cmdable 把可能为 nil 的客户端转成接口，避免 typed nil 绕过调用方的 nil 判断
func Cmdable(rdb *redis.Client) redis.Cmdable {
	if rdb == nil {
		return nil
	}
	return rdb
}
