package storage

import (
	"context"
	"errors"
	"log"
	"time"
)

// RankCache 排序流水线使用的内容寻址缓存。
// 所有实现都必须是尽力而为的：后端缺失、不可达或出错时
// 只能表现为缓存未命中，绝不允许让请求失败。
type RankCache interface {
	// Get 读取缓存值，未命中或后端异常时返回 ("", false)
	Get(ctx context.Context, key string) (string, bool)

	// SetWithTTL 写入缓存值并设置过期时间，失败时静默放弃
	SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration)
}

// RedisRankCache 基于Redis的RankCache实现
type RedisRankCache struct {
	redis  *Redis
	logger *log.Logger
}

// NewRedisRankCache 创建Redis缓存适配器
func NewRedisRankCache(r *Redis, logger *log.Logger) *RedisRankCache {
	return &RedisRankCache{redis: r, logger: logger}
}

// Get 从Redis读取，任何错误都按未命中处理
func (c *RedisRankCache) Get(ctx context.Context, key string) (string, bool) {
	if c.redis == nil {
		return "", false
	}
	val, err := c.redis.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && c.logger != nil {
			c.logger.Printf("读取缓存失败 key=%s: %v", key, err)
		}
		return "", false
	}
	return val, true
}

// SetWithTTL 写入Redis，失败只记录日志
func (c *RedisRankCache) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, key, value, ttl); err != nil && c.logger != nil {
		c.logger.Printf("写入缓存失败 key=%s: %v", key, err)
	}
}

// NoopRankCache 空对象实现，所有读取都未命中，所有写入都丢弃
type NoopRankCache struct{}

// Get 永远未命中
func (NoopRankCache) Get(ctx context.Context, key string) (string, bool) {
	return "", false
}

// SetWithTTL 丢弃写入
func (NoopRankCache) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) {
}
