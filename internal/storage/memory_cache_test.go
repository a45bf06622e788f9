package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRankCacheSetAndGet(t *testing.T) {
	cache := NewMemoryRankCache(4)
	ctx := context.Background()

	cache.SetWithTTL(ctx, "k1", "v1", time.Minute)
	value, ok := cache.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, "v1", value)

	_, ok = cache.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemoryRankCacheTTLExpiry(t *testing.T) {
	cache := NewMemoryRankCache(4)
	ctx := context.Background()

	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }
	cache.SetWithTTL(ctx, "k1", "v1", 10*time.Minute)

	// 推进到过期前一秒仍可读
	cache.now = func() time.Time { return base.Add(10*time.Minute - time.Second) }
	_, ok := cache.Get(ctx, "k1")
	assert.True(t, ok)

	// 过期后读取返回未命中并清除条目
	cache.now = func() time.Time { return base.Add(11 * time.Minute) }
	_, ok = cache.Get(ctx, "k1")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryRankCacheZeroTTLIgnored(t *testing.T) {
	cache := NewMemoryRankCache(4)
	ctx := context.Background()

	cache.SetWithTTL(ctx, "k1", "v1", 0)
	_, ok := cache.Get(ctx, "k1")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryRankCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewMemoryRankCache(3)
	ctx := context.Background()

	cache.SetWithTTL(ctx, "k1", "v1", time.Minute)
	cache.SetWithTTL(ctx, "k2", "v2", time.Minute)
	cache.SetWithTTL(ctx, "k3", "v3", time.Minute)

	// 访问k1使其成为最近使用，k2成为淘汰候选
	_, ok := cache.Get(ctx, "k1")
	require.True(t, ok)

	cache.SetWithTTL(ctx, "k4", "v4", time.Minute)
	assert.Equal(t, 3, cache.Len())

	_, ok = cache.Get(ctx, "k2")
	assert.False(t, ok, "最久未使用的条目应被淘汰")
	for _, key := range []string{"k1", "k3", "k4"} {
		_, ok := cache.Get(ctx, key)
		assert.True(t, ok, key)
	}
}

func TestMemoryRankCacheOverwriteSameKey(t *testing.T) {
	cache := NewMemoryRankCache(2)
	ctx := context.Background()

	cache.SetWithTTL(ctx, "k1", "v1", time.Minute)
	cache.SetWithTTL(ctx, "k1", "v2", time.Minute)

	value, ok := cache.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, "v2", value)
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryRankCacheDefaultCapacity(t *testing.T) {
	cache := NewMemoryRankCache(0)
	ctx := context.Background()

	for i := 0; i < 1100; i++ {
		cache.SetWithTTL(ctx, fmt.Sprintf("k%d", i), "v", time.Minute)
	}
	assert.Equal(t, 1024, cache.Len())
}
