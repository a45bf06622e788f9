package storage

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// memoryCacheEntry 进程内缓存条目，写入后不可变
type memoryCacheEntry struct {
	key       string
	value     string
	expiresAt time.Time
}

// MemoryRankCache 有界的进程内TTL缓存，在未配置Redis时作为替代。
// 过期在读取时检查，不做后台清扫；容量满时淘汰最久未使用的条目，
// 避免长期运行下的无界内存增长。
type MemoryRankCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // 头部为最近使用

	// now 可在测试中替换以控制过期判定
	now func() time.Time
}

// NewMemoryRankCache 创建进程内缓存，capacity<=0时使用默认容量1024
func NewMemoryRankCache(capacity int) *MemoryRankCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryRankCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get 读取缓存值，过期条目在此处被删除
func (c *MemoryRankCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := elem.Value.(*memoryCacheEntry)
	if c.now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return "", false
	}

	c.order.MoveToFront(elem)
	return entry.value, true
}

// SetWithTTL 写入缓存值；同key重复写入直接替换
func (c *MemoryRankCache) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value = &memoryCacheEntry{key: key, value: value, expiresAt: c.now().Add(ttl)}
		c.order.MoveToFront(elem)
		return
	}

	// 容量已满时淘汰尾部条目
	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*memoryCacheEntry).key)
	}

	elem := c.order.PushFront(&memoryCacheEntry{key: key, value: value, expiresAt: c.now().Add(ttl)})
	c.entries[key] = elem
}

// Len 返回当前条目数（含已过期未清除的）
func (c *MemoryRankCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
