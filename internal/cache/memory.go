package cache

import (
	"sync"
	"time"
)

// memoryEntry 持有不可变的正文副本及其写入时间戳。条目只会被整体替换，
// 不会原地修改。
type memoryEntry struct {
	data     []byte
	storedAt time.Time
}

// MemoryCache 是容量受限的内存缓存层。淘汰按“写入时间最旧”进行：读取
// 不会刷新条目的时间戳，这一点与访问序 LRU 不同，是刻意保留的语义。
type MemoryCache struct {
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]memoryEntry
}

// NewMemoryCache 构建容量为 capacity、过期窗口为 ttl 的内存缓存。
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]memoryEntry, capacity),
	}
}

// Get 返回 key 对应的正文。条目缺失或已超出过期窗口时返回 miss；
// 过期条目不会在读路径上被删除，留待后续写入覆盖或淘汰。
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.data, true
}

// Put 以当前时间戳写入/覆盖条目。当插入新键且缓存已满时，先淘汰写入
// 时间最旧的一个条目（并列时任选）；覆盖已有键不触发淘汰。
func (c *MemoryCache) Put(key string, data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = memoryEntry{
		data:     buf,
		storedAt: c.now(),
	}
}

// Len 返回当前条目数，供诊断接口输出。
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldestLocked 线性扫描写入时间最旧的条目并删除。容量只有几十个
// 条目，线性扫描足够。调用方必须已持有写锁。
func (c *MemoryCache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, entry := range c.entries {
		if !found || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
			found = true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}
