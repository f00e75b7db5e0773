package cache

import (
	"sync"
	"time"
)

// FailureCache 记录每个键最近一次回源失败的时间，用于在故障窗口内直接
// 返回网关错误，避免持续打击出问题的上游。记录从不主动删除：过期记录
// 视同不存在，等待下一次失败覆盖。
type FailureCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]time.Time
}

// NewFailureCache 构建过期窗口为 ttl 的失败缓存。
func NewFailureCache(ttl time.Duration) *FailureCache {
	return &FailureCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

// Record 以当前时间覆盖 key 的失败记录。
func (c *FailureCache) Record(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = c.now()
}

// IsRecent 返回 key 是否存在仍处于过期窗口内的失败记录。
func (c *FailureCache) IsRecent(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	at, ok := c.entries[key]
	if !ok {
		return false
	}
	return c.now().Sub(at) < c.ttl
}

// Len 返回当前记录数（含已过期的），供诊断接口输出。
func (c *FailureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
