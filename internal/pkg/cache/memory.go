package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// memoryCache is the process-local fallback used when no Redis address is set.
type memoryCache struct {
	mu          sync.RWMutex
	items       map[string]memoryItem
	serviceName string
	now         func() time.Time
}

func NewMemoryCache(serviceName string) Cache {
	return &memoryCache{
		items:       make(map[string]memoryItem),
		serviceName: serviceName,
		now:         time.Now,
	}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = c.item(value, ttl)
	return nil
}

func (c *memoryCache) SetNX(_ context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.items[key]; ok && !c.expired(cur) {
		return false, nil
	}
	c.items[key] = c.item(value, ttl)
	return true, nil
}

func (c *memoryCache) item(value interface{}, ttl time.Duration) memoryItem {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	item := memoryItem{value: s}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}
	return item
}

func (c *memoryCache) expired(item memoryItem) bool {
	return !item.expiresAt.IsZero() && c.now().After(item.expiresAt)
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if c.expired(item) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return "", nil
	}
	return item.value, nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *memoryCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", c.serviceName, operation, key)
}
