package linkpreview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces the dedupe keys in Redis.
const KeyPrefix = "relay:linkpreview:"

// Cache remembers which links were fetched recently.
type Cache interface {
	// Claim marks link as being fetched for ttl. It reports true when the
	// caller should fetch, false when a fetch is already cached.
	Claim(ctx context.Context, link string, ttl time.Duration) (bool, error)
}

// RedisCache is a Cache shared between relay instances.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// CacheKey returns the Redis key of link.
func CacheKey(link string) string {
	return KeyPrefix + link
}

func (c *RedisCache) Claim(ctx context.Context, link string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, CacheKey(link), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim link: %w", err)
	}
	return ok, nil
}

// MemoryCache is a process local Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{expires: make(map[string]time.Time), now: time.Now}
}

func (c *MemoryCache) Claim(_ context.Context, link string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if exp, ok := c.expires[link]; ok && now.Before(exp) {
		return false, nil
	}
	for k, exp := range c.expires {
		if !now.Before(exp) {
			delete(c.expires, k)
		}
	}
	c.expires[link] = now.Add(ttl)
	return true, nil
}
