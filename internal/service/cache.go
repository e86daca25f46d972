package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"vetchat/pkg/logging"
)

// ResponseCache stores general-question replies keyed by normalised message hash.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, reply string)
	// Sweep reports how many entries were dropped since the previous call.
	Sweep(ctx context.Context) int
}

// MemoryResponseCache is a bounded LRU with a per-entry TTL. Expired entries
// are purged in the background by the underlying LRU.
type MemoryResponseCache struct {
	lru     *expirable.LRU[string, string]
	evicted atomic.Int64
}

func NewMemoryResponseCache(capacity int, ttl time.Duration) *MemoryResponseCache {
	if capacity <= 0 {
		capacity = 500
	}
	c := &MemoryResponseCache{}
	c.lru = expirable.NewLRU[string, string](capacity, func(string, string) {
		c.evicted.Add(1)
	}, ttl)
	return c
}

func (c *MemoryResponseCache) Get(_ context.Context, key string) (string, bool) {
	return c.lru.Get(key)
}

func (c *MemoryResponseCache) Set(_ context.Context, key, reply string) {
	c.lru.Add(key, reply)
}

// Sweep reports how many entries were dropped, by expiry or by the size
// bound, since the previous call.
func (c *MemoryResponseCache) Sweep(context.Context) int {
	return int(c.evicted.Swap(0))
}

// Len reports the number of entries, including expired ones not yet purged.
func (c *MemoryResponseCache) Len() int {
	return c.lru.Len()
}

const redisReplyPrefix = "vetchat:reply:"

// RedisResponseCache shares replies across server instances. Redis expires
// keys itself, so Sweep is a no-op. Redis errors are logged and read as misses.
type RedisResponseCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logging.Logger
}

func NewRedisResponseCache(client redis.Cmdable, ttl time.Duration, logger *logging.Logger) *RedisResponseCache {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisResponseCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisResponseCache) Get(ctx context.Context, key string) (string, bool) {
	reply, err := c.client.Get(ctx, redisReplyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache get failed", "error", err)
		}
		return "", false
	}
	return reply, true
}

func (c *RedisResponseCache) Set(ctx context.Context, key, reply string) {
	if err := c.client.Set(ctx, redisReplyPrefix+key, reply, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache set failed", "error", err)
	}
}

func (c *RedisResponseCache) Sweep(context.Context) int {
	return 0
}
