package caching

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rentabill:"

// RedisCache is the optional shared-backend cache, for deployments that want
// cached collections to survive a process restart. TTL maps onto redis key
// expiry; substring invalidation scans for matching keys.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redis and verifies connectivity with a ping. A
// failed ping is logged, not fatal: every cache operation degrades to a miss
// while redis is unreachable.
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("WARN: redis get %s failed: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte) {
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		log.Printf("WARN: redis set %s failed: %v", key, err)
	}
}

// Invalidate deletes every key containing pattern. SCAN keeps the traversal
// incremental; the key space here is a handful of collection snapshots, so a
// full pass is cheap.
func (c *RedisCache) Invalidate(ctx context.Context, pattern string) {
	c.deleteMatching(ctx, fmt.Sprintf("%s*%s*", redisKeyPrefix, pattern))
}

func (c *RedisCache) InvalidateAll(ctx context.Context) {
	c.deleteMatching(ctx, redisKeyPrefix+"*")
}

func (c *RedisCache) deleteMatching(ctx context.Context, match string) {
	iter := c.client.Scan(ctx, 0, match, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("WARN: redis scan %s failed: %v", match, err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			log.Printf("WARN: redis del failed: %v", err)
		}
	}
}

func (c *RedisCache) Kind() string { return "redis" }
