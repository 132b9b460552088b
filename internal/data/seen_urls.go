package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// seenKeyPrefix namespaces seen-URL keys in a shared Redis instance.
const seenKeyPrefix = "jobscout:seen:"

// RedisSeenURLCache implements core.SeenURLCache on Redis. It is purely an
// optimization for source fan-out: a false negative only costs a duplicate
// spawn attempt that the spawn guard rejects anyway.
type RedisSeenURLCache struct {
	client redis.UniversalClient
}

// NewRedisSeenURLCache creates a new RedisSeenURLCache with the given Redis client.
func NewRedisSeenURLCache(client redis.UniversalClient) *RedisSeenURLCache {
	return &RedisSeenURLCache{client: client}
}

// seenKey hashes the URL so key length stays bounded for arbitrary listing URLs.
func seenKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return seenKeyPrefix + hex.EncodeToString(sum[:])
}

// Seen reports whether the URL was already fanned out recently.
func (c *RedisSeenURLCache) Seen(ctx context.Context, url string) (bool, error) {
	if url == "" {
		return false, errors.New("url cannot be empty")
	}

	result, err := c.client.Exists(ctx, seenKey(url)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return result > 0, nil
}

// MarkSeen records the URLs with the given TTL.
func (c *RedisSeenURLCache) MarkSeen(ctx context.Context, urls []string, ttl time.Duration) error {
	if len(urls) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	pipe := c.client.Pipeline()
	for _, url := range urls {
		if url == "" {
			continue
		}
		pipe.Set(ctx, seenKey(url), "1", ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline set: %w", err)
	}
	return nil
}

// Health checks the health of the Redis connection.
func (c *RedisSeenURLCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// RedisConfig holds configuration for Redis connection.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// NewRedisClient creates a new Redis client with the given configuration.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
