package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cineverse:resp:"

// Redis is a response cache shared between processes.
// Keys are hashed URLs; the full URL is stored next to the body so a hash
// collision is treated as a miss.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedis wraps an existing client
func NewRedis(client *redis.Client, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, logger: logger}
}

func buildKey(url string) string {
	return fmt.Sprintf("%s%016x", keyPrefix, xxhash.Sum64String(url))
}

func (c *Redis) Get(ctx context.Context, url string) ([]byte, bool) {
	vals, err := c.client.HMGet(ctx, buildKey(url), "url", "body").Result()
	if err != nil {
		c.logger.Warn("redis cache get failed", "error", err)
		return nil, false
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, false
	}
	if stored, _ := vals[0].(string); stored != url {
		return nil, false
	}
	body, ok := vals[1].(string)
	if !ok {
		return nil, false
	}
	return []byte(body), true
}

func (c *Redis) Set(ctx context.Context, url string, body []byte) error {
	if err := c.client.HSet(ctx, buildKey(url), "url", url, "body", body).Err(); err != nil {
		return fmt.Errorf("failed to set response in cache: %w", err)
	}
	return nil
}

// Clear deletes every cached response under the cineverse prefix
func (c *Redis) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

func (c *Redis) Len(ctx context.Context) int {
	n := 0
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("redis cache scan failed", "error", err)
	}
	return n
}

// Ping checks connectivity
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
