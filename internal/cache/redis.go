// Package cache provides tamperfy.Cache backends.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a cached detection result stays valid.
const DefaultTTL = 24 * time.Hour

const keyNamespace = "tamperfy"

// Redis stores detection results as JSON in Redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the server at url (redis://[:password@]host:port/db).
// The connection is lazy; an unreachable server only makes lookups miss.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Key hashes value so arbitrary URLs make bounded, safe keys.
func (c *Redis) Key(prefix, value string) string {
	sum := sha256.Sum256([]byte(value))
	return keyNamespace + ":" + prefix + ":" + hex.EncodeToString(sum[:16])
}

// Get decodes the cached value at key into dest. Misses, connection errors
// and undecodable entries all report false.
func (c *Redis) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("cache: get failed", "key", key, "error", err.Error())
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		slog.Debug("cache: corrupt entry", "key", key, "error", err.Error())
		return false
	}
	return true
}

// Set stores value at key with the configured TTL. Failures are logged only.
func (c *Redis) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Debug("cache: encode failed", "key", key, "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Debug("cache: set failed", "key", key, "error", err.Error())
	}
}

// Ping checks that the server is reachable.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}
