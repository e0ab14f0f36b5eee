package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore handles Redis operations for rate limiting counters.
// Presence itself is deliberately in-process (one server owns the
// registry); Redis only backs the HTTP surface's abuse protection.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Client exposes the underlying client for middleware that needs
// pipelined access.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// rateLimitKey returns the key for a caller's rate limit counter.
func rateLimitKey(bucket, caller string) string {
	return fmt.Sprintf("ratelimit:%s:%s", bucket, caller)
}

// CheckRateLimit reports whether the caller is under the limit for a
// bucket.
func (s *RedisStore) CheckRateLimit(ctx context.Context, bucket, caller string, limit int) (bool, error) {
	count, err := s.client.Get(ctx, rateLimitKey(bucket, caller)).Int()
	if err != nil && err != redis.Nil {
		return false, err
	}
	return count < limit, nil
}

// IncrementRateLimit increments the caller's counter, setting the
// window TTL on first use.
func (s *RedisStore) IncrementRateLimit(ctx context.Context, bucket, caller string, window time.Duration) error {
	key := rateLimitKey(bucket, caller)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	return err
}
