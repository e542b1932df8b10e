package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker gates pipeline stages so overlapping trigger invocations of the
// same stage skip instead of racing. Acquire returns false when the lock is
// already held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLocker implements Locker on Redis SET NX with a TTL, so a crashed
// worker releases its lock by expiry.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, "1", ttl).Result()
}

func (r *RedisLocker) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
