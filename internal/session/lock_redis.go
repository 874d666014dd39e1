package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kitstock/pkg/platform/sentinel"
)

// DefaultLockTTL bounds how long a crashed session can hold its addresses.
const DefaultLockTTL = 5 * time.Minute

// RedisLocker implements address locks shared across nodes. Each address is
// a SETNX key owned by the session; TTL reaps locks from dead sessions.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func lockKey(addr string) string {
	return "kitstock:lock:" + addr
}

func (l *RedisLocker) Acquire(ctx context.Context, sessionID string, addresses []string) error {
	var taken []string
	for _, addr := range addresses {
		ok, err := l.client.SetNX(ctx, lockKey(addr), sessionID, l.ttl).Result()
		if err != nil {
			_ = l.Release(ctx, sessionID, taken)
			return fmt.Errorf("acquire lock %s: %w", addr, err)
		}
		if !ok {
			owner, err := l.client.Get(ctx, lockKey(addr)).Result()
			if err == nil && owner == sessionID {
				// Re-entrant: this session already holds it.
				taken = append(taken, addr)
				continue
			}
			_ = l.Release(ctx, sessionID, taken)
			return sentinel.ErrLocked
		}
		taken = append(taken, addr)
	}
	return nil
}

func (l *RedisLocker) Release(ctx context.Context, sessionID string, addresses []string) error {
	for _, addr := range addresses {
		owner, err := l.client.Get(ctx, lockKey(addr)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return fmt.Errorf("release lock %s: %w", addr, err)
		}
		if owner != sessionID {
			continue
		}
		if err := l.client.Del(ctx, lockKey(addr)).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", addr, err)
		}
	}
	return nil
}
