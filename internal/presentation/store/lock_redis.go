package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vaultflow/internal/sentinel"
	platformsync "vaultflow/pkg/platform/sync"
)

const (
	lockKeyPrefix = "request_cycle_lock:"

	defaultLockTTL       = 30 * time.Second
	defaultLockRetryWait = 25 * time.Millisecond
)

// releaseScript deletes the lock only while it still carries the holder's
// token, so an expired holder never frees a lock taken over by another.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes cycle updates across every instance sharing one
// Redis. Callers in the same process queue on a local mutex first so only
// one of them polls Redis per key.
type RedisLocker struct {
	client    redis.Cmdable
	ttl       time.Duration
	retryWait time.Duration
	local     *platformsync.ShardedMutex
}

// NewRedisLocker constructs a Redis-backed session lock. ttl bounds how
// long a crashed holder can block a session.
func NewRedisLocker(client redis.Cmdable, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{
		client:    client,
		ttl:       ttl,
		retryWait: defaultLockRetryWait,
		local:     platformsync.NewShardedMutex(),
	}
}

// WithLock runs fn while holding the key's lock. It waits until the lock is
// free or ctx is done, in which case the error wraps sentinel.ErrUnavailable.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	return l.local.WithLock(key, func() error {
		lockKey := lockKeyPrefix + key
		token := uuid.NewString()
		if err := l.acquire(ctx, lockKey, token); err != nil {
			return err
		}
		fnErr := fn()
		// Release even when the request context is already cancelled.
		releaseErr := releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{lockKey}, token).Err()
		if fnErr != nil {
			return fnErr
		}
		if releaseErr != nil {
			return fmt.Errorf("release cycle lock: %w", releaseErr)
		}
		return nil
	})
}

func (l *RedisLocker) acquire(ctx context.Context, lockKey, token string) error {
	ticker := time.NewTicker(l.retryWait)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("acquire cycle lock: %w: %w", sentinel.ErrUnavailable, ctxErr)
			}
			return fmt.Errorf("acquire cycle lock: %w", err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("acquire cycle lock: %w: %w", sentinel.ErrUnavailable, ctx.Err())
		case <-ticker.C:
		}
	}
}
