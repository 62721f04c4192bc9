package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/temba/backend/pkg/uuids"
)

const lockPrefix = "lock:"

// unlockScript deletes the lock only if it still holds the caller's token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker hands out expiring locks shared between instances
type RedisLocker struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLocker creates a locker over a shared client
func NewRedisLocker(client *redis.Client, keyPrefix string) *RedisLocker {
	return &RedisLocker{client: client, keyPrefix: keyPrefix + lockPrefix}
}

// TryLock takes the lock if it is free. The returned token is needed to
// release it. A lock that isn't released expires after ttl.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuids.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases the lock if token still holds it
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	if err := unlockScript.Run(ctx, l.client, []string{l.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}

// InMemoryLocker hands out expiring locks within one process
type InMemoryLocker struct {
	*memoryStore
}

// NewInMemoryLocker creates a new in-memory locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{memoryStore: newMemoryStore()}
}

// TryLock takes the lock if it is free
func (l *InMemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuids.NewString()
	if !l.setNX(key, []byte(token), ttl) {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases the lock if token still holds it
func (l *InMemoryLocker) Unlock(ctx context.Context, key, token string) error {
	l.deleteIfValue(key, []byte(token))
	return nil
}
