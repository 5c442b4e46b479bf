package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "fyxed:lock:"

var (
	ErrLockNotConfigured = errors.New("lock_not_configured")
	ErrInvalidLock       = errors.New("invalid_lock")
	// ErrLockLost means the key expired or was taken over before Release.
	ErrLockLost          = errors.New("lock_lost")
)

// compare-and-delete: 1 when the caller still held the key, 0 otherwise.
const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker is a single-holder lock on top of SET NX PX.
type Locker struct {
	client  redis.Cmdable
	release *redis.Script
}

// NewLocker returns nil when redis is not configured.
func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client:  client,
		release: redis.NewScript(lockReleaseScript),
	}
}

func lockKey(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return "", ErrInvalidLock
	}
	return lockKeyPrefix + name, nil
}

// TryLock returns the holder token and whether the lock was acquired. A lock
// held by someone else is not an error.
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrLockNotConfigured
	}
	key, err := lockKey(name)
	if err != nil {
		return "", false, err
	}
	if ttl <= 0 {
		return "", false, ErrInvalidLock
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes the key only while it still carries token.
func (l *Locker) Release(ctx context.Context, name, token string) error {
	if l == nil || l.client == nil || token == "" {
		return nil
	}
	key, err := lockKey(name)
	if err != nil {
		return err
	}
	deleted, err := l.release.Run(ctx, l.client, []string{key}, token).Int64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockLost
	}
	return nil
}
