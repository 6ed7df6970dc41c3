package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "lock:sweep"

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireSweepLock attempts to acquire the expiry-sweep leader lock so only
// one instance runs the sweep at a time. Returns true if the lock was
// acquired, false if another instance holds it.
func (s *LockStore) AcquireSweepLock(ctx context.Context, instanceID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, sweepLockKey, instanceID, ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseSweepLock releases the sweep leader lock if this instance holds it.
func (s *LockStore) ReleaseSweepLock(ctx context.Context, instanceID string) error {
	// Only delete our own lock; a crashed holder's lock expires via TTL.
	held, err := s.client.Get(ctx, sweepLockKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}

	if held != instanceID {
		return nil
	}

	return s.client.Del(ctx, sweepLockKey).Err()
}
