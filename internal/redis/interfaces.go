package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireSweepLock(ctx context.Context, instanceID string, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context, instanceID string) error
}

// AvailabilityCache defines the interface for the seat-availability cache.
type AvailabilityCache interface {
	GetAvailability(ctx context.Context, tripID string) (int, bool, error)
	SetAvailability(ctx context.Context, tripID string, available int) error
	InvalidateAvailability(ctx context.Context, tripID string) error
}

// TripCache defines the interface for the trip-fact cache.
type TripCache interface {
	GetTrip(ctx context.Context, tripID string) (*CachedTrip, error)
	SetTrip(ctx context.Context, trip *CachedTrip) error
	InvalidateTrip(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface = (*LockStore)(nil)
	_ AvailabilityCache  = (*CacheStore)(nil)
	_ TripCache          = (*CacheStore)(nil)
)
