package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for per-ride locking.
type LockStoreInterface interface {
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error)
	ReleaseRideLock(ctx context.Context, rideID string) error
}

// CacheStoreInterface defines the interface for listing caching.
type CacheStoreInterface interface {
	GetAvailableRides(ctx context.Context) ([]CachedRide, error)
	SetAvailableRides(ctx context.Context, rides []CachedRide) error
	InvalidateAvailableRides(ctx context.Context) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface  = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
)
