package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore caches the available-rides listing in Redis. The listing is a
// snapshot read: slight staleness is acceptable, so mutations simply
// invalidate the key and the next read repopulates it.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// AvailableRidesTTL bounds staleness of the cached listing.
const AvailableRidesTTL = 10 * time.Second

const availableRidesKey = "cache:rides:available"

// CachedRide is the listing projection of a ride.
type CachedRide struct {
	ID                string  `json:"id"`
	DriverID          string  `json:"driver_id"`
	PickupLocation    string  `json:"pickup_location"`
	DropoffLocation   string  `json:"dropoff_location"`
	PickupTime        string  `json:"pickup_time"`
	Fare              float64 `json:"fare"`
	IsGroup           bool    `json:"is_group"`
	MaxPassengers     int     `json:"max_passengers"`
	CurrentPassengers int     `json:"current_passengers"`
	CreatedAt         string  `json:"created_at"`
}

// GetAvailableRides retrieves the cached listing. Returns nil on a miss.
func (s *CacheStore) GetAvailableRides(ctx context.Context) ([]CachedRide, error) {
	data, err := s.client.Get(ctx, availableRidesKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var rides []CachedRide
	if err := json.Unmarshal(data, &rides); err != nil {
		return nil, err
	}
	return rides, nil
}

// SetAvailableRides stores the listing.
func (s *CacheStore) SetAvailableRides(ctx context.Context, rides []CachedRide) error {
	data, err := json.Marshal(rides)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, availableRidesKey, data, AvailableRidesTTL).Err()
}

// InvalidateAvailableRides drops the cached listing after any mutation.
func (s *CacheStore) InvalidateAvailableRides(ctx context.Context) error {
	return s.client.Del(ctx, availableRidesKey).Err()
}
