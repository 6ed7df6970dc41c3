package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	AvailabilityCacheTTL = 5 * time.Second  // Seat counts move fast during sales
	TripCacheTTL         = 60 * time.Second // Trip facts change rarely
)

// Key prefixes
const (
	availabilityCachePrefix = "cache:availability:"
	tripCachePrefix         = "cache:trip:"
)

// CachedTrip represents a cached trip fact.
type CachedTrip struct {
	ID          string    `json:"id"`
	RouteID     string    `json:"route_id"`
	VehicleID   string    `json:"vehicle_id"`
	DepartureAt time.Time `json:"departure_at"`
	ArrivalAt   time.Time `json:"arrival_at"`
	Capacity    int       `json:"capacity"`
	Price       float64   `json:"price"`
}

// GetAvailability retrieves a trip's cached seat availability.
// The second return is false on a cache miss.
func (s *CacheStore) GetAvailability(ctx context.Context, tripID string) (int, bool, error) {
	key := availabilityCachePrefix + tripID
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil // Cache miss
		}
		return 0, false, err
	}

	available, err := strconv.Atoi(data)
	if err != nil {
		return 0, false, nil
	}

	return available, true, nil
}

// SetAvailability caches a trip's seat availability.
func (s *CacheStore) SetAvailability(ctx context.Context, tripID string, available int) error {
	key := availabilityCachePrefix + tripID
	return s.client.Set(ctx, key, strconv.Itoa(available), AvailabilityCacheTTL).Err()
}

// InvalidateAvailability drops a trip's cached availability. Called after
// every hold, commit and release so readers never see a stale count beyond
// the cache TTL.
func (s *CacheStore) InvalidateAvailability(ctx context.Context, tripID string) error {
	key := availabilityCachePrefix + tripID
	return s.client.Del(ctx, key).Err()
}

// GetTrip retrieves a trip from cache.
func (s *CacheStore) GetTrip(ctx context.Context, tripID string) (*CachedTrip, error) {
	key := tripCachePrefix + tripID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var trip CachedTrip
	if err := json.Unmarshal(data, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// SetTrip stores a trip in cache.
func (s *CacheStore) SetTrip(ctx context.Context, trip *CachedTrip) error {
	key := tripCachePrefix + trip.ID
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, TripCacheTTL).Err()
}

// InvalidateTrip removes a trip from cache.
func (s *CacheStore) InvalidateTrip(ctx context.Context, tripID string) error {
	key := tripCachePrefix + tripID
	return s.client.Del(ctx, key).Err()
}
