package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const bookingCacheTTL = 5 * time.Minute

// CachedBooking is the subset of booking fields cached for hot reads.
type CachedBooking struct {
	Reference string  `json:"reference"`
	Number    string  `json:"number"`
	Status    string  `json:"status"`
	Total     float64 `json:"total"`
}

// CacheStore handles read caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetBooking retrieves a cached booking snapshot. Returns nil on miss.
func (s *CacheStore) GetBooking(ctx context.Context, ref string) (*CachedBooking, error) {
	key := fmt.Sprintf("cache:booking:%s", ref)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached CachedBooking
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

// SetBooking caches a booking snapshot.
func (s *CacheStore) SetBooking(ctx context.Context, booking *CachedBooking) error {
	key := fmt.Sprintf("cache:booking:%s", booking.Reference)

	data, err := json.Marshal(booking)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, bookingCacheTTL).Err()
}

// InvalidateBooking removes a booking snapshot from the cache. Called
// after every settlement or trip-event write so reads never serve a stale
// status.
func (s *CacheStore) InvalidateBooking(ctx context.Context, ref string) error {
	key := fmt.Sprintf("cache:booking:%s", ref)
	return s.client.Del(ctx, key).Err()
}
