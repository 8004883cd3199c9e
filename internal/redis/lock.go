package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireBookingLock attempts to acquire the settlement lock for a booking.
// All read-modify-write paths on a booking (payment callbacks and trip
// events alike) must hold this lock. Returns true if acquired.
func (s *LockStore) AcquireBookingLock(ctx context.Context, bookingRef string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:booking:%s", bookingRef)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseBookingLock releases the settlement lock for a booking.
func (s *LockStore) ReleaseBookingLock(ctx context.Context, bookingRef string) error {
	key := fmt.Sprintf("lock:booking:%s", bookingRef)

	return s.client.Del(ctx, key).Err()
}

// AcquireDriverLock attempts to acquire a lock for the given driver.
// Held while dispatch assigns the driver to a booking.
func (s *LockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:driver:%s", driverID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseDriverLock releases the lock for the given driver.
func (s *LockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	key := fmt.Sprintf("lock:driver:%s", driverID)

	return s.client.Del(ctx, key).Err()
}
