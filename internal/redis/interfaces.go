package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireBookingLock(ctx context.Context, bookingRef string, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, bookingRef string) error
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
}

// MessageStoreInterface defines the interface for the system chat message store.
type MessageStoreInterface interface {
	Append(ctx context.Context, msg *SystemMessage) error
	List(ctx context.Context, bookingRef string, limit int) ([]*SystemMessage, error)
	Delete(ctx context.Context, bookingRef string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface    = (*LockStore)(nil)
	_ MessageStoreInterface = (*MessageStore)(nil)
)
