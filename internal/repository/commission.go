package repository

import (
	"context"

	"charter/internal/domain"
)

// CommissionRepository defines the persistence operations for promo-usage
// commission snapshots.
type CommissionRepository interface {
	// Create persists a new commission record.
	Create(ctx context.Context, record *domain.CommissionRecord) error

	// GetByBookingID retrieves the commission record for a booking.
	// Returns nil if the booking used no promo code.
	GetByBookingID(ctx context.Context, bookingRef string) (*domain.CommissionRecord, error)
}

// PromoRepository defines read access to influencer promo configuration.
type PromoRepository interface {
	// GetByCode retrieves an active promo code configuration.
	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)
}
