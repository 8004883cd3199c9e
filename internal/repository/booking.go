package repository

import (
	"context"

	"charter/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByReference retrieves a booking by its opaque reference.
	GetByReference(ctx context.Context, ref string) (*domain.Booking, error)

	// GetByNumber retrieves a booking by its human-facing booking number.
	GetByNumber(ctx context.Context, number string) (*domain.Booking, error)

	// Update persists all mutable fields of an existing booking.
	Update(ctx context.Context, booking *domain.Booking) error

	// ListRecent retrieves the most recently created bookings, newest
	// first. Used to resolve truncated legacy order identifiers.
	ListRecent(ctx context.Context, limit int) ([]*domain.Booking, error)

	// FlagForReview marks a booking for manual operator review without
	// touching its status.
	FlagForReview(ctx context.Context, ref string, reason string) error
}
