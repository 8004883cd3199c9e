package repository

import (
	"context"

	"charter/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByPhone retrieves a driver by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Driver, error)

	// ListAvailable retrieves drivers currently available for dispatch,
	// ordered by completed trip count ascending.
	ListAvailable(ctx context.Context) ([]*domain.Driver, error)

	// UpdateStatus updates the status of a driver.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error

	// IncrementCompletedTrips bumps the driver's completed trip counter.
	IncrementCompletedTrips(ctx context.Context, id string) error
}
