package service

import (
	"context"
	"database/sql"
	"math"
	"time"

	"charter/internal/domain"
	"charter/internal/lifecycle"
	"charter/internal/redis"
	"charter/internal/repository"
	"charter/internal/repository/postgres"
)

const tripEventLockTTL = 10 * time.Second

// TripService handles driver trip events. Every event goes through the
// same state machine and the same per-booking lock as payment callbacks,
// so a driver event and a settlement can never race on one booking.
type TripService struct {
	db          *sql.DB
	bookingRepo repository.BookingRepository
	driverRepo  repository.DriverRepository
	lockStore   redis.LockStoreInterface
	cacheStore  *redis.CacheStore
}

// NewTripService creates a new TripService.
func NewTripService(
	db *sql.DB,
	bookingRepo repository.BookingRepository,
	driverRepo repository.DriverRepository,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
) *TripService {
	return &TripService{
		db:          db,
		bookingRepo: bookingRepo,
		driverRepo:  driverRepo,
		lockStore:   lockStore,
		cacheStore:  cacheStore,
	}
}

// Depart records that the driver set off toward the pickup point.
func (s *TripService) Depart(ctx context.Context, bookingRef, driverID string) (*domain.Booking, []domain.Event, error) {
	return s.applyDriverEvent(ctx, bookingRef, driverID, domain.EventDriverDepart, func(b *domain.Booking, now time.Time) {
		b.DepartedAt = now
	})
}

// Arrive records that the driver reached the pickup point.
func (s *TripService) Arrive(ctx context.Context, bookingRef, driverID string) (*domain.Booking, []domain.Event, error) {
	return s.applyDriverEvent(ctx, bookingRef, driverID, domain.EventDriverArrive, func(b *domain.Booking, now time.Time) {
		b.ArrivedAt = now
	})
}

// StartTrip records the trip start.
func (s *TripService) StartTrip(ctx context.Context, bookingRef, driverID string) (*domain.Booking, []domain.Event, error) {
	return s.applyDriverEvent(ctx, bookingRef, driverID, domain.EventStartTrip, func(b *domain.Booking, now time.Time) {
		b.TripStartedAt = now
	})
}

// EndTrip records the trip end, derives the overtime fee from the booked
// hours, and frees the driver. The booking lands in TRIP_ENDED with the
// balance (including overtime) awaiting settlement.
func (s *TripService) EndTrip(ctx context.Context, bookingRef, driverID string) (*domain.Booking, []domain.Event, error) {
	booking, events, err := s.applyDriverEvent(ctx, bookingRef, driverID, domain.EventEndTrip, func(b *domain.Booking, now time.Time) {
		b.TripEndedAt = now
		b.OvertimeFeeAmount = overtimeFee(b, now)
		b.TotalAmount += b.OvertimeFeeAmount
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusAvailable); err != nil {
		return nil, nil, err
	}
	if err := s.driverRepo.IncrementCompletedTrips(ctx, driverID); err != nil {
		return nil, nil, err
	}

	return booking, events, nil
}

// applyDriverEvent runs one lifecycle event under the booking lock after
// checking the caller is the assigned driver.
func (s *TripService) applyDriverEvent(ctx context.Context, bookingRef, driverID string, event domain.BookingEvent, mutate func(*domain.Booking, time.Time)) (*domain.Booking, []domain.Event, error) {
	if bookingRef == "" {
		return nil, nil, ErrInvalidBookingID
	}
	if driverID == "" {
		return nil, nil, ErrInvalidDriverID
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireBookingLock(ctx, bookingRef, tripEventLockTTL)
		if err != nil {
			return nil, nil, err
		}
		if !locked {
			return nil, nil, ErrBookingLocked
		}
		defer s.lockStore.ReleaseBookingLock(ctx, bookingRef)
	}

	booking, err := s.bookingRepo.GetByReference(ctx, bookingRef)
	if err != nil {
		return nil, nil, err
	}

	if booking.DriverID != driverID {
		return nil, nil, ErrDriverNotAssignedToBooking
	}

	now := time.Now()
	rec, err := lifecycle.Apply(booking, event, now)
	if err != nil {
		return nil, nil, err
	}
	mutate(booking, now)

	if err := s.updateBooking(ctx, booking); err != nil {
		return nil, nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateBooking(ctx, bookingRef)
	}

	events := []domain.Event{
		NewEvent(domain.EventKindBookingStatusChanged, bookingRef, map[string]any{
			"booking": booking,
			"from":    rec.From,
			"to":      rec.To,
			"event":   rec.Event,
		}),
	}

	return booking, events, nil
}

func (s *TripService) updateBooking(ctx context.Context, booking *domain.Booking) error {
	if s.db == nil {
		return s.bookingRepo.Update(ctx, booking)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := postgres.NewBookingRepositoryWithTx(tx).Update(ctx, booking); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// overtimeFee charges each started hour beyond the booked duration at the
// booking's snapshotted hourly rate.
func overtimeFee(b *domain.Booking, endedAt time.Time) float64 {
	if b.TripStartedAt.IsZero() || b.BookedHours <= 0 || b.OvertimeHourlyRate <= 0 {
		return 0
	}

	actualHours := endedAt.Sub(b.TripStartedAt).Hours()
	extra := actualHours - b.BookedHours
	if extra <= 0 {
		return 0
	}

	return math.Ceil(extra) * b.OvertimeHourlyRate
}
