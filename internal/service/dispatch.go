package service

import (
	"context"
	"errors"
	"time"

	"charter/internal/domain"
	"charter/internal/lifecycle"
	"charter/internal/redis"
	"charter/internal/repository"
)

const (
	driverLockTTL   = 10 * time.Second
	dispatchLockTTL = 30 * time.Second
)

// DispatchService assigns drivers to paid bookings. Selection is
// deliberately simple: the available driver with the fewest completed
// trips, which spreads work evenly across the fleet.
type DispatchService struct {
	bookingRepo repository.BookingRepository
	driverRepo  repository.DriverRepository
	lockStore   redis.LockStoreInterface
	cacheStore  *redis.CacheStore
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	bookingRepo repository.BookingRepository,
	driverRepo repository.DriverRepository,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
) *DispatchService {
	return &DispatchService{
		bookingRepo: bookingRepo,
		driverRepo:  driverRepo,
		lockStore:   lockStore,
		cacheStore:  cacheStore,
	}
}

// AssignDriver picks a driver for a paid booking and moves the booking to
// ASSIGNED. The booking lock prevents double assignment; the driver lock
// prevents the same driver being handed two bookings concurrently.
func (s *DispatchService) AssignDriver(ctx context.Context, bookingRef string) (*domain.Driver, []domain.Event, error) {
	if bookingRef == "" {
		return nil, nil, ErrInvalidBookingID
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireBookingLock(ctx, bookingRef, dispatchLockTTL)
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

	if !lifecycle.CanTransition(booking.Status, domain.EventAssignDriver) {
		return nil, nil, ErrBookingNotPayable
	}

	candidates, err := s.driverRepo.ListAvailable(ctx)
	if err != nil {
		return nil, nil, err
	}

	// Candidates arrive ordered by completed trips ascending; take the
	// first one whose lock we win and who is still available.
	for _, candidate := range candidates {
		if s.lockStore != nil {
			locked, err := s.lockStore.AcquireDriverLock(ctx, candidate.ID, driverLockTTL)
			if err != nil {
				return nil, nil, err
			}
			if !locked {
				continue
			}
		}

		driver, err := s.driverRepo.GetByID(ctx, candidate.ID)
		if err != nil {
			s.releaseDriver(ctx, candidate.ID)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, nil, err
		}

		if driver.Status != domain.DriverStatusAvailable {
			s.releaseDriver(ctx, candidate.ID)
			continue
		}

		events, err := s.assign(ctx, booking, driver)
		if err != nil {
			s.releaseDriver(ctx, candidate.ID)
			return nil, nil, err
		}

		// Driver lock expires via TTL.
		return driver, events, nil
	}

	return nil, nil, ErrNoDriverAvailable
}

func (s *DispatchService) assign(ctx context.Context, booking *domain.Booking, driver *domain.Driver) ([]domain.Event, error) {
	now := time.Now()
	rec, err := lifecycle.Apply(booking, domain.EventAssignDriver, now)
	if err != nil {
		return nil, err
	}
	booking.DriverID = driver.ID

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	if err := s.driverRepo.UpdateStatus(ctx, driver.ID, domain.DriverStatusAssigned); err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateBooking(ctx, booking.Reference)
	}

	events := []domain.Event{
		NewEvent(domain.EventKindDriverAssigned, booking.Reference, map[string]any{
			"booking":     booking,
			"driver":      driver,
			"driver_name": driver.Name,
		}),
		NewEvent(domain.EventKindBookingStatusChanged, booking.Reference, map[string]any{
			"booking": booking,
			"from":    rec.From,
			"to":      rec.To,
			"event":   rec.Event,
		}),
	}

	return events, nil
}

// ConfirmDriver records the assigned driver accepting the booking.
func (s *DispatchService) ConfirmDriver(ctx context.Context, bookingRef, driverID string) (*domain.Booking, []domain.Event, error) {
	return s.driverDecision(ctx, bookingRef, driverID, domain.EventDriverAccept)
}

// RejectDriver records the assigned driver declining. The booking returns
// to the dispatch pool and the driver becomes available again.
func (s *DispatchService) RejectDriver(ctx context.Context, bookingRef, driverID string) (*domain.Booking, []domain.Event, error) {
	booking, events, err := s.driverDecision(ctx, bookingRef, driverID, domain.EventDriverReject)
	if err != nil {
		return nil, nil, err
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusAvailable); err != nil {
		return nil, nil, err
	}

	return booking, events, nil
}

func (s *DispatchService) driverDecision(ctx context.Context, bookingRef, driverID string, event domain.BookingEvent) (*domain.Booking, []domain.Event, error) {
	if bookingRef == "" {
		return nil, nil, ErrInvalidBookingID
	}
	if driverID == "" {
		return nil, nil, ErrInvalidDriverID
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireBookingLock(ctx, bookingRef, dispatchLockTTL)
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

	if event == domain.EventDriverReject {
		booking.DriverID = ""
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
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

func (s *DispatchService) releaseDriver(ctx context.Context, driverID string) {
	if s.lockStore != nil {
		_ = s.lockStore.ReleaseDriverLock(ctx, driverID)
	}
}
