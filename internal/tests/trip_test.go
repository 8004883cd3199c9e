package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"charter/internal/domain"
	"charter/internal/service"
)

func newTripFixture() (*MockBookingRepository, *MockDriverRepository, *service.TripService) {
	bookings := NewMockBookingRepository()
	drivers := NewMockDriverRepository()
	svc := service.NewTripService(nil, bookings, drivers, NewMockLockStore(), nil)
	return bookings, drivers, svc
}

func tripBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		Reference:          "c200a000-0000-4000-8000-000000000200",
		Number:             "BK1700000000200",
		CustomerID:         "cust-1",
		DriverID:           "d-1",
		Status:             status,
		BookedHours:        4,
		BasePrice:          2000,
		DepositAmount:      500,
		BalanceAmount:      1500,
		TotalAmount:        2000,
		OvertimeHourlyRate: 100,
		CreatedAt:          time.Now(),
	}
}

func TestTripEventSequence(t *testing.T) {
	t.Parallel()

	bookings, drivers, svc := newTripFixture()
	booking := tripBooking(domain.BookingStatusDriverConfirmed)
	bookings.AddBooking(booking)
	drivers.AddDriver(&domain.Driver{ID: "d-1", Status: domain.DriverStatusAssigned})
	ctx := context.Background()

	steps := []struct {
		name  string
		apply func(context.Context, string, string) (*domain.Booking, []domain.Event, error)
		want  domain.BookingStatus
	}{
		{"depart", svc.Depart, domain.BookingStatusDriverDeparted},
		{"arrive", svc.Arrive, domain.BookingStatusDriverArrived},
		{"start", svc.StartTrip, domain.BookingStatusTripStarted},
		{"end", svc.EndTrip, domain.BookingStatusTripEnded},
	}

	for _, step := range steps {
		updated, _, err := step.apply(ctx, booking.Reference, "d-1")
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if updated.Status != step.want {
			t.Fatalf("%s: status = %s, want %s", step.name, updated.Status, step.want)
		}
	}

	stored := bookings.GetBooking(booking.Reference)
	if stored.DepartedAt.IsZero() || stored.ArrivedAt.IsZero() || stored.TripStartedAt.IsZero() || stored.TripEndedAt.IsZero() {
		t.Error("trip timestamps not recorded")
	}

	// Trip ended within booked hours: no overtime.
	if stored.OvertimeFeeAmount != 0 {
		t.Errorf("overtime = %.2f, want 0", stored.OvertimeFeeAmount)
	}

	driver := drivers.GetDriver("d-1")
	if driver.Status != domain.DriverStatusAvailable {
		t.Error("driver not freed after trip end")
	}
	if driver.CompletedTrips != 1 {
		t.Errorf("completed trips = %d, want 1", driver.CompletedTrips)
	}
}

func TestEndTripChargesOvertime(t *testing.T) {
	t.Parallel()

	bookings, drivers, svc := newTripFixture()
	booking := tripBooking(domain.BookingStatusTripStarted)
	// 4 booked hours, trip actually ran about 5.5: two started hours extra.
	booking.TripStartedAt = time.Now().Add(-5*time.Hour - 30*time.Minute)
	bookings.AddBooking(booking)
	drivers.AddDriver(&domain.Driver{ID: "d-1", Status: domain.DriverStatusOnTrip})

	updated, _, err := svc.EndTrip(context.Background(), booking.Reference, "d-1")
	if err != nil {
		t.Fatalf("EndTrip: %v", err)
	}

	if updated.OvertimeFeeAmount != 200 {
		t.Errorf("overtime = %.2f, want 200", updated.OvertimeFeeAmount)
	}
	if updated.TotalAmount != 2200 {
		t.Errorf("total = %.2f, want 2200", updated.TotalAmount)
	}
	if updated.BalanceDue() != 1700 {
		t.Errorf("balance due = %.2f, want 1700", updated.BalanceDue())
	}
}

func TestTripEventsRequireAssignedDriver(t *testing.T) {
	t.Parallel()

	bookings, drivers, svc := newTripFixture()
	booking := tripBooking(domain.BookingStatusDriverConfirmed)
	bookings.AddBooking(booking)
	drivers.AddDriver(&domain.Driver{ID: "d-2", Status: domain.DriverStatusAssigned})

	if _, _, err := svc.Depart(context.Background(), booking.Reference, "d-2"); !errors.Is(err, service.ErrDriverNotAssignedToBooking) {
		t.Errorf("err = %v, want ErrDriverNotAssignedToBooking", err)
	}
	if bookings.GetBooking(booking.Reference).Status != domain.BookingStatusDriverConfirmed {
		t.Error("booking moved by unassigned driver")
	}
}

func TestTripEventsFollowStateMachine(t *testing.T) {
	t.Parallel()

	bookings, drivers, svc := newTripFixture()
	booking := tripBooking(domain.BookingStatusDriverConfirmed)
	bookings.AddBooking(booking)
	drivers.AddDriver(&domain.Driver{ID: "d-1", Status: domain.DriverStatusAssigned})

	// Cannot start before arriving.
	if _, _, err := svc.StartTrip(context.Background(), booking.Reference, "d-1"); err == nil {
		t.Error("StartTrip allowed from DRIVER_CONFIRMED")
	}
}
