package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"charter/internal/domain"
	"charter/internal/service"
)

func paidBooking() *domain.Booking {
	return &domain.Booking{
		Reference:  "b100a000-0000-4000-8000-000000000100",
		Number:     "BK1700000000100",
		CustomerID: "cust-1",
		Status:     domain.BookingStatusPaidDeposit,
		CreatedAt:  time.Now(),
	}
}

func newDispatchFixture() (*MockBookingRepository, *MockDriverRepository, *MockLockStore, *service.DispatchService) {
	bookings := NewMockBookingRepository()
	drivers := NewMockDriverRepository()
	lockStore := NewMockLockStore()
	svc := service.NewDispatchService(bookings, drivers, lockStore, nil)
	return bookings, drivers, lockStore, svc
}

func TestAssignDriverPicksFewestCompletedTrips(t *testing.T) {
	t.Parallel()

	bookings, drivers, _, svc := newDispatchFixture()

	booking := paidBooking()
	bookings.AddBooking(booking)

	drivers.AddDriver(&domain.Driver{ID: "d-busy", Name: "Busy", Status: domain.DriverStatusAvailable, CompletedTrips: 12})
	drivers.AddDriver(&domain.Driver{ID: "d-fresh", Name: "Fresh", Status: domain.DriverStatusAvailable, CompletedTrips: 2})
	drivers.AddDriver(&domain.Driver{ID: "d-offline", Name: "Off", Status: domain.DriverStatusOffline, CompletedTrips: 0})

	driver, events, err := svc.AssignDriver(context.Background(), booking.Reference)
	if err != nil {
		t.Fatalf("AssignDriver: %v", err)
	}

	if driver.ID != "d-fresh" {
		t.Errorf("assigned %s, want d-fresh (fewest completed trips)", driver.ID)
	}

	stored := bookings.GetBooking(booking.Reference)
	if stored.Status != domain.BookingStatusAssigned {
		t.Errorf("booking status = %s, want ASSIGNED", stored.Status)
	}
	if stored.DriverID != "d-fresh" {
		t.Errorf("booking driver = %s", stored.DriverID)
	}
	if drivers.GetDriver("d-fresh").Status != domain.DriverStatusAssigned {
		t.Error("driver not marked assigned")
	}

	var sawAssigned bool
	for _, ev := range events {
		if ev.Kind == domain.EventKindDriverAssigned {
			sawAssigned = true
		}
	}
	if !sawAssigned {
		t.Error("driver.assigned event not emitted")
	}
}

func TestAssignDriverNoneAvailable(t *testing.T) {
	t.Parallel()

	bookings, drivers, _, svc := newDispatchFixture()
	booking := paidBooking()
	bookings.AddBooking(booking)
	drivers.AddDriver(&domain.Driver{ID: "d-off", Status: domain.DriverStatusOffline})

	_, _, err := svc.AssignDriver(context.Background(), booking.Reference)
	if !errors.Is(err, service.ErrNoDriverAvailable) {
		t.Errorf("err = %v, want ErrNoDriverAvailable", err)
	}
}

func TestAssignDriverWrongState(t *testing.T) {
	t.Parallel()

	bookings, drivers, _, svc := newDispatchFixture()
	booking := paidBooking()
	booking.Status = domain.BookingStatusPendingPayment
	bookings.AddBooking(booking)
	drivers.AddDriver(&domain.Driver{ID: "d-1", Status: domain.DriverStatusAvailable})

	_, _, err := svc.AssignDriver(context.Background(), booking.Reference)
	if !errors.Is(err, service.ErrBookingNotPayable) {
		t.Errorf("err = %v, want ErrBookingNotPayable", err)
	}
}

func TestRejectDriverReturnsBookingToPool(t *testing.T) {
	t.Parallel()

	bookings, drivers, _, svc := newDispatchFixture()

	booking := paidBooking()
	booking.Status = domain.BookingStatusAssigned
	booking.DriverID = "d-1"
	bookings.AddBooking(booking)
	drivers.AddDriver(&domain.Driver{ID: "d-1", Status: domain.DriverStatusAssigned})

	updated, _, err := svc.RejectDriver(context.Background(), booking.Reference, "d-1")
	if err != nil {
		t.Fatalf("RejectDriver: %v", err)
	}

	if updated.Status != domain.BookingStatusPaidDeposit {
		t.Errorf("booking status = %s, want PAID_DEPOSIT", updated.Status)
	}
	if updated.DriverID != "" {
		t.Errorf("driver id = %s, want cleared", updated.DriverID)
	}
	if drivers.GetDriver("d-1").Status != domain.DriverStatusAvailable {
		t.Error("rejecting driver should become available again")
	}
}

func TestConfirmDriverRequiresAssignedDriver(t *testing.T) {
	t.Parallel()

	bookings, drivers, _, svc := newDispatchFixture()

	booking := paidBooking()
	booking.Status = domain.BookingStatusAssigned
	booking.DriverID = "d-1"
	bookings.AddBooking(booking)
	drivers.AddDriver(&domain.Driver{ID: "d-1", Status: domain.DriverStatusAssigned})

	if _, _, err := svc.ConfirmDriver(context.Background(), booking.Reference, "d-other"); !errors.Is(err, service.ErrDriverNotAssignedToBooking) {
		t.Errorf("err = %v, want ErrDriverNotAssignedToBooking", err)
	}

	updated, _, err := svc.ConfirmDriver(context.Background(), booking.Reference, "d-1")
	if err != nil {
		t.Fatalf("ConfirmDriver: %v", err)
	}
	if updated.Status != domain.BookingStatusDriverConfirmed {
		t.Errorf("booking status = %s, want DRIVER_CONFIRMED", updated.Status)
	}
}
