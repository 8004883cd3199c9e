package tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"charter/internal/domain"
	"charter/internal/service"
)

func newBookingFixture() (*MockBookingRepository, *MockCommissionRepository, *MockPromoRepository, *service.BookingService) {
	bookings := NewMockBookingRepository()
	commissions := NewMockCommissionRepository()
	promos := NewMockPromoRepository()
	svc := service.NewBookingService(bookings, commissions, promos, NewMockLockStore(), nil)
	return bookings, commissions, promos, svc
}

func TestCreateBookingDefaults(t *testing.T) {
	t.Parallel()

	_, _, _, svc := newBookingFixture()

	booking, err := svc.CreateBooking(context.Background(), service.CreateBookingRequest{
		CustomerID:  "cust-1",
		BasePrice:   2000,
		BookedHours: 4,
		PickupAt:    time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if booking.Status != domain.BookingStatusPendingPayment {
		t.Errorf("status = %s, want PENDING_PAYMENT", booking.Status)
	}
	if !strings.HasPrefix(booking.Number, "BK") {
		t.Errorf("number = %s, want BK prefix", booking.Number)
	}
	if booking.DepositAmount != 600 {
		t.Errorf("deposit = %.2f, want 30%% of 2000", booking.DepositAmount)
	}
	if booking.BalanceAmount != 1400 {
		t.Errorf("balance = %.2f, want 1400", booking.BalanceAmount)
	}
	if booking.TotalAmount != 2000 {
		t.Errorf("total = %.2f, want 2000", booking.TotalAmount)
	}
}

func TestCreateBookingSnapshotsPromoTerms(t *testing.T) {
	t.Parallel()

	_, commissions, promos, svc := newBookingFixture()

	promos.AddPromo(&domain.PromoCode{
		Code:                  "RIDE50",
		InfluencerID:          "inf-1",
		DiscountAmount:        200,
		CommissionType:        domain.CommissionTypeBoth,
		CommissionRate:        0.05,
		CommissionFixedAmount: 30,
		Active:                true,
	})

	booking, err := svc.CreateBooking(context.Background(), service.CreateBookingRequest{
		CustomerID:    "cust-1",
		BasePrice:     2000,
		DepositAmount: 500,
		PromoCode:     "RIDE50",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if booking.TotalAmount != 1800 {
		t.Errorf("total = %.2f, want 2000 - 200", booking.TotalAmount)
	}
	if booking.InfluencerID != "inf-1" {
		t.Errorf("influencer = %s", booking.InfluencerID)
	}
	// fixed 30 + 5% of 1800.
	if booking.CommissionAmount != 120 {
		t.Errorf("commission = %.2f, want 120", booking.CommissionAmount)
	}

	record, err := commissions.GetByBookingID(context.Background(), booking.Reference)
	if err != nil {
		t.Fatalf("GetByBookingID: %v", err)
	}
	if record == nil {
		t.Fatal("no commission record created")
	}
	if record.FinalPrice != 1800 || record.CommissionAmount != 120 {
		t.Errorf("record final=%.2f commission=%.2f", record.FinalPrice, record.CommissionAmount)
	}
}

func TestCreateBookingUnknownPromo(t *testing.T) {
	t.Parallel()

	_, _, _, svc := newBookingFixture()

	_, err := svc.CreateBooking(context.Background(), service.CreateBookingRequest{
		CustomerID: "cust-1",
		BasePrice:  2000,
		PromoCode:  "NOPE",
	})
	if !errors.Is(err, service.ErrPromoCodeInvalid) {
		t.Errorf("err = %v, want ErrPromoCodeInvalid", err)
	}
}

func TestCancelThenRefund(t *testing.T) {
	t.Parallel()

	bookings, _, _, svc := newBookingFixture()
	booking := depositBooking()
	booking.Status = domain.BookingStatusPaidDeposit
	bookings.AddBooking(booking)
	ctx := context.Background()

	cancelled, _, err := svc.CancelBooking(ctx, booking.Reference)
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if cancelled.Status != domain.BookingStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancelledAt.IsZero() {
		t.Error("CancelledAt not set")
	}

	refunded, _, err := svc.RefundBooking(ctx, booking.Reference)
	if err != nil {
		t.Fatalf("RefundBooking: %v", err)
	}
	if refunded.Status != domain.BookingStatusRefunded {
		t.Errorf("status = %s, want REFUNDED", refunded.Status)
	}

	// A second refund hits the terminal state.
	if _, _, err := svc.RefundBooking(ctx, booking.Reference); err == nil {
		t.Error("refund allowed from REFUNDED")
	}
}

func TestCancelCompletedBookingRejected(t *testing.T) {
	t.Parallel()

	bookings, _, _, svc := newBookingFixture()
	booking := depositBooking()
	booking.Status = domain.BookingStatusCompleted
	bookings.AddBooking(booking)

	if _, _, err := svc.CancelBooking(context.Background(), booking.Reference); err == nil {
		t.Error("cancel allowed on COMPLETED booking")
	}
}
