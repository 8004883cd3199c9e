package tests

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"charter/internal/config"
	"charter/internal/domain"
	"charter/internal/service"
)

func newPaymentFixture() (*MockBookingRepository, *MockPaymentRepository, *service.PaymentService) {
	bookings := NewMockBookingRepository()
	payments := NewMockPaymentRepository()
	lockStore := NewMockLockStore()

	cfg := config.GatewayConfig{
		Provider:   "sunpay",
		MerchantID: testMerchantID,
		Secret:     testSecret,
		PayURL:     "https://pay.example.com/gateway",
		ReturnURL:  "https://charter.example.com/payments/return",
	}

	svc := service.NewPaymentService(
		bookings,
		payments,
		service.NewOrderCodec(bookings),
		service.NewAuthenticator(cfg),
		lockStore,
		cfg,
	)
	return bookings, payments, svc
}

func TestInitiateDeposit(t *testing.T) {
	t.Parallel()

	bookings, _, svc := newPaymentFixture()
	booking := depositBooking()
	bookings.AddBooking(booking)

	link, err := svc.InitiatePayment(context.Background(), booking.Reference, domain.PaymentTypeDeposit)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	if link.Payment.OrderNo != "BK1700000000000-DEPOSIT" {
		t.Errorf("order no = %s", link.Payment.OrderNo)
	}
	if link.Payment.Amount != 500 {
		t.Errorf("amount = %.2f, want 500", link.Payment.Amount)
	}
	if link.Payment.Status != domain.PaymentStatusPending {
		t.Errorf("status = %s, want pending", link.Payment.Status)
	}

	parsed, err := url.Parse(link.URL)
	if err != nil {
		t.Fatalf("bad link url: %v", err)
	}
	q := parsed.Query()
	if q.Get("Order_No") != link.Payment.OrderNo {
		t.Errorf("link Order_No = %s", q.Get("Order_No"))
	}
	if q.Get("CustomerId") != testMerchantID {
		t.Errorf("link CustomerId = %s", q.Get("CustomerId"))
	}
	want := service.ComputeCheckValue(testMerchantID, link.Payment.OrderNo, "500", "0", testSecret)
	if q.Get("Str_Check") != want {
		t.Errorf("link Str_Check = %s, want %s", q.Get("Str_Check"), want)
	}
	// The return url itself carries the order number for failure redirects.
	if !strings.Contains(q.Get("Return_url"), "Order_No=") {
		t.Errorf("Return_url missing order number: %s", q.Get("Return_url"))
	}
}

func TestInitiateSupersedesPendingAttempt(t *testing.T) {
	t.Parallel()

	bookings, payments, svc := newPaymentFixture()
	booking := depositBooking()
	bookings.AddBooking(booking)

	first, err := svc.InitiatePayment(context.Background(), booking.Reference, domain.PaymentTypeDeposit)
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}

	second, err := svc.InitiatePayment(context.Background(), booking.Reference, domain.PaymentTypeDeposit)
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}

	if payments.GetPayment(first.Payment.TransactionID).Status != domain.PaymentStatusCancelled {
		t.Error("prior pending attempt not cancelled")
	}
	if second.Payment.OrderNo == first.Payment.OrderNo {
		t.Error("retry reused the same order number")
	}
	if len(second.Payment.OrderNo) > 25 {
		t.Errorf("retry order number %q exceeds 25 characters", second.Payment.OrderNo)
	}
}

func TestInitiateBalanceMovesBookingToPendingBalance(t *testing.T) {
	t.Parallel()

	bookings, _, svc := newPaymentFixture()
	booking := depositBooking()
	booking.Status = domain.BookingStatusTripEnded
	booking.OvertimeFeeAmount = 200
	bookings.AddBooking(booking)

	link, err := svc.InitiatePayment(context.Background(), booking.Reference, domain.PaymentTypeBalance)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	if link.Payment.Amount != 1700 {
		t.Errorf("amount = %.2f, want balance 1500 + overtime 200", link.Payment.Amount)
	}
	if link.Payment.OrderNo != "BK1700000000000-BALANCE" {
		t.Errorf("order no = %s", link.Payment.OrderNo)
	}
	if bookings.GetBooking(booking.Reference).Status != domain.BookingStatusPendingBalance {
		t.Error("booking not moved to PENDING_BALANCE")
	}
}

func TestInitiateRejectsUnpayableState(t *testing.T) {
	t.Parallel()

	bookings, _, svc := newPaymentFixture()
	booking := depositBooking()
	booking.Status = domain.BookingStatusTripStarted
	bookings.AddBooking(booking)
	ctx := context.Background()

	if _, err := svc.InitiatePayment(ctx, booking.Reference, domain.PaymentTypeDeposit); !errors.Is(err, service.ErrBookingNotPayable) {
		t.Errorf("deposit on TRIP_STARTED: err = %v, want ErrBookingNotPayable", err)
	}
	if _, err := svc.InitiatePayment(ctx, booking.Reference, domain.PaymentTypeBalance); !errors.Is(err, service.ErrBookingNotPayable) {
		t.Errorf("balance on TRIP_STARTED: err = %v, want ErrBookingNotPayable", err)
	}
	if _, err := svc.InitiatePayment(ctx, booking.Reference, domain.PaymentType("partial")); !errors.Is(err, service.ErrInvalidPaymentType) {
		t.Errorf("bad type: err = %v, want ErrInvalidPaymentType", err)
	}
}

func TestInitiateThenSettleRoundTrip(t *testing.T) {
	t.Parallel()

	bookings, payments, paySvc := newPaymentFixture()
	booking := depositBooking()
	bookings.AddBooking(booking)

	link, err := paySvc.InitiatePayment(context.Background(), booking.Reference, domain.PaymentTypeDeposit)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	cfg := config.GatewayConfig{MerchantID: testMerchantID, Secret: testSecret}
	settle := service.NewSettlementService(
		nil,
		bookings,
		payments,
		service.NewOrderCodec(bookings),
		service.NewAuthenticator(cfg),
		NewMockLockStore(),
		nil,
		cfg,
	)

	res, err := settle.HandleCallback(context.Background(), signedCallback(link.Payment.OrderNo, "500"))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if !res.Processed || res.Anomaly != nil {
		t.Fatalf("round trip not settled: processed=%v anomaly=%v", res.Processed, res.Anomaly)
	}

	if payments.GetPayment(link.Payment.TransactionID).Status != domain.PaymentStatusCompleted {
		t.Error("initiated attempt not the one settled")
	}
	if bookings.GetBooking(booking.Reference).Status != domain.BookingStatusPaidDeposit {
		t.Error("booking not settled")
	}
}
