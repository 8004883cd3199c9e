package lifecycle

import (
	"errors"
	"testing"
	"time"

	"charter/internal/domain"
)

var allStatuses = []domain.BookingStatus{
	domain.BookingStatusDraft,
	domain.BookingStatusPendingPayment,
	domain.BookingStatusPaidDeposit,
	domain.BookingStatusMatched,
	domain.BookingStatusAssigned,
	domain.BookingStatusDriverConfirmed,
	domain.BookingStatusDriverDeparted,
	domain.BookingStatusDriverArrived,
	domain.BookingStatusTripStarted,
	domain.BookingStatusTripEnded,
	domain.BookingStatusPendingBalance,
	domain.BookingStatusCompleted,
	domain.BookingStatusCancelled,
	domain.BookingStatusRefunded,
}

var allEvents = []domain.BookingEvent{
	domain.EventPaymentCompleted,
	domain.EventPaymentFailed,
	domain.EventAssignDriver,
	domain.EventDriverAccept,
	domain.EventDriverReject,
	domain.EventDriverDepart,
	domain.EventDriverArrive,
	domain.EventStartTrip,
	domain.EventEndTrip,
	domain.EventRequestBalance,
	domain.EventBalancePaid,
	domain.EventCompleteOrder,
	domain.EventCancelOrder,
	domain.EventRefundOrder,
}

func TestTransitionTotality(t *testing.T) {
	t.Parallel()

	// Every (state, event) pair either transitions or fails with
	// ErrInvalidTransition, and the outcome agrees with CanTransition.
	for _, state := range allStatuses {
		for _, event := range allEvents {
			next, err := Transition(state, event)
			if CanTransition(state, event) {
				if err != nil {
					t.Errorf("Transition(%s, %s) unexpected error: %v", state, event, err)
				}
			} else {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Transition(%s, %s) = %v, want ErrInvalidTransition", state, event, err)
				}
				if next != state {
					t.Errorf("Transition(%s, %s) changed state to %s on error", state, event, next)
				}
			}
		}
	}
}

func TestHappyPathLifecycle(t *testing.T) {
	t.Parallel()

	steps := []struct {
		event domain.BookingEvent
		want  domain.BookingStatus
	}{
		{domain.EventPaymentCompleted, domain.BookingStatusPaidDeposit},
		{domain.EventAssignDriver, domain.BookingStatusAssigned},
		{domain.EventDriverAccept, domain.BookingStatusDriverConfirmed},
		{domain.EventDriverDepart, domain.BookingStatusDriverDeparted},
		{domain.EventDriverArrive, domain.BookingStatusDriverArrived},
		{domain.EventStartTrip, domain.BookingStatusTripStarted},
		{domain.EventEndTrip, domain.BookingStatusTripEnded},
		{domain.EventRequestBalance, domain.BookingStatusPendingBalance},
		{domain.EventBalancePaid, domain.BookingStatusCompleted},
	}

	booking := &domain.Booking{
		Reference: "ref-1",
		Status:    domain.BookingStatusPendingPayment,
	}

	for _, step := range steps {
		rec, err := Apply(booking, step.event, time.Now())
		if err != nil {
			t.Fatalf("Apply(%s) in %s: %v", step.event, rec.From, err)
		}
		if booking.Status != step.want {
			t.Fatalf("after %s: status = %s, want %s", step.event, booking.Status, step.want)
		}
		if rec.To != step.want {
			t.Fatalf("record.To = %s, want %s", rec.To, step.want)
		}
	}

	if !booking.IsTerminal() {
		t.Error("completed booking should be terminal")
	}
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	t.Parallel()

	// COMPLETED and REFUNDED accept nothing; CANCELLED accepts only the
	// refund event.
	for _, event := range allEvents {
		if CanTransition(domain.BookingStatusCompleted, event) {
			t.Errorf("COMPLETED accepts %s", event)
		}
		if CanTransition(domain.BookingStatusRefunded, event) {
			t.Errorf("REFUNDED accepts %s", event)
		}
		if event != domain.EventRefundOrder && CanTransition(domain.BookingStatusCancelled, event) {
			t.Errorf("CANCELLED accepts %s", event)
		}
	}

	if !CanTransition(domain.BookingStatusCancelled, domain.EventRefundOrder) {
		t.Error("CANCELLED should accept REFUND_ORDER")
	}
}

func TestMatchedBehavesLikeAssigned(t *testing.T) {
	t.Parallel()

	for _, event := range allEvents {
		if CanTransition(domain.BookingStatusMatched, event) != CanTransition(domain.BookingStatusAssigned, event) {
			t.Errorf("MATCHED and ASSIGNED disagree on %s", event)
		}
	}

	next, err := Transition(domain.BookingStatusMatched, domain.EventDriverReject)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if next != domain.BookingStatusPaidDeposit {
		t.Errorf("MATCHED + DRIVER_REJECT = %s, want PAID_DEPOSIT", next)
	}
}

func TestApplyLeavesBookingUntouchedOnError(t *testing.T) {
	t.Parallel()

	booking := &domain.Booking{
		Reference: "ref-2",
		Status:    domain.BookingStatusCancelled,
	}

	_, err := Apply(booking, domain.EventPaymentCompleted, time.Now())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if booking.Status != domain.BookingStatusCancelled {
		t.Errorf("status mutated to %s on failed apply", booking.Status)
	}
}

func TestPaymentFailureSelfLoops(t *testing.T) {
	t.Parallel()

	// A failed payment keeps the booking payable rather than killing it.
	for _, state := range []domain.BookingStatus{
		domain.BookingStatusPendingPayment,
		domain.BookingStatusPendingBalance,
	} {
		next, err := Transition(state, domain.EventPaymentFailed)
		if err != nil {
			t.Fatalf("Transition(%s, PAYMENT_FAILED): %v", state, err)
		}
		if next != state {
			t.Errorf("Transition(%s, PAYMENT_FAILED) = %s, want self-loop", state, next)
		}
	}
}
