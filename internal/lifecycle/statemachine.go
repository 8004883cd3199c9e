// Package lifecycle implements the booking state machine: a pure,
// deterministic transition table with no I/O. Callers persist the booking
// and publish the transition record; the machine never does either.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"charter/internal/domain"
)

// ErrInvalidTransition is returned when an event is not allowed in the
// booking's current state. The caller's state is unchanged.
var ErrInvalidTransition = errors.New("invalid booking transition")

// Record describes a single applied transition, for the caller to persist
// or publish.
type Record struct {
	BookingID string
	From      domain.BookingStatus
	To        domain.BookingStatus
	Event     domain.BookingEvent
	At        time.Time
}

// transitions is the complete allowed-transition table. Anything absent is
// invalid. MATCHED is retained for bookings written by the old matcher and
// progresses exactly like ASSIGNED.
var transitions = map[domain.BookingStatus]map[domain.BookingEvent]domain.BookingStatus{
	domain.BookingStatusDraft: {
		domain.EventPaymentCompleted: domain.BookingStatusPaidDeposit,
		domain.EventCancelOrder:      domain.BookingStatusCancelled,
	},
	domain.BookingStatusPendingPayment: {
		domain.EventPaymentCompleted: domain.BookingStatusPaidDeposit,
		domain.EventPaymentFailed:    domain.BookingStatusPendingPayment,
		domain.EventCancelOrder:      domain.BookingStatusCancelled,
	},
	domain.BookingStatusPaidDeposit: {
		domain.EventAssignDriver: domain.BookingStatusAssigned,
		domain.EventCancelOrder:  domain.BookingStatusCancelled,
	},
	domain.BookingStatusMatched: {
		domain.EventDriverAccept: domain.BookingStatusDriverConfirmed,
		domain.EventDriverReject: domain.BookingStatusPaidDeposit,
		domain.EventCancelOrder:  domain.BookingStatusCancelled,
	},
	domain.BookingStatusAssigned: {
		domain.EventDriverAccept: domain.BookingStatusDriverConfirmed,
		domain.EventDriverReject: domain.BookingStatusPaidDeposit,
		domain.EventCancelOrder:  domain.BookingStatusCancelled,
	},
	domain.BookingStatusDriverConfirmed: {
		domain.EventDriverDepart: domain.BookingStatusDriverDeparted,
		domain.EventCancelOrder:  domain.BookingStatusCancelled,
	},
	domain.BookingStatusDriverDeparted: {
		domain.EventDriverArrive: domain.BookingStatusDriverArrived,
	},
	domain.BookingStatusDriverArrived: {
		domain.EventStartTrip: domain.BookingStatusTripStarted,
	},
	domain.BookingStatusTripStarted: {
		domain.EventEndTrip: domain.BookingStatusTripEnded,
	},
	domain.BookingStatusTripEnded: {
		domain.EventRequestBalance: domain.BookingStatusPendingBalance,
		domain.EventBalancePaid:    domain.BookingStatusCompleted,
		domain.EventCompleteOrder:  domain.BookingStatusCompleted,
	},
	domain.BookingStatusPendingBalance: {
		domain.EventBalancePaid:   domain.BookingStatusCompleted,
		domain.EventPaymentFailed: domain.BookingStatusPendingBalance,
	},
	domain.BookingStatusCancelled: {
		domain.EventRefundOrder: domain.BookingStatusRefunded,
	},
	// COMPLETED and REFUNDED are terminal: no outgoing transitions.
}

// CanTransition reports whether event is allowed in the given state.
func CanTransition(state domain.BookingStatus, event domain.BookingEvent) bool {
	_, ok := transitions[state][event]
	return ok
}

// Transition applies event to state and returns the next state.
// It is a total, deterministic function: the same (state, event) always
// yields the same result, and any pair outside the table fails with
// ErrInvalidTransition.
func Transition(state domain.BookingStatus, event domain.BookingEvent) (domain.BookingStatus, error) {
	next, ok := transitions[state][event]
	if !ok {
		return state, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, state)
	}
	return next, nil
}

// Apply transitions a booking in place and returns the record to persist.
// On error the booking is untouched.
func Apply(b *domain.Booking, event domain.BookingEvent, at time.Time) (Record, error) {
	next, err := Transition(b.Status, event)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		BookingID: b.Reference,
		From:      b.Status,
		To:        next,
		Event:     event,
		At:        at,
	}
	b.Status = next
	return rec, nil
}
