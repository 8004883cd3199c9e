package domain

import "time"

// EventKind identifies a domain event produced by the booking lifecycle.
type EventKind string

const (
	EventKindBookingStatusChanged EventKind = "booking.status.changed"
	EventKindPaymentCompleted     EventKind = "payment.completed"
	EventKindPaymentFailed        EventKind = "payment.failed"
	EventKindBookingCompleted     EventKind = "booking.completed"
	EventKindDriverAssigned       EventKind = "driver.assigned"
	EventKindSettlementAnomaly    EventKind = "settlement.anomaly"
)

// Event is a domain event emitted by a service for later delivery.
// Services return events instead of publishing them; a separate dispatcher
// decides who reacts, so a state change is decoupled from its side effects.
type Event struct {
	ID         string
	Kind       EventKind
	BookingID  string
	OccurredAt time.Time
	Payload    map[string]any
}
