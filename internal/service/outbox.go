package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"charter/internal/domain"
	"charter/internal/redis"
)

// EventDispatcher delivers the domain events that services return.
// Services never publish directly: they return events, the dispatcher
// decides who reacts. Delivery is best-effort and never blocks or fails
// the producing operation.
type EventDispatcher struct {
	notifications *NotificationService
	messages      redis.MessageStoreInterface
}

// NewEventDispatcher creates a new EventDispatcher.
func NewEventDispatcher(notifications *NotificationService, messages redis.MessageStoreInterface) *EventDispatcher {
	return &EventDispatcher{
		notifications: notifications,
		messages:      messages,
	}
}

// NewEvent builds a domain event with a fresh id.
func NewEvent(kind domain.EventKind, bookingRef string, payload map[string]any) domain.Event {
	return domain.Event{
		ID:         uuid.New().String(),
		Kind:       kind,
		BookingID:  bookingRef,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
}

// DispatchAsync delivers events on a background goroutine.
func (d *EventDispatcher) DispatchAsync(events []domain.Event) {
	if len(events) == 0 {
		return
	}
	go d.Dispatch(context.Background(), events)
}

// Dispatch delivers each event to the chat message store and, where a
// notification applies, to the notification service. Failures are logged
// and skipped: the state change already happened and is not rolled back
// for a delivery problem.
func (d *EventDispatcher) Dispatch(ctx context.Context, events []domain.Event) {
	for _, ev := range events {
		if d.messages != nil {
			msg := &redis.SystemMessage{
				ID:        ev.ID,
				BookingID: ev.BookingID,
				Kind:      string(ev.Kind),
				Body:      systemMessageBody(ev),
				CreatedAt: ev.OccurredAt,
			}
			if err := d.messages.Append(ctx, msg); err != nil {
				log.Printf("event dispatch: chat message for %s failed: %v", ev.Kind, err)
			}
		}

		d.notify(ctx, ev)
	}
}

func (d *EventDispatcher) notify(ctx context.Context, ev domain.Event) {
	if d.notifications == nil {
		return
	}

	booking, _ := ev.Payload["booking"].(*domain.Booking)
	if booking == nil {
		return
	}

	var err error
	switch ev.Kind {
	case domain.EventKindBookingStatusChanged:
		if to, _ := ev.Payload["to"].(domain.BookingStatus); to == domain.BookingStatusTripEnded {
			err = d.notifications.NotifyBalanceDue(ctx, booking)
		}
	case domain.EventKindPaymentCompleted:
		if ptype, _ := ev.Payload["payment_type"].(domain.PaymentType); ptype == domain.PaymentTypeDeposit {
			amount, _ := ev.Payload["amount"].(float64)
			err = d.notifications.NotifyDepositReceived(ctx, booking, amount)
		}
	case domain.EventKindPaymentFailed:
		reason, _ := ev.Payload["reason"].(string)
		err = d.notifications.NotifyPaymentFailed(ctx, booking, reason)
	case domain.EventKindBookingCompleted:
		err = d.notifications.NotifyReceiptReady(ctx, booking)
	case domain.EventKindDriverAssigned:
		driver, _ := ev.Payload["driver"].(*domain.Driver)
		if driver != nil {
			err = d.notifications.NotifyDriverAssigned(ctx, booking, driver)
		}
	}
	if err != nil {
		log.Printf("event dispatch: notification for %s failed: %v", ev.Kind, err)
	}
}

func systemMessageBody(ev domain.Event) string {
	switch ev.Kind {
	case domain.EventKindBookingStatusChanged:
		return fmt.Sprintf("Booking status changed: %v -> %v", ev.Payload["from"], ev.Payload["to"])
	case domain.EventKindPaymentCompleted:
		return fmt.Sprintf("Payment received: %v %v", ev.Payload["payment_type"], ev.Payload["amount"])
	case domain.EventKindPaymentFailed:
		return fmt.Sprintf("Payment failed: %v", ev.Payload["reason"])
	case domain.EventKindBookingCompleted:
		return "Booking completed. Thank you for riding with us."
	case domain.EventKindDriverAssigned:
		return fmt.Sprintf("Driver assigned: %v", ev.Payload["driver_name"])
	case domain.EventKindSettlementAnomaly:
		return fmt.Sprintf("Settlement flagged for review: %v", ev.Payload["reason"])
	}
	return string(ev.Kind)
}
