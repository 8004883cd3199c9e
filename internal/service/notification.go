package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"charter/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationDepositReceived  NotificationType = "DEPOSIT_RECEIVED"
	NotificationDriverAssigned   NotificationType = "DRIVER_ASSIGNED"
	NotificationDriverDeparted   NotificationType = "DRIVER_DEPARTED"
	NotificationDriverArrived    NotificationType = "DRIVER_ARRIVED"
	NotificationTripStarted      NotificationType = "TRIP_STARTED"
	NotificationBalanceDue       NotificationType = "BALANCE_DUE"
	NotificationPaymentFailed    NotificationType = "PAYMENT_FAILED"
	NotificationReceiptReady     NotificationType = "RECEIPT_READY"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real deployment this holds push (FCM/APNS) and email clients.
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyDepositReceived notifies the customer that the deposit settled.
func (s *NotificationService) NotifyDepositReceived(ctx context.Context, booking *domain.Booking, amount float64) error {
	return s.send(ctx, Notification{
		Type:        NotificationDepositReceived,
		RecipientID: booking.CustomerID,
		Title:       "Deposit Received",
		Message:     fmt.Sprintf("Deposit of $%.2f received for booking %s", amount, booking.Number),
		Data: map[string]interface{}{
			"booking": booking.Reference,
			"amount":  amount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyDriverAssigned notifies the customer that a driver was assigned.
func (s *NotificationService) NotifyDriverAssigned(ctx context.Context, booking *domain.Booking, driver *domain.Driver) error {
	return s.send(ctx, Notification{
		Type:        NotificationDriverAssigned,
		RecipientID: booking.CustomerID,
		Title:       "Driver Assigned",
		Message:     fmt.Sprintf("Driver %s has been assigned to booking %s", driver.Name, booking.Number),
		Data: map[string]interface{}{
			"booking":   booking.Reference,
			"driver_id": driver.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBalanceDue asks the customer to settle the balance after the trip.
func (s *NotificationService) NotifyBalanceDue(ctx context.Context, booking *domain.Booking) error {
	return s.send(ctx, Notification{
		Type:        NotificationBalanceDue,
		RecipientID: booking.CustomerID,
		Title:       "Balance Due",
		Message:     fmt.Sprintf("Your trip has ended. Balance due: $%.2f", booking.BalanceDue()),
		Data: map[string]interface{}{
			"booking":  booking.Reference,
			"balance":  booking.BalanceAmount,
			"overtime": booking.OvertimeFeeAmount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentFailed notifies the customer of a failed payment attempt.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, booking *domain.Booking, reason string) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: booking.CustomerID,
		Title:       "Payment Failed",
		Message:     "Your payment failed. Please try again.",
		Data: map[string]interface{}{
			"booking": booking.Reference,
			"reason":  reason,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReceiptReady sends the settlement receipt after completion.
func (s *NotificationService) NotifyReceiptReady(ctx context.Context, booking *domain.Booking) error {
	return s.send(ctx, Notification{
		Type:        NotificationReceiptReady,
		RecipientID: booking.CustomerID,
		Title:       "Booking Complete",
		Message:     fmt.Sprintf("Booking %s is complete. Total paid: $%.2f", booking.Number, booking.TotalAmount+booking.TipAmount),
		Data: map[string]interface{}{
			"booking":  booking.Reference,
			"deposit":  booking.DepositAmount,
			"balance":  booking.BalanceAmount,
			"overtime": booking.OvertimeFeeAmount,
			"tip":      booking.TipAmount,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers the notification. Stubbed to a log line; the caller never
// depends on delivery succeeding.
func (s *NotificationService) send(ctx context.Context, n Notification) error {
	log.Printf("notification [%s] to=%s: %s", n.Type, n.RecipientID, n.Message)
	return nil
}
