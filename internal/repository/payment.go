package repository

import (
	"context"
	"time"

	"charter/internal/domain"
)

// PaymentRepository defines the persistence operations for payment attempts.
type PaymentRepository interface {
	// Create persists a new payment attempt.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByTransactionID retrieves a payment by its internal transaction id.
	GetByTransactionID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByOrderNo retrieves the payment attempt issued with the given
	// order number. Returns nil if no attempt carries it (legacy orders
	// issued before order numbers were persisted).
	GetByOrderNo(ctx context.Context, orderNo string) (*domain.Payment, error)

	// GetLatestByBookingAndType retrieves the most recent payment attempt
	// for a (booking, payment type) pair. Returns nil if none exists.
	GetLatestByBookingAndType(ctx context.Context, bookingRef string, ptype domain.PaymentType) (*domain.Payment, error)

	// MarkCompleted records a successful settlement on a payment attempt.
	MarkCompleted(ctx context.Context, transactionID, externalID, authCode string, amount float64, confirmedAt time.Time) error

	// MarkFailed records a gateway-reported failure.
	MarkFailed(ctx context.Context, transactionID, reason string) error

	// MarkCancelled marks a superseded attempt cancelled.
	MarkCancelled(ctx context.Context, transactionID string) error
}
