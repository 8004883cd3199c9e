package domain

import "time"

// PaymentType distinguishes the two charges collected per booking.
type PaymentType string

const (
	PaymentTypeDeposit PaymentType = "deposit"
	PaymentTypeBalance PaymentType = "balance"
)

// PaymentStatus represents the current status of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Payment is one payment attempt for a (booking, payment type) pair.
//
// OrderNo is the exact order number issued to the gateway for this attempt,
// persisted so inbound callbacks resolve without decoding legacy formats.
// At most one attempt per pair may ever be completed; a superseded attempt
// is marked cancelled before a new one is created.
type Payment struct {
	TransactionID         string
	BookingID             string
	Type                  PaymentType
	OrderNo               string
	Amount                float64
	Status                PaymentStatus
	Provider              string
	ExternalTransactionID string
	AuthCode              string
	FailureReason         string
	ConfirmedAt           time.Time
	CreatedAt             time.Time
}
