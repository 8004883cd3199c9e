package domain

import "time"

// BookingStatus represents the current lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusDraft           BookingStatus = "DRAFT"
	BookingStatusPendingPayment  BookingStatus = "PENDING_PAYMENT"
	BookingStatusPaidDeposit     BookingStatus = "PAID_DEPOSIT"
	BookingStatusMatched         BookingStatus = "MATCHED"
	BookingStatusAssigned        BookingStatus = "ASSIGNED"
	BookingStatusDriverConfirmed BookingStatus = "DRIVER_CONFIRMED"
	BookingStatusDriverDeparted  BookingStatus = "DRIVER_DEPARTED"
	BookingStatusDriverArrived   BookingStatus = "DRIVER_ARRIVED"
	BookingStatusTripStarted     BookingStatus = "TRIP_STARTED"
	BookingStatusTripEnded       BookingStatus = "TRIP_ENDED"
	BookingStatusPendingBalance  BookingStatus = "PENDING_BALANCE"
	BookingStatusCompleted       BookingStatus = "COMPLETED"
	BookingStatusCancelled       BookingStatus = "CANCELLED"
	BookingStatusRefunded        BookingStatus = "REFUNDED"
)

// BookingEvent is a lifecycle event applied to a booking.
type BookingEvent string

const (
	EventPaymentCompleted BookingEvent = "PAYMENT_COMPLETED"
	EventPaymentFailed    BookingEvent = "PAYMENT_FAILED"
	EventAssignDriver     BookingEvent = "ASSIGN_DRIVER"
	EventDriverAccept     BookingEvent = "DRIVER_ACCEPT"
	EventDriverReject     BookingEvent = "DRIVER_REJECT"
	EventDriverDepart     BookingEvent = "DRIVER_DEPART"
	EventDriverArrive     BookingEvent = "DRIVER_ARRIVE"
	EventStartTrip        BookingEvent = "START_TRIP"
	EventEndTrip          BookingEvent = "END_TRIP"
	EventRequestBalance   BookingEvent = "REQUEST_BALANCE"
	EventBalancePaid      BookingEvent = "BALANCE_PAID"
	EventCompleteOrder    BookingEvent = "COMPLETE_ORDER"
	EventCancelOrder      BookingEvent = "CANCEL_ORDER"
	EventRefundOrder      BookingEvent = "REFUND_ORDER"
)

// Booking represents a single charter reservation.
//
// Reference is the opaque identity (UUID); Number is the human-facing
// booking number ("BK" + unix millis) and the base of every order number
// sent to the payment gateway.
type Booking struct {
	Reference  string
	Number     string
	CustomerID string
	DriverID   string
	Status     BookingStatus

	PickupAddress  string
	DropoffAddress string
	PickupAt       time.Time
	BookedHours    float64

	BasePrice          float64
	DepositAmount      float64
	BalanceAmount      float64
	OvertimeFeeAmount  float64
	OvertimeHourlyRate float64
	TipAmount          float64
	DiscountAmount     float64
	TotalAmount        float64

	// Promo/commission snapshot taken at booking time. Settlement reads
	// these fields and never recomputes them from current influencer
	// configuration.
	PromoCode             string
	InfluencerID          string
	CommissionAmount      float64
	CommissionType        CommissionType
	CommissionRate        float64
	CommissionFixedAmount float64

	DepositPaidAt time.Time
	DepartedAt    time.Time
	ArrivedAt     time.Time
	TripStartedAt time.Time
	TripEndedAt   time.Time
	CompletedAt   time.Time
	CancelledAt   time.Time

	// NeedsReview flags bookings whose settlement hit an anomaly that an
	// operator has to resolve by hand.
	NeedsReview  bool
	ReviewReason string

	CreatedAt time.Time
}

// BalanceDue is the amount still owed after the deposit, including overtime.
func (b *Booking) BalanceDue() float64 {
	return b.BalanceAmount + b.OvertimeFeeAmount
}

// IsTerminal reports whether the booking has reached a terminal state.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusRefunded:
		return true
	}
	return false
}
