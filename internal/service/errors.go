package service

import "errors"

var (
	// ErrMissingField is returned when a callback omits a required field.
	// Safe to surface as a non-2xx: nothing was touched.
	ErrMissingField = errors.New("missing required callback field")

	// ErrUnrecognizedOrderFormat is returned when an order number matches
	// none of the known encodings. Terminal for that callback.
	ErrUnrecognizedOrderFormat = errors.New("unrecognized order number format")

	// ErrAmbiguousReference is returned when a truncated legacy order id
	// resolves to zero or more than one recent booking.
	ErrAmbiguousReference = errors.New("ambiguous booking reference")

	// ErrBookingNotFound is returned when a callback's booking cannot be
	// resolved. Terminal for that callback.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSignatureMismatch is returned when a callback's check value does
	// not match the computed one. The callback is acked but not processed.
	ErrSignatureMismatch = errors.New("callback signature mismatch")

	// ErrAmountMismatch flags a paid amount below the expected balance.
	// Non-blocking: the booking still completes.
	ErrAmountMismatch = errors.New("paid amount does not match expected amount")

	// ErrDuplicateCallback flags a redelivery of an already-settled
	// payment. The duplicate is a no-op.
	ErrDuplicateCallback = errors.New("duplicate callback delivery")

	// ErrBookingLocked is returned when the per-booking settlement lock is
	// held by a concurrent delivery. Surfaced as a transport error so the
	// gateway redelivers.
	ErrBookingLocked = errors.New("booking is locked by a concurrent operation")

	// ErrOrderNumberTooLong is returned when an encoded order number would
	// exceed the gateway's 25-character ceiling.
	ErrOrderNumberTooLong = errors.New("order number exceeds gateway length limit")

	// ErrInvalidBookingID is returned when a booking reference is empty.
	ErrInvalidBookingID = errors.New("invalid booking reference")

	// ErrInvalidCustomerID is returned when a customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidDriverID is returned when a driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidAmount is returned when a monetary amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidPaymentType is returned for a payment type outside
	// deposit/balance.
	ErrInvalidPaymentType = errors.New("invalid payment type")

	// ErrBookingNotPayable is returned when a payment is initiated for a
	// booking whose state does not accept one.
	ErrBookingNotPayable = errors.New("booking not in a payable state")

	// ErrNoDriverAvailable is returned when dispatch finds no driver.
	ErrNoDriverAvailable = errors.New("no driver available")

	// ErrDriverNotAssignedToBooking is returned when a trip event arrives
	// from a driver other than the assigned one.
	ErrDriverNotAssignedToBooking = errors.New("driver not assigned to this booking")

	// ErrPromoCodeInvalid is returned when a promo code is unknown or
	// inactive.
	ErrPromoCodeInvalid = errors.New("promo code invalid or inactive")
)
