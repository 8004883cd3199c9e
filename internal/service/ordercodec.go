package service

import (
	"context"
	"crypto/rand"
	"strings"

	"charter/internal/domain"
	"charter/internal/repository"
)

const (
	// maxOrderNoLen is the gateway's order-number length ceiling.
	maxOrderNoLen = 25

	depositSuffix = "-DEPOSIT"
	balanceSuffix = "-BALANCE"

	legacyPrefix = "BOOKING_"

	// recentWindow is how many recent bookings the compact-format resolver
	// searches. Compact order numbers truncate the booking UUID, so the
	// only way back to a full reference is a prefix match over this window.
	recentWindow = 100
)

// DecodedOrder is the result of decoding an inbound order number.
// BookingNumber is set for number-based formats; BookingRef is set when a
// truncated legacy id was resolved to a full reference.
type DecodedOrder struct {
	BookingNumber string
	BookingRef    string
	PaymentType   domain.PaymentType
}

// RecentBookingSource is the narrow read contract the codec needs to
// resolve truncated legacy identifiers.
type RecentBookingSource interface {
	ListRecent(ctx context.Context, limit int) ([]*domain.Booking, error)
}

var _ RecentBookingSource = (repository.BookingRepository)(nil)

// OrderCodec encodes and decodes gateway order numbers.
//
// Outbound numbers use the current format only: the booking number
// ("BK" + unix millis), an optional two-letter retry disambiguator, and a
// payment-type suffix. Decoding additionally accepts two legacy compact
// encodings and the old underscore format, since callbacks for
// already-issued identifiers keep arriving long after a format change.
type OrderCodec struct {
	bookings RecentBookingSource
}

// NewOrderCodec creates a new OrderCodec.
func NewOrderCodec(bookings RecentBookingSource) *OrderCodec {
	return &OrderCodec{bookings: bookings}
}

// Encode builds the outbound order number for a payment attempt.
// Retries get a random disambiguator because the gateway rejects duplicate
// order numbers even across attempts for the same booking.
func (c *OrderCodec) Encode(bookingNumber string, ptype domain.PaymentType, retry bool) (string, error) {
	var suffix string
	switch ptype {
	case domain.PaymentTypeDeposit:
		suffix = depositSuffix
	case domain.PaymentTypeBalance:
		suffix = balanceSuffix
	default:
		return "", ErrInvalidPaymentType
	}

	base := bookingNumber
	if retry {
		base += randLetters(2)
	}

	orderNo := base + suffix
	if len(orderNo) > maxOrderNoLen {
		return "", ErrOrderNumberTooLong
	}

	return orderNo, nil
}

// Decode parses an inbound order number of unknown, possibly legacy,
// format. Formats are tried in priority order:
//
//  1. "BK...": current format, optional type suffix, no suffix means a
//     legacy deposit.
//  2. "BOOKING_<id>_<type>_<ts>": old underscore format.
//  3. exactly 25 characters: compact format, a truncated booking UUID
//     (dashes stripped), a one-character type marker at offset 16 or 20,
//     and a random filler. The marker offset distinguishes the two
//     compact generations and is load-bearing.
func (c *OrderCodec) Decode(ctx context.Context, orderNo string) (*DecodedOrder, error) {
	if strings.HasPrefix(orderNo, "BK") {
		return decodeCurrent(orderNo)
	}

	if strings.HasPrefix(orderNo, legacyPrefix) {
		return decodeUnderscore(orderNo)
	}

	if len(orderNo) == maxOrderNoLen {
		return c.decodeCompact(ctx, orderNo)
	}

	return nil, ErrUnrecognizedOrderFormat
}

func decodeCurrent(orderNo string) (*DecodedOrder, error) {
	ptype := domain.PaymentTypeDeposit
	rest := orderNo

	switch {
	case strings.HasSuffix(rest, depositSuffix):
		rest = strings.TrimSuffix(rest, depositSuffix)
	case strings.HasSuffix(rest, balanceSuffix):
		rest = strings.TrimSuffix(rest, balanceSuffix)
		ptype = domain.PaymentTypeBalance
	}

	// The booking number is "BK" plus the millisecond digits; anything
	// after the digit run is a retry disambiguator.
	digits := rest[2:]
	end := 0
	for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil, ErrUnrecognizedOrderFormat
	}

	return &DecodedOrder{
		BookingNumber: "BK" + digits[:end],
		PaymentType:   ptype,
	}, nil
}

func decodeUnderscore(orderNo string) (*DecodedOrder, error) {
	parts := strings.Split(orderNo, "_")
	if len(parts) < 4 {
		return nil, ErrUnrecognizedOrderFormat
	}

	// BOOKING_<id>_<type>_<ts>; the id itself may contain underscores.
	id := strings.Join(parts[1:len(parts)-2], "_")
	if id == "" {
		return nil, ErrUnrecognizedOrderFormat
	}

	var ptype domain.PaymentType
	switch strings.ToLower(parts[len(parts)-2]) {
	case "deposit":
		ptype = domain.PaymentTypeDeposit
	case "balance":
		ptype = domain.PaymentTypeBalance
	default:
		return nil, ErrUnrecognizedOrderFormat
	}

	return &DecodedOrder{BookingNumber: id, PaymentType: ptype}, nil
}

func (c *OrderCodec) decodeCompact(ctx context.Context, orderNo string) (*DecodedOrder, error) {
	// The marker position tells the compact generations apart: a 16-char
	// truncated id carries its type marker at offset 16, a 20-char one at
	// offset 20. Truncated ids are lowercase hex, markers are uppercase,
	// so the two cannot collide.
	var idLen int
	switch {
	case orderNo[16] == 'D' || orderNo[16] == 'B':
		idLen = 16
	case orderNo[20] == 'D' || orderNo[20] == 'B':
		idLen = 20
	default:
		return nil, ErrUnrecognizedOrderFormat
	}

	idPart := orderNo[:idLen]
	if !isLowerHex(idPart) {
		return nil, ErrUnrecognizedOrderFormat
	}

	ptype := domain.PaymentTypeDeposit
	if orderNo[idLen] == 'B' {
		ptype = domain.PaymentTypeBalance
	}

	prefix := rehyphenate(idPart)

	recent, err := c.bookings.ListRecent(ctx, recentWindow)
	if err != nil {
		return nil, err
	}

	var match *domain.Booking
	for _, b := range recent {
		if strings.HasPrefix(strings.ToLower(b.Reference), prefix) {
			if match != nil {
				return nil, ErrAmbiguousReference
			}
			match = b
		}
	}
	if match == nil {
		return nil, ErrAmbiguousReference
	}

	return &DecodedOrder{
		BookingNumber: match.Number,
		BookingRef:    match.Reference,
		PaymentType:   ptype,
	}, nil
}

// rehyphenate restores the canonical 8-4-4-4-(12) UUID grouping on a
// dash-stripped hex prefix.
func rehyphenate(hexPart string) string {
	groups := []int{8, 4, 4, 4, 12}

	var sb strings.Builder
	rest := hexPart
	for _, g := range groups {
		if rest == "" {
			break
		}
		if sb.Len() > 0 {
			sb.WriteByte('-')
		}
		if len(rest) < g {
			g = len(rest)
		}
		sb.WriteString(rest[:g])
		rest = rest[g:]
	}
	return sb.String()
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func randLetters(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"

	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = letters[int(buf[i])%len(letters)]
	}
	return string(buf)
}
