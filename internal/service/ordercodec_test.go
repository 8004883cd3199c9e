package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"charter/internal/domain"
)

type stubBookingSource struct {
	bookings []*domain.Booking
	err      error
}

func (s *stubBookingSource) ListRecent(ctx context.Context, limit int) ([]*domain.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.bookings) > limit {
		return s.bookings[:limit], nil
	}
	return s.bookings, nil
}

func TestEncode(t *testing.T) {
	t.Parallel()

	codec := NewOrderCodec(&stubBookingSource{})

	tests := []struct {
		name   string
		number string
		ptype  domain.PaymentType
		retry  bool
		want   string
	}{
		{"deposit", "BK1700000000000", domain.PaymentTypeDeposit, false, "BK1700000000000-DEPOSIT"},
		{"balance", "BK1700000000000", domain.PaymentTypeBalance, false, "BK1700000000000-BALANCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Encode(tt.number, tt.ptype, tt.retry)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeRetryDisambiguates(t *testing.T) {
	t.Parallel()

	codec := NewOrderCodec(&stubBookingSource{})

	first, err := codec.Encode("BK1700000000000", domain.PaymentTypeDeposit, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	retry, err := codec.Encode("BK1700000000000", domain.PaymentTypeDeposit, true)
	if err != nil {
		t.Fatalf("Encode retry: %v", err)
	}

	if retry == first {
		t.Error("retry produced the same order number")
	}
	if len(retry) > 25 {
		t.Errorf("retry order number %q exceeds 25 characters", retry)
	}

	// The retry still decodes back to the same booking number and type.
	decoded, err := codec.Decode(context.Background(), retry)
	if err != nil {
		t.Fatalf("Decode(%s): %v", retry, err)
	}
	if decoded.BookingNumber != "BK1700000000000" {
		t.Errorf("decoded number = %s, want BK1700000000000", decoded.BookingNumber)
	}
	if decoded.PaymentType != domain.PaymentTypeDeposit {
		t.Errorf("decoded type = %s, want deposit", decoded.PaymentType)
	}
}

func TestEncodeRejectsOverlongNumbers(t *testing.T) {
	t.Parallel()

	codec := NewOrderCodec(&stubBookingSource{})

	_, err := codec.Encode("BK17000000000000000000", domain.PaymentTypeDeposit, false)
	if !errors.Is(err, ErrOrderNumberTooLong) {
		t.Errorf("err = %v, want ErrOrderNumberTooLong", err)
	}
}

func TestDecodeCurrentFormat(t *testing.T) {
	t.Parallel()

	codec := NewOrderCodec(&stubBookingSource{})
	ctx := context.Background()

	tests := []struct {
		name       string
		orderNo    string
		wantNumber string
		wantType   domain.PaymentType
	}{
		{"deposit suffix", "BK1700000000000-DEPOSIT", "BK1700000000000", domain.PaymentTypeDeposit},
		{"balance suffix", "BK1700000000000-BALANCE", "BK1700000000000", domain.PaymentTypeBalance},
		{"retry letters stripped", "BK1700000000000xq-BALANCE", "BK1700000000000", domain.PaymentTypeBalance},
		{"bare number is a legacy deposit", "BK1700000000000", "BK1700000000000", domain.PaymentTypeDeposit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := codec.Decode(ctx, tt.orderNo)
			if err != nil {
				t.Fatalf("Decode(%s): %v", tt.orderNo, err)
			}
			if decoded.BookingNumber != tt.wantNumber {
				t.Errorf("number = %s, want %s", decoded.BookingNumber, tt.wantNumber)
			}
			if decoded.PaymentType != tt.wantType {
				t.Errorf("type = %s, want %s", decoded.PaymentType, tt.wantType)
			}
		})
	}
}

func TestDecodeUnderscoreFormat(t *testing.T) {
	t.Parallel()

	codec := NewOrderCodec(&stubBookingSource{})
	ctx := context.Background()

	// The embedded id may itself contain underscores.
	decoded, err := codec.Decode(ctx, "BOOKING_bk_77_balance_1699999999")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.BookingNumber != "bk_77" {
		t.Errorf("number = %s, want bk_77", decoded.BookingNumber)
	}
	if decoded.PaymentType != domain.PaymentTypeBalance {
		t.Errorf("type = %s, want balance", decoded.PaymentType)
	}

	if _, err := codec.Decode(ctx, "BOOKING_x_unknown_123"); !errors.Is(err, ErrUnrecognizedOrderFormat) {
		t.Errorf("bad type marker: err = %v, want ErrUnrecognizedOrderFormat", err)
	}
}

func TestDecodeCompactFormats(t *testing.T) {
	t.Parallel()

	booking := &domain.Booking{
		Reference: "3f2a1b4c-5d6e-4f70-8a9b-0c1d2e3f4a5b",
		Number:    "BK1690000000000",
		CreatedAt: time.Now(),
	}
	codec := NewOrderCodec(&stubBookingSource{bookings: []*domain.Booking{booking}})
	ctx := context.Background()

	tests := []struct {
		name     string
		orderNo  string
		wantType domain.PaymentType
	}{
		// 16 hex chars + marker + 8 filler.
		{"short id deposit", "3f2a1b4c5d6e4f70D12345678", domain.PaymentTypeDeposit},
		{"short id balance", "3f2a1b4c5d6e4f70B12345678", domain.PaymentTypeBalance},
		// 20 hex chars + marker + 4 filler.
		{"long id balance", "3f2a1b4c5d6e4f708a9bB1234", domain.PaymentTypeBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := codec.Decode(ctx, tt.orderNo)
			if err != nil {
				t.Fatalf("Decode(%s): %v", tt.orderNo, err)
			}
			if decoded.BookingRef != booking.Reference {
				t.Errorf("ref = %s, want %s", decoded.BookingRef, booking.Reference)
			}
			if decoded.PaymentType != tt.wantType {
				t.Errorf("type = %s, want %s", decoded.PaymentType, tt.wantType)
			}
		})
	}
}

func TestDecodeCompactAmbiguous(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// No recent booking matches the truncated id.
	empty := NewOrderCodec(&stubBookingSource{})
	if _, err := empty.Decode(ctx, "3f2a1b4c5d6e4f70D12345678"); !errors.Is(err, ErrAmbiguousReference) {
		t.Errorf("no match: err = %v, want ErrAmbiguousReference", err)
	}

	// Two recent bookings share the truncated prefix.
	crowded := NewOrderCodec(&stubBookingSource{bookings: []*domain.Booking{
		{Reference: "3f2a1b4c-5d6e-4f70-8a9b-0c1d2e3f4a5b", Number: "BK1"},
		{Reference: "3f2a1b4c-5d6e-4f70-ffff-ffffffffffff", Number: "BK2"},
	}})
	if _, err := crowded.Decode(ctx, "3f2a1b4c5d6e4f70D12345678"); !errors.Is(err, ErrAmbiguousReference) {
		t.Errorf("multiple matches: err = %v, want ErrAmbiguousReference", err)
	}
}

func TestDecodeUnrecognized(t *testing.T) {
	t.Parallel()

	codec := NewOrderCodec(&stubBookingSource{})
	ctx := context.Background()

	for _, orderNo := range []string{
		"",
		"ORDER-42",
		"XYZ1700000000000-DEPOSIT",
		// 25 characters but no valid marker position.
		"zzzzzzzzzzzzzzzzzzzzzzzzz",
	} {
		if _, err := codec.Decode(ctx, orderNo); !errors.Is(err, ErrUnrecognizedOrderFormat) {
			t.Errorf("Decode(%q): err = %v, want ErrUnrecognizedOrderFormat", orderNo, err)
		}
	}
}
