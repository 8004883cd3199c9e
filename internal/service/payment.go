package service

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"charter/internal/config"
	"charter/internal/domain"
	"charter/internal/lifecycle"
	"charter/internal/redis"
	"charter/internal/repository"
)

const initiationLockTTL = 10 * time.Second

// PaymentService initiates outbound payments against the gateway.
type PaymentService struct {
	bookingRepo repository.BookingRepository
	paymentRepo repository.PaymentRepository
	codec       *OrderCodec
	auth        *Authenticator
	lockStore   redis.LockStoreInterface
	cfg         config.GatewayConfig
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	bookingRepo repository.BookingRepository,
	paymentRepo repository.PaymentRepository,
	codec *OrderCodec,
	auth *Authenticator,
	lockStore redis.LockStoreInterface,
	cfg config.GatewayConfig,
) *PaymentService {
	return &PaymentService{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		codec:       codec,
		auth:        auth,
		lockStore:   lockStore,
		cfg:         cfg,
	}
}

// PaymentLink is a signed gateway link for one payment attempt.
type PaymentLink struct {
	Payment *domain.Payment
	URL     string
}

// InitiatePayment creates a fresh payment attempt for a booking and
// returns the signed gateway link.
//
// A still-pending prior attempt for the same (booking, type) pair is
// marked cancelled first: at most one live attempt exists per pair, and
// every attempt gets a globally unique order number because the gateway
// rejects duplicates even across retries.
func (s *PaymentService) InitiatePayment(ctx context.Context, bookingRef string, ptype domain.PaymentType) (*PaymentLink, error) {
	if bookingRef == "" {
		return nil, ErrInvalidBookingID
	}
	if ptype != domain.PaymentTypeDeposit && ptype != domain.PaymentTypeBalance {
		return nil, ErrInvalidPaymentType
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireBookingLock(ctx, bookingRef, initiationLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrBookingLocked
		}
		defer s.lockStore.ReleaseBookingLock(ctx, bookingRef)
	}

	booking, err := s.bookingRepo.GetByReference(ctx, bookingRef)
	if err != nil {
		return nil, err
	}

	amount, err := s.payableAmount(booking, ptype)
	if err != nil {
		return nil, err
	}

	// A balance request moves the booking out of TRIP_ENDED so the
	// customer-facing status reflects that payment is now awaited.
	if ptype == domain.PaymentTypeBalance && booking.Status == domain.BookingStatusTripEnded {
		if _, err := lifecycle.Apply(booking, domain.EventRequestBalance, time.Now()); err != nil {
			return nil, err
		}
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return nil, err
		}
	}

	prior, err := s.paymentRepo.GetLatestByBookingAndType(ctx, booking.Reference, ptype)
	if err != nil {
		return nil, err
	}
	if prior != nil && prior.Status == domain.PaymentStatusPending {
		if err := s.paymentRepo.MarkCancelled(ctx, prior.TransactionID); err != nil {
			return nil, err
		}
	}

	orderNo, err := s.codec.Encode(booking.Number, ptype, prior != nil)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		TransactionID: uuid.New().String(),
		BookingID:     booking.Reference,
		Type:          ptype,
		OrderNo:       orderNo,
		Amount:        amount,
		Status:        domain.PaymentStatusPending,
		Provider:      s.cfg.Provider,
		CreatedAt:     time.Now(),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return &PaymentLink{
		Payment: payment,
		URL:     s.buildLink(orderNo, amount),
	}, nil
}

func (s *PaymentService) payableAmount(booking *domain.Booking, ptype domain.PaymentType) (float64, error) {
	switch ptype {
	case domain.PaymentTypeDeposit:
		if booking.Status != domain.BookingStatusDraft && booking.Status != domain.BookingStatusPendingPayment {
			return 0, ErrBookingNotPayable
		}
		return booking.DepositAmount, nil
	default:
		if booking.Status != domain.BookingStatusTripEnded && booking.Status != domain.BookingStatusPendingBalance {
			return 0, ErrBookingNotPayable
		}
		return booking.BalanceDue(), nil
	}
}

// buildLink assembles the signed gateway URL. Return_url carries the
// order number itself because the gateway drops it on failure redirects.
func (s *PaymentService) buildLink(orderNo string, amount float64) string {
	amountStr := formatAmount(amount)

	returnURL, _ := url.Parse(s.cfg.ReturnURL)
	rq := returnURL.Query()
	rq.Set("Order_No", orderNo)
	returnURL.RawQuery = rq.Encode()

	q := url.Values{}
	q.Set("CustomerId", s.cfg.MerchantID)
	q.Set("Order_No", orderNo)
	q.Set("Amount", amountStr)
	q.Set("Send_Type", defaultSendType)
	q.Set("Str_Check", s.auth.Sign(orderNo, amountStr, defaultSendType))
	q.Set("Return_url", returnURL.String())

	return s.cfg.PayURL + "?" + q.Encode()
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
