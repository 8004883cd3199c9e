package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"charter/internal/domain"
	"charter/internal/lifecycle"
	"charter/internal/redis"
	"charter/internal/repository"
)

// defaultDepositRate is applied when a booking request does not name an
// explicit deposit.
const defaultDepositRate = 0.3

// BookingService handles booking creation and queries.
type BookingService struct {
	bookingRepo    repository.BookingRepository
	commissionRepo repository.CommissionRepository
	promoRepo      repository.PromoRepository
	lockStore      redis.LockStoreInterface
	cacheStore     *redis.CacheStore
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	commissionRepo repository.CommissionRepository,
	promoRepo repository.PromoRepository,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
) *BookingService {
	return &BookingService{
		bookingRepo:    bookingRepo,
		commissionRepo: commissionRepo,
		promoRepo:      promoRepo,
		lockStore:      lockStore,
		cacheStore:     cacheStore,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	CustomerID         string
	PickupAddress      string
	DropoffAddress     string
	PickupAt           time.Time
	BookedHours        float64
	BasePrice          float64
	DepositAmount      float64
	OvertimeHourlyRate float64
	PromoCode          string
}

// CreateBooking creates a booking in PENDING_PAYMENT with its financial
// snapshot. When a promo code is used, the discount and the influencer's
// commission terms are frozen here; settlement reads the snapshot, never
// the live promo configuration, so the customer's deal cannot change
// between booking and payment.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if req.BasePrice <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now()

	booking := &domain.Booking{
		Reference:          uuid.New().String(),
		Number:             "BK" + strconv.FormatInt(now.UnixMilli(), 10),
		CustomerID:         req.CustomerID,
		Status:             domain.BookingStatusPendingPayment,
		PickupAddress:      req.PickupAddress,
		DropoffAddress:     req.DropoffAddress,
		PickupAt:           req.PickupAt,
		BookedHours:        req.BookedHours,
		BasePrice:          req.BasePrice,
		OvertimeHourlyRate: req.OvertimeHourlyRate,
		CreatedAt:          now,
	}

	var promo *domain.PromoCode
	if req.PromoCode != "" {
		p, err := s.promoRepo.GetByCode(ctx, req.PromoCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPromoCodeInvalid
			}
			return nil, err
		}
		promo = p

		booking.PromoCode = promo.Code
		booking.InfluencerID = promo.InfluencerID
		booking.DiscountAmount = promo.DiscountAmount
		booking.CommissionType = promo.CommissionType
		booking.CommissionRate = promo.CommissionRate
		booking.CommissionFixedAmount = promo.CommissionFixedAmount
	}

	finalPrice := booking.BasePrice - booking.DiscountAmount
	if finalPrice < 0 {
		finalPrice = 0
	}
	booking.TotalAmount = finalPrice

	booking.DepositAmount = req.DepositAmount
	if booking.DepositAmount <= 0 {
		booking.DepositAmount = finalPrice * defaultDepositRate
	}
	booking.BalanceAmount = finalPrice - booking.DepositAmount

	if promo != nil {
		booking.CommissionAmount = commissionFor(promo, finalPrice)
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	if promo != nil {
		record := &domain.CommissionRecord{
			ID:                    uuid.New().String(),
			InfluencerID:          promo.InfluencerID,
			BookingID:             booking.Reference,
			PromoCode:             promo.Code,
			OriginalPrice:         booking.BasePrice,
			DiscountAmount:        booking.DiscountAmount,
			FinalPrice:            finalPrice,
			CommissionAmount:      booking.CommissionAmount,
			CommissionType:        promo.CommissionType,
			CommissionRate:        promo.CommissionRate,
			CommissionFixedAmount: promo.CommissionFixedAmount,
			CreatedAt:             now,
		}
		if err := s.commissionRepo.Create(ctx, record); err != nil {
			return nil, err
		}
	}

	return booking, nil
}

// GetBooking retrieves a booking by reference.
func (s *BookingService) GetBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	if ref == "" {
		return nil, ErrInvalidBookingID
	}

	return s.bookingRepo.GetByReference(ctx, ref)
}

// GetBookingStatus returns the status snapshot for a booking, reading
// through the cache. This is the hot path: customers poll it while a
// payment or dispatch is in flight.
func (s *BookingService) GetBookingStatus(ctx context.Context, ref string) (*redis.CachedBooking, error) {
	if ref == "" {
		return nil, ErrInvalidBookingID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetBooking(ctx, ref); err == nil && cached != nil {
			return cached, nil
		}
	}

	booking, err := s.bookingRepo.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}

	snapshot := &redis.CachedBooking{
		Reference: booking.Reference,
		Number:    booking.Number,
		Status:    string(booking.Status),
		Total:     booking.TotalAmount,
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetBooking(ctx, snapshot)
	}

	return snapshot, nil
}

// CancelBooking cancels a booking through the state machine.
func (s *BookingService) CancelBooking(ctx context.Context, ref string) (*domain.Booking, []domain.Event, error) {
	return s.applyEvent(ctx, ref, domain.EventCancelOrder, func(b *domain.Booking, now time.Time) {
		b.CancelledAt = now
	})
}

// RefundBooking moves a cancelled booking to REFUNDED once the deposit
// has been returned.
func (s *BookingService) RefundBooking(ctx context.Context, ref string) (*domain.Booking, []domain.Event, error) {
	return s.applyEvent(ctx, ref, domain.EventRefundOrder, nil)
}

// applyEvent runs a single lifecycle event on a booking under its lock.
func (s *BookingService) applyEvent(ctx context.Context, ref string, event domain.BookingEvent, mutate func(*domain.Booking, time.Time)) (*domain.Booking, []domain.Event, error) {
	if ref == "" {
		return nil, nil, ErrInvalidBookingID
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireBookingLock(ctx, ref, initiationLockTTL)
		if err != nil {
			return nil, nil, err
		}
		if !locked {
			return nil, nil, ErrBookingLocked
		}
		defer s.lockStore.ReleaseBookingLock(ctx, ref)
	}

	booking, err := s.bookingRepo.GetByReference(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	rec, err := lifecycle.Apply(booking, event, now)
	if err != nil {
		return nil, nil, err
	}
	if mutate != nil {
		mutate(booking, now)
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateBooking(ctx, ref)
	}

	events := []domain.Event{
		NewEvent(domain.EventKindBookingStatusChanged, ref, map[string]any{
			"booking": booking,
			"from":    rec.From,
			"to":      rec.To,
			"event":   rec.Event,
		}),
	}

	return booking, events, nil
}

// commissionFor derives the influencer commission from the snapshot terms.
func commissionFor(promo *domain.PromoCode, finalPrice float64) float64 {
	switch promo.CommissionType {
	case domain.CommissionTypeFixed:
		return promo.CommissionFixedAmount
	case domain.CommissionTypePercent:
		return finalPrice * promo.CommissionRate
	case domain.CommissionTypeBoth:
		return promo.CommissionFixedAmount + finalPrice*promo.CommissionRate
	}
	return 0
}
