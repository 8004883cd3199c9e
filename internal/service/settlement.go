package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"charter/internal/config"
	"charter/internal/domain"
	"charter/internal/lifecycle"
	"charter/internal/redis"
	"charter/internal/repository"
	"charter/internal/repository/postgres"
)

const (
	// settlementLockTTL bounds how long a crashed settlement can hold a
	// booking; a healthy HandleCallback finishes well under it.
	settlementLockTTL = 30 * time.Second

	// successMarker is the gateway's result value for a settled payment.
	successMarker = "1"

	callbackAck = "OK"
)

// Callback field names as delivered by the gateway.
const (
	fieldResult   = "result"
	fieldRetMsg   = "ret_msg"
	fieldOrderID  = "OrderID"
	fieldOrderNo  = "e_orderno"
	fieldAmount   = "e_money"
	fieldAuthCode = "AvCode"
	fieldCheck    = "str_check"
	fieldSendType = "Send_Type"
)

// CallbackResult is the outcome of one callback delivery.
//
// Ack is the plaintext body the gateway expects; it is returned for every
// resolvable delivery, including business failures, because the gateway
// retries anything that is not a 2xx. Anomaly carries a soft error that
// was logged but did not stop the ack. Events is the typed outbox: the
// caller hands them to a dispatcher after the response is sent.
type CallbackResult struct {
	Ack       string
	Processed bool
	Anomaly   error
	Booking   *domain.Booking
	Payment   *domain.Payment
	Events    []domain.Event
}

// SettlementService reconciles asynchronous gateway callbacks with
// booking state: it decodes the order number, authenticates the callback,
// applies the idempotency gate, derives the settlement amounts, drives the
// state machine, and persists the payment and booking writes as the final
// transactional step.
type SettlementService struct {
	db          *sql.DB
	bookingRepo repository.BookingRepository
	paymentRepo repository.PaymentRepository
	codec       *OrderCodec
	auth        *Authenticator
	lockStore   redis.LockStoreInterface
	cacheStore  *redis.CacheStore
	cfg         config.GatewayConfig
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	db *sql.DB,
	bookingRepo repository.BookingRepository,
	paymentRepo repository.PaymentRepository,
	codec *OrderCodec,
	auth *Authenticator,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	cfg config.GatewayConfig,
) *SettlementService {
	return &SettlementService{
		db:          db,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		codec:       codec,
		auth:        auth,
		lockStore:   lockStore,
		cacheStore:  cacheStore,
		cfg:         cfg,
	}
}

// HandleCallback processes one gateway callback delivery.
//
// It returns an error only when nothing was resolvable (ErrMissingField)
// or when our side failed mid-flight (store errors, lock contention); the
// handler maps those to non-2xx so the gateway redelivers. Every business
// outcome, including failures and anomalies, acks with 200.
func (s *SettlementService) HandleCallback(ctx context.Context, params map[string]string) (*CallbackResult, error) {
	result := params[fieldResult]
	orderNo := params[fieldOrderNo]
	if result == "" || orderNo == "" {
		return nil, ErrMissingField
	}

	if result != successMarker {
		return s.handleFailure(ctx, orderNo, params[fieldRetMsg])
	}

	amountStr := params[fieldAmount]

	// Authenticate before anything is read or written. A forged success
	// callback must not be able to complete a booking without payment.
	if err := s.auth.VerifyCallback(orderNo, amountStr, params[fieldSendType], params[fieldCheck]); err != nil {
		log.Printf("settlement: rejecting callback for %s: %v", orderNo, err)
		return &CallbackResult{Ack: callbackAck, Anomaly: err}, nil
	}

	// First resolution only identifies the booking so its lock can be
	// taken; the state it reads is advisory, since another delivery may
	// settle while this one waits for the lock.
	_, booking, _, res, err := s.resolve(ctx, orderNo)
	if res != nil || err != nil {
		return res, err
	}

	locked, err := s.lockStore.AcquireBookingLock(ctx, booking.Reference, settlementLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrBookingLocked
	}
	defer s.lockStore.ReleaseBookingLock(ctx, booking.Reference)

	// Authoritative resolution under the lock: the idempotency gate and
	// the state machine must see what the previous holder wrote.
	payment, booking, ptype, res, err := s.resolve(ctx, orderNo)
	if res != nil || err != nil {
		return res, err
	}
	if payment == nil {
		if payment, err = s.ensureAttempt(ctx, booking, ptype, orderNo); err != nil {
			return nil, err
		}
	}

	return s.settle(ctx, booking, payment, orderNo, params)
}

// resolve maps an order number to its booking and, when one exists, its
// payment attempt. Attempts issued since order numbers were persisted
// resolve directly; legacy identifiers go through the codec. The lookup
// never writes, so it runs once before the booking lock (to learn which
// lock to take) and again under it (for the state the idempotency gate
// reads). A non-nil CallbackResult means the callback is terminal (ack,
// log, stop).
func (s *SettlementService) resolve(ctx context.Context, orderNo string) (*domain.Payment, *domain.Booking, domain.PaymentType, *CallbackResult, error) {
	payment, err := s.paymentRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, nil, "", nil, err
	}

	if payment != nil {
		booking, err := s.bookingRepo.GetByReference(ctx, payment.BookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Printf("settlement: booking %s missing for order %s", payment.BookingID, orderNo)
				return nil, nil, "", &CallbackResult{Ack: callbackAck, Anomaly: ErrBookingNotFound}, nil
			}
			return nil, nil, "", nil, err
		}
		return payment, booking, payment.Type, nil, nil
	}

	decoded, err := s.codec.Decode(ctx, orderNo)
	if err != nil {
		if errors.Is(err, ErrUnrecognizedOrderFormat) || errors.Is(err, ErrAmbiguousReference) {
			// A malformed or unresolvable order number will never
			// resolve; ack so the gateway stops retrying it.
			log.Printf("settlement: cannot decode order %s: %v", orderNo, err)
			return nil, nil, "", &CallbackResult{Ack: callbackAck, Anomaly: err}, nil
		}
		return nil, nil, "", nil, err
	}

	var booking *domain.Booking
	if decoded.BookingRef != "" {
		booking, err = s.bookingRepo.GetByReference(ctx, decoded.BookingRef)
	} else {
		booking, err = s.bookingRepo.GetByNumber(ctx, decoded.BookingNumber)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("settlement: no booking for order %s", orderNo)
			return nil, nil, "", &CallbackResult{Ack: callbackAck, Anomaly: ErrBookingNotFound}, nil
		}
		return nil, nil, "", nil, err
	}

	payment, err = s.paymentRepo.GetLatestByBookingAndType(ctx, booking.Reference, decoded.PaymentType)
	if err != nil {
		return nil, nil, "", nil, err
	}

	return payment, booking, decoded.PaymentType, nil, nil
}

// ensureAttempt backfills an attempt row for an order initiated before
// attempts were persisted, so the settlement has an audit record. Callers
// on the success path hold the booking lock, so concurrent deliveries of
// the same order share one row.
func (s *SettlementService) ensureAttempt(ctx context.Context, booking *domain.Booking, ptype domain.PaymentType, orderNo string) (*domain.Payment, error) {
	payment := &domain.Payment{
		TransactionID: uuid.New().String(),
		BookingID:     booking.Reference,
		Type:          ptype,
		OrderNo:       orderNo,
		Status:        domain.PaymentStatusPending,
		Provider:      s.cfg.Provider,
		CreatedAt:     time.Now(),
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// settle runs under the booking lock: idempotency gate, amount
// derivation, state machine, and the final transactional writes.
func (s *SettlementService) settle(ctx context.Context, booking *domain.Booking, payment *domain.Payment, orderNo string, params map[string]string) (*CallbackResult, error) {
	res := &CallbackResult{Ack: callbackAck, Booking: booking, Payment: payment}

	// Idempotency gate: a completed attempt means this is a duplicate
	// delivery. Nothing is mutated; the second ack stops the retry storm.
	if payment.Status == domain.PaymentStatusCompleted {
		log.Printf("settlement: duplicate delivery for order %s", orderNo)
		res.Anomaly = ErrDuplicateCallback
		return res, nil
	}

	now := time.Now()
	paid := s.settlementAmount(booking, payment.Type, params[fieldAmount])

	// Balance settlements may carry a tip the system could not have
	// predicted; under-payment is logged but does not block completion,
	// since the deposit is non-refundable collateral.
	if payment.Type == domain.PaymentTypeBalance {
		tip := paid - booking.BalanceDue()
		if tip > 0 {
			booking.TipAmount = tip
		} else if tip < 0 {
			log.Printf("settlement: amount mismatch on %s: paid %.2f, expected %.2f", booking.Number, paid, booking.BalanceDue())
			res.Anomaly = ErrAmountMismatch
		}
	}

	event := domain.EventPaymentCompleted
	if payment.Type == domain.PaymentTypeBalance {
		event = domain.EventBalancePaid
	}

	from := booking.Status
	rec, transitionErr := lifecycle.Apply(booking, event, now)
	if transitionErr == nil {
		switch payment.Type {
		case domain.PaymentTypeDeposit:
			booking.DepositPaidAt = now
		case domain.PaymentTypeBalance:
			booking.CompletedAt = now
		}
	} else {
		// A callback for a booking that can no longer accept it (for
		// example already cancelled) is an anomaly, not a crash: the
		// payment is still recorded for audit, the booking status is
		// left untouched and flagged for manual review.
		log.Printf("settlement: %v on booking %s (order %s)", transitionErr, booking.Number, orderNo)
		res.Anomaly = transitionErr
	}

	externalID := params[fieldOrderID]
	authCode := params[fieldAuthCode]

	err := s.withTx(ctx, func(bookings repository.BookingRepository, payments repository.PaymentRepository) error {
		if err := payments.MarkCompleted(ctx, payment.TransactionID, externalID, authCode, paid, now); err != nil {
			return err
		}
		if transitionErr != nil {
			return bookings.FlagForReview(ctx, booking.Reference, transitionErr.Error())
		}
		return bookings.Update(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	payment.Status = domain.PaymentStatusCompleted
	payment.ExternalTransactionID = externalID
	payment.AuthCode = authCode
	payment.Amount = paid
	payment.ConfirmedAt = now

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateBooking(ctx, booking.Reference)
	}

	res.Processed = true
	res.Events = append(res.Events, NewEvent(domain.EventKindPaymentCompleted, booking.Reference, map[string]any{
		"booking":      booking,
		"payment_type": payment.Type,
		"amount":       paid,
	}))

	if transitionErr == nil {
		res.Events = append(res.Events, NewEvent(domain.EventKindBookingStatusChanged, booking.Reference, map[string]any{
			"booking": booking,
			"from":    rec.From,
			"to":      rec.To,
			"event":   rec.Event,
		}))
		if booking.Status == domain.BookingStatusCompleted {
			res.Events = append(res.Events, NewEvent(domain.EventKindBookingCompleted, booking.Reference, map[string]any{
				"booking": booking,
				"tip":     booking.TipAmount,
			}))
		}
	} else {
		res.Events = append(res.Events, NewEvent(domain.EventKindSettlementAnomaly, booking.Reference, map[string]any{
			"booking": booking,
			"reason":  transitionErr.Error(),
			"from":    from,
		}))
	}

	return res, nil
}

// handleFailure is the result != success path: the attempt is marked
// failed with the gateway's message, and the booking is left untouched so
// it stays payable for a fresh attempt.
func (s *SettlementService) handleFailure(ctx context.Context, orderNo, retMsg string) (*CallbackResult, error) {
	res := &CallbackResult{Ack: callbackAck}

	payment, booking, ptype, terminal, err := s.resolve(ctx, orderNo)
	if terminal != nil || err != nil {
		return terminal, err
	}
	if payment == nil {
		if payment, err = s.ensureAttempt(ctx, booking, ptype, orderNo); err != nil {
			return nil, err
		}
	}

	res.Booking = booking
	res.Payment = payment

	if payment.Status != domain.PaymentStatusPending {
		log.Printf("settlement: failure callback for non-pending attempt %s (order %s)", payment.TransactionID, orderNo)
		return res, nil
	}

	if err := s.paymentRepo.MarkFailed(ctx, payment.TransactionID, retMsg); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentStatusFailed
	payment.FailureReason = retMsg

	res.Processed = true
	res.Events = append(res.Events, NewEvent(domain.EventKindPaymentFailed, booking.Reference, map[string]any{
		"booking": booking,
		"reason":  retMsg,
	}))

	return res, nil
}

// settlementAmount trusts an explicit paid amount from the gateway (it may
// include a tip) and falls back to the booking's own figures otherwise.
func (s *SettlementService) settlementAmount(booking *domain.Booking, ptype domain.PaymentType, amountStr string) float64 {
	if amountStr != "" {
		if paid, err := strconv.ParseFloat(amountStr, 64); err == nil && paid > 0 {
			return paid
		}
		log.Printf("settlement: unparseable amount %q for %s, deriving from booking", amountStr, booking.Number)
	}

	if ptype == domain.PaymentTypeDeposit {
		return booking.DepositAmount
	}
	return booking.BalanceDue()
}

// withTx runs fn against transaction-scoped repositories, or against the
// injected ones when no database handle is present (tests).
func (s *SettlementService) withTx(ctx context.Context, fn func(bookings repository.BookingRepository, payments repository.PaymentRepository) error) error {
	if s.db == nil {
		return fn(s.bookingRepo, s.paymentRepo)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(postgres.NewBookingRepositoryWithTx(tx), postgres.NewPaymentRepositoryWithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
