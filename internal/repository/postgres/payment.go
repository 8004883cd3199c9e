package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"charter/internal/domain"
	"charter/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

const paymentColumns = `
	transaction_id, booking_id, type, order_no, amount, status, provider,
	COALESCE(external_transaction_id, ''), COALESCE(auth_code, ''), COALESCE(failure_reason, ''),
	confirmed_at, created_at`

// Create persists a new payment attempt.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (transaction_id, booking_id, type, order_no, amount, status, provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		p.TransactionID,
		p.BookingID,
		p.Type,
		p.OrderNo,
		p.Amount,
		p.Status,
		p.Provider,
		p.CreatedAt,
	)

	return err
}

// GetByTransactionID retrieves a payment by its internal transaction id.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`

	p, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByOrderNo retrieves the payment attempt issued with the given order
// number. Returns nil if none carries it.
func (r *PaymentRepository) GetByOrderNo(ctx context.Context, orderNo string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_no = $1`

	p, err := scanPayment(r.q.QueryRowContext(ctx, query, orderNo))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetLatestByBookingAndType retrieves the most recent payment attempt for a
// (booking, payment type) pair. Returns nil if none exists.
func (r *PaymentRepository) GetLatestByBookingAndType(ctx context.Context, bookingRef string, ptype domain.PaymentType) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments WHERE booking_id = $1 AND type = $2
		ORDER BY created_at DESC LIMIT 1
	`

	p, err := scanPayment(r.q.QueryRowContext(ctx, query, bookingRef, ptype))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// MarkCompleted records a successful settlement on a payment attempt.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, transactionID, externalID, authCode string, amount float64, confirmedAt time.Time) error {
	query := `
		UPDATE payments
		SET status = $1, external_transaction_id = $2, auth_code = $3, amount = $4, confirmed_at = $5
		WHERE transaction_id = $6
	`
	return r.exec(ctx, query, domain.PaymentStatusCompleted, nullString(externalID), nullString(authCode), amount, confirmedAt, transactionID)
}

// MarkFailed records a gateway-reported failure.
func (r *PaymentRepository) MarkFailed(ctx context.Context, transactionID, reason string) error {
	query := `UPDATE payments SET status = $1, failure_reason = $2 WHERE transaction_id = $3`
	return r.exec(ctx, query, domain.PaymentStatusFailed, nullString(reason), transactionID)
}

// MarkCancelled marks a superseded attempt cancelled.
func (r *PaymentRepository) MarkCancelled(ctx context.Context, transactionID string) error {
	query := `UPDATE payments SET status = $1 WHERE transaction_id = $2`
	return r.exec(ctx, query, domain.PaymentStatusCancelled, transactionID)
}

func (r *PaymentRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	var confirmedAt sql.NullTime

	err := s.Scan(
		&p.TransactionID,
		&p.BookingID,
		&p.Type,
		&p.OrderNo,
		&p.Amount,
		&p.Status,
		&p.Provider,
		&p.ExternalTransactionID,
		&p.AuthCode,
		&p.FailureReason,
		&confirmedAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ConfirmedAt = confirmedAt.Time
	return &p, nil
}
