package postgres

import (
	"context"
	"database/sql"
	"errors"

	"charter/internal/domain"
	"charter/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `
	reference, number, customer_id, COALESCE(driver_id, ''), status,
	COALESCE(pickup_address, ''), COALESCE(dropoff_address, ''), pickup_at, booked_hours,
	base_price, deposit_amount, balance_amount, overtime_fee_amount, overtime_hourly_rate,
	tip_amount, discount_amount, total_amount,
	COALESCE(promo_code, ''), COALESCE(influencer_id, ''),
	commission_amount, COALESCE(commission_type, ''), commission_rate, commission_fixed_amount,
	deposit_paid_at, departed_at, arrived_at, trip_started_at, trip_ended_at, completed_at, cancelled_at,
	needs_review, COALESCE(review_reason, ''), created_at`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (
			reference, number, customer_id, driver_id, status,
			pickup_address, dropoff_address, pickup_at, booked_hours,
			base_price, deposit_amount, balance_amount, overtime_fee_amount, overtime_hourly_rate,
			tip_amount, discount_amount, total_amount,
			promo_code, influencer_id, commission_amount, commission_type, commission_rate, commission_fixed_amount,
			needs_review, review_reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := r.q.ExecContext(ctx, query,
		b.Reference,
		b.Number,
		b.CustomerID,
		nullString(b.DriverID),
		b.Status,
		nullString(b.PickupAddress),
		nullString(b.DropoffAddress),
		b.PickupAt,
		b.BookedHours,
		b.BasePrice,
		b.DepositAmount,
		b.BalanceAmount,
		b.OvertimeFeeAmount,
		b.OvertimeHourlyRate,
		b.TipAmount,
		b.DiscountAmount,
		b.TotalAmount,
		nullString(b.PromoCode),
		nullString(b.InfluencerID),
		b.CommissionAmount,
		nullString(string(b.CommissionType)),
		b.CommissionRate,
		b.CommissionFixedAmount,
		b.NeedsReview,
		nullString(b.ReviewReason),
		b.CreatedAt,
	)

	return err
}

// GetByReference retrieves a booking by its opaque reference.
func (r *BookingRepository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, ref))
}

// GetByNumber retrieves a booking by its human-facing booking number.
func (r *BookingRepository) GetByNumber(ctx context.Context, number string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE number = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, number))
}

// Update persists all mutable fields of an existing booking.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `
		UPDATE bookings SET
			driver_id = $1, status = $2,
			balance_amount = $3, overtime_fee_amount = $4, tip_amount = $5, total_amount = $6,
			deposit_paid_at = $7, departed_at = $8, arrived_at = $9,
			trip_started_at = $10, trip_ended_at = $11, completed_at = $12, cancelled_at = $13,
			needs_review = $14, review_reason = $15
		WHERE reference = $16
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(b.DriverID),
		b.Status,
		b.BalanceAmount,
		b.OvertimeFeeAmount,
		b.TipAmount,
		b.TotalAmount,
		nullTime(b.DepositPaidAt),
		nullTime(b.DepartedAt),
		nullTime(b.ArrivedAt),
		nullTime(b.TripStartedAt),
		nullTime(b.TripEndedAt),
		nullTime(b.CompletedAt),
		nullTime(b.CancelledAt),
		b.NeedsReview,
		nullString(b.ReviewReason),
		b.Reference,
	)
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

// ListRecent retrieves the most recently created bookings, newest first.
func (r *BookingRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC LIMIT $1`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// FlagForReview marks a booking for manual operator review.
func (r *BookingRepository) FlagForReview(ctx context.Context, ref string, reason string) error {
	query := `UPDATE bookings SET needs_review = TRUE, review_reason = $1 WHERE reference = $2`

	result, err := r.q.ExecContext(ctx, query, reason, ref)
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

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *BookingRepository) scanOne(row *sql.Row) (*domain.Booking, error) {
	b, err := r.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *BookingRepository) scan(s scanner) (*domain.Booking, error) {
	var b domain.Booking
	var commissionType string
	var depositPaidAt, departedAt, arrivedAt, tripStartedAt, tripEndedAt, completedAt, cancelledAt sql.NullTime

	err := s.Scan(
		&b.Reference,
		&b.Number,
		&b.CustomerID,
		&b.DriverID,
		&b.Status,
		&b.PickupAddress,
		&b.DropoffAddress,
		&b.PickupAt,
		&b.BookedHours,
		&b.BasePrice,
		&b.DepositAmount,
		&b.BalanceAmount,
		&b.OvertimeFeeAmount,
		&b.OvertimeHourlyRate,
		&b.TipAmount,
		&b.DiscountAmount,
		&b.TotalAmount,
		&b.PromoCode,
		&b.InfluencerID,
		&b.CommissionAmount,
		&commissionType,
		&b.CommissionRate,
		&b.CommissionFixedAmount,
		&depositPaidAt,
		&departedAt,
		&arrivedAt,
		&tripStartedAt,
		&tripEndedAt,
		&completedAt,
		&cancelledAt,
		&b.NeedsReview,
		&b.ReviewReason,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CommissionType = domain.CommissionType(commissionType)
	b.DepositPaidAt = depositPaidAt.Time
	b.DepartedAt = departedAt.Time
	b.ArrivedAt = arrivedAt.Time
	b.TripStartedAt = tripStartedAt.Time
	b.TripEndedAt = tripEndedAt.Time
	b.CompletedAt = completedAt.Time
	b.CancelledAt = cancelledAt.Time

	return &b, nil
}
