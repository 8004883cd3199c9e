package postgres

import (
	"context"
	"database/sql"
	"errors"

	"charter/internal/domain"
	"charter/internal/repository"
)

// CommissionRepository is a PostgreSQL implementation of repository.CommissionRepository.
type CommissionRepository struct {
	q Querier
}

// NewCommissionRepository creates a new PostgreSQL commission repository.
func NewCommissionRepository(db *sql.DB) *CommissionRepository {
	return &CommissionRepository{q: db}
}

// NewCommissionRepositoryWithTx creates a commission repository using a transaction.
func NewCommissionRepositoryWithTx(tx *sql.Tx) *CommissionRepository {
	return &CommissionRepository{q: tx}
}

// Create persists a new commission record.
func (r *CommissionRepository) Create(ctx context.Context, rec *domain.CommissionRecord) error {
	query := `
		INSERT INTO commission_records (
			id, influencer_id, booking_id, promo_code,
			original_price, discount_amount, final_price,
			commission_amount, commission_type, commission_rate, commission_fixed_amount, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		rec.ID,
		rec.InfluencerID,
		rec.BookingID,
		rec.PromoCode,
		rec.OriginalPrice,
		rec.DiscountAmount,
		rec.FinalPrice,
		rec.CommissionAmount,
		rec.CommissionType,
		rec.CommissionRate,
		rec.CommissionFixedAmount,
		rec.CreatedAt,
	)

	return err
}

// GetByBookingID retrieves the commission record for a booking.
// Returns nil if the booking used no promo code.
func (r *CommissionRepository) GetByBookingID(ctx context.Context, bookingRef string) (*domain.CommissionRecord, error) {
	query := `
		SELECT id, influencer_id, booking_id, promo_code,
			original_price, discount_amount, final_price,
			commission_amount, commission_type, commission_rate, commission_fixed_amount, created_at
		FROM commission_records WHERE booking_id = $1
	`

	var rec domain.CommissionRecord
	err := r.q.QueryRowContext(ctx, query, bookingRef).Scan(
		&rec.ID,
		&rec.InfluencerID,
		&rec.BookingID,
		&rec.PromoCode,
		&rec.OriginalPrice,
		&rec.DiscountAmount,
		&rec.FinalPrice,
		&rec.CommissionAmount,
		&rec.CommissionType,
		&rec.CommissionRate,
		&rec.CommissionFixedAmount,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &rec, nil
}

// PromoRepository is a PostgreSQL implementation of repository.PromoRepository.
type PromoRepository struct {
	q Querier
}

// NewPromoRepository creates a new PostgreSQL promo repository.
func NewPromoRepository(db *sql.DB) *PromoRepository {
	return &PromoRepository{q: db}
}

// GetByCode retrieves an active promo code configuration.
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	query := `
		SELECT code, influencer_id, discount_amount, commission_type, commission_rate, commission_fixed_amount, active
		FROM promo_codes WHERE code = $1 AND active = TRUE
	`

	var promo domain.PromoCode
	err := r.q.QueryRowContext(ctx, query, code).Scan(
		&promo.Code,
		&promo.InfluencerID,
		&promo.DiscountAmount,
		&promo.CommissionType,
		&promo.CommissionRate,
		&promo.CommissionFixedAmount,
		&promo.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &promo, nil
}
