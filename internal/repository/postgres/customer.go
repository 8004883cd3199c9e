package postgres

import (
	"context"
	"database/sql"
	"errors"

	"charter/internal/domain"
	"charter/internal/repository"
)

// CustomerRepository implements repository.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create adds a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `INSERT INTO customers (id, name, phone) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, customer.ID, customer.Name, customer.Phone)
	return err
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT id, name, phone, created_at FROM customers WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves a customer by phone number.
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	query := `SELECT id, name, phone, created_at FROM customers WHERE phone = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, phone))
}

func (r *CustomerRepository) scanOne(row *sql.Row) (*domain.Customer, error) {
	var customer domain.Customer
	err := row.Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}
