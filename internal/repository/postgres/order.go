package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kasu/internal/domain"
	"kasu/pkg/errors"
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, vendor_id, status, total_amount, commission_amount, vendor_amount,
			payment_reference, payment_status, paid_at, delivered_at, created_at, updated_at
		) VALUES (
			:id, :vendor_id, :status, :total_amount, :commission_amount, :vendor_amount,
			:payment_reference, :payment_status, :paid_at, :delivered_at, :created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, order)
	return errors.Wrap(err, "failed to create order")
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders SET
			status = :status,
			total_amount = :total_amount,
			commission_amount = :commission_amount,
			vendor_amount = :vendor_amount,
			payment_reference = :payment_reference,
			payment_status = :payment_status,
			paid_at = :paid_at,
			delivered_at = :delivered_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, order)
	return errors.Wrap(err, "failed to update order")
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order := &domain.Order{}
	query := `SELECT * FROM orders WHERE id = $1`
	err := r.db.GetContext(ctx, order, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "failed to find order by id")
	}
	return order, nil
}

func (r *OrderRepository) FindByPaymentReference(ctx context.Context, reference string) (*domain.Order, error) {
	order := &domain.Order{}
	query := `SELECT * FROM orders WHERE payment_reference = $1`
	err := r.db.GetContext(ctx, order, query, reference)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "failed to find order by payment reference")
	}
	return order, nil
}
