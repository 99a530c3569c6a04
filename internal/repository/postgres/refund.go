package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kasu/internal/domain"
	"kasu/pkg/errors"
)

type RefundRepository struct {
	db *sqlx.DB
}

func NewRefundRepository(db *sqlx.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(ctx context.Context, refund *domain.RefundRequest) error {
	query := `
		INSERT INTO refund_requests (
			id, order_id, vendor_id, reason, description, amount, status,
			admin_comment, processed_by, processed_at, created_at, updated_at
		) VALUES (
			:id, :order_id, :vendor_id, :reason, :description, :amount, :status,
			:admin_comment, :processed_by, :processed_at, :created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, refund)
	return errors.Wrap(err, "failed to create refund request")
}

func (r *RefundRepository) Update(ctx context.Context, refund *domain.RefundRequest) error {
	query := `
		UPDATE refund_requests SET
			status = :status,
			admin_comment = :admin_comment,
			processed_by = :processed_by,
			processed_at = :processed_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, refund)
	return errors.Wrap(err, "failed to update refund request")
}

func (r *RefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RefundRequest, error) {
	refund := &domain.RefundRequest{}
	query := `SELECT * FROM refund_requests WHERE id = $1`
	err := r.db.GetContext(ctx, refund, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrRefundNotFound
		}
		return nil, errors.Wrap(err, "failed to find refund request by id")
	}
	return refund, nil
}

func (r *RefundRepository) ListByStatus(ctx context.Context, status domain.RefundStatus, limit, offset int) ([]*domain.RefundRequest, error) {
	var refunds []*domain.RefundRequest
	query := `
		SELECT * FROM refund_requests
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	err := r.db.SelectContext(ctx, &refunds, query, status, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list refund requests")
	}
	return refunds, nil
}
