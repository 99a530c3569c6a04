package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kasu/internal/domain"
	"kasu/pkg/errors"
)

// AttemptRepository persists the append-only verification audit log. There is
// deliberately no Update or Delete.
type AttemptRepository struct {
	db *sqlx.DB
}

func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *domain.VerificationAttempt) error {
	query := `
		INSERT INTO verification_attempts (
			id, vendor_id, attempt_type, outcome, request_data, response_data,
			error_message, ip_address, created_at
		) VALUES (
			:id, :vendor_id, :attempt_type, :outcome, :request_data, :response_data,
			:error_message, :ip_address, :created_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, attempt)
	return errors.Wrap(err, "failed to create verification attempt")
}

// CountSince counts started attempts in the rolling rate-limit window. Only
// rows that initiated a verification count; failed OTP entries do not.
func (r *AttemptRepository) CountSince(ctx context.Context, vendorID uuid.UUID, attemptType domain.AttemptType, since time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM verification_attempts
		WHERE vendor_id = $1 AND attempt_type = $2 AND outcome = $3 AND created_at >= $4
	`
	err := r.db.GetContext(ctx, &count, query, vendorID, attemptType, domain.AttemptStarted, since)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count verification attempts")
	}
	return count, nil
}

func (r *AttemptRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*domain.VerificationAttempt, error) {
	var attempts []*domain.VerificationAttempt
	query := `
		SELECT * FROM verification_attempts
		WHERE vendor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	err := r.db.SelectContext(ctx, &attempts, query, vendorID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list verification attempts")
	}
	return attempts, nil
}
