package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kasu/internal/domain"
	"kasu/pkg/errors"
)

// TransactionRepository persists ledger rows. Update only finalizes status,
// snapshots and completion; amounts and types are never rewritten.
type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO wallet_transactions (
			id, wallet_id, type, amount, status, order_id, reference, description,
			balance_before, balance_after, metadata, created_at, completed_at
		) VALUES (
			:id, :wallet_id, :type, :amount, :status, :order_id, :reference, :description,
			:balance_before, :balance_after, :metadata, :created_at, :completed_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, tx)
	return errors.Wrap(err, "failed to create transaction")
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE wallet_transactions SET
			status = :status,
			balance_before = :balance_before,
			balance_after = :balance_after,
			metadata = :metadata,
			completed_at = :completed_at
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, tx)
	return errors.Wrap(err, "failed to update transaction")
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx := &domain.Transaction{}
	query := `SELECT * FROM wallet_transactions WHERE id = $1`
	err := r.db.GetContext(ctx, tx, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, errors.Wrap(err, "failed to find transaction by id")
	}
	return tx, nil
}

func (r *TransactionRepository) FindByOrderAndType(ctx context.Context, orderID uuid.UUID, txType domain.TransactionType) (*domain.Transaction, error) {
	tx := &domain.Transaction{}
	query := `SELECT * FROM wallet_transactions WHERE order_id = $1 AND type = $2 LIMIT 1`
	err := r.db.GetContext(ctx, tx, query, orderID, txType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, errors.Wrap(err, "failed to find transaction by order and type")
	}
	return tx, nil
}

func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	query := `
		SELECT * FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	err := r.db.SelectContext(ctx, &txs, query, walletID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list transactions")
	}
	return txs, nil
}

func (r *TransactionRepository) CountByWallet(ctx context.Context, walletID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`
	err := r.db.GetContext(ctx, &count, query, walletID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count transactions")
	}
	return count, nil
}
