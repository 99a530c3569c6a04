package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kasu/internal/domain"
	"kasu/pkg/errors"
)

type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (
			id, vendor_id, account_number, bank_name, bank_code, account_holder_name,
			recipient_code, available_balance, pending_balance, lifetime_earned,
			lifetime_withdrawn, commission_rate, is_verified, verified_at,
			created_at, updated_at
		) VALUES (
			:id, :vendor_id, :account_number, :bank_name, :bank_code, :account_holder_name,
			:recipient_code, :available_balance, :pending_balance, :lifetime_earned,
			:lifetime_withdrawn, :commission_rate, :is_verified, :verified_at,
			:created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, wallet)
	return errors.Wrap(err, "failed to create wallet")
}

func (r *WalletRepository) Update(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		UPDATE wallets SET
			account_number = :account_number,
			bank_name = :bank_name,
			bank_code = :bank_code,
			account_holder_name = :account_holder_name,
			recipient_code = :recipient_code,
			available_balance = :available_balance,
			pending_balance = :pending_balance,
			lifetime_earned = :lifetime_earned,
			lifetime_withdrawn = :lifetime_withdrawn,
			commission_rate = :commission_rate,
			is_verified = :is_verified,
			verified_at = :verified_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, wallet)
	return errors.Wrap(err, "failed to update wallet")
}

func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	wallet := &domain.Wallet{}
	query := `SELECT * FROM wallets WHERE id = $1`
	err := r.db.GetContext(ctx, wallet, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrWalletNotFound
		}
		return nil, errors.Wrap(err, "failed to find wallet by id")
	}
	return wallet, nil
}

func (r *WalletRepository) FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error) {
	wallet := &domain.Wallet{}
	query := `SELECT * FROM wallets WHERE vendor_id = $1`
	err := r.db.GetContext(ctx, wallet, query, vendorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrWalletNotFound
		}
		return nil, errors.Wrap(err, "failed to find wallet by vendor id")
	}
	return wallet, nil
}
