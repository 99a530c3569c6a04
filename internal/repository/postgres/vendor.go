// Package postgres implements the repository interfaces over PostgreSQL
// using sqlx. Not-found rows map to the package-level sentinel errors.
package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kasu/internal/domain"
	"kasu/pkg/errors"
)

type VendorRepository struct {
	db *sqlx.DB
}

func NewVendorRepository(db *sqlx.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) Create(ctx context.Context, v *domain.VendorIdentity) error {
	query := `
		INSERT INTO vendor_identities (
			id, user_id, full_name, phone, gender, dob, address, state, region, photo_ref,
			nin_number, bvn_number, bvn_full_name,
			matric_number, department, level,
			verification_status, identity_status, bank_status, student_status,
			store_setup_completed, store_setup_skipped,
			risk_score, has_duplicate_nin, duplicate_nin_vendor_id,
			has_duplicate_bvn, duplicate_bvn_vendor_id,
			has_name_mismatch, name_mismatch_details, is_underage, calculated_age,
			admin_notes, reviewed_by, reviewed_at,
			registration_ip, identity_ip, bank_ip,
			identity_verified_at, bank_verified_at, student_verified_at, approved_at,
			created_at, updated_at
		) VALUES (
			:id, :user_id, :full_name, :phone, :gender, :dob, :address, :state, :region, :photo_ref,
			:nin_number, :bvn_number, :bvn_full_name,
			:matric_number, :department, :level,
			:verification_status, :identity_status, :bank_status, :student_status,
			:store_setup_completed, :store_setup_skipped,
			:risk_score, :has_duplicate_nin, :duplicate_nin_vendor_id,
			:has_duplicate_bvn, :duplicate_bvn_vendor_id,
			:has_name_mismatch, :name_mismatch_details, :is_underage, :calculated_age,
			:admin_notes, :reviewed_by, :reviewed_at,
			:registration_ip, :identity_ip, :bank_ip,
			:identity_verified_at, :bank_verified_at, :student_verified_at, :approved_at,
			:created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, v)
	return errors.Wrap(err, "failed to create vendor identity")
}

func (r *VendorRepository) Update(ctx context.Context, v *domain.VendorIdentity) error {
	query := `
		UPDATE vendor_identities SET
			full_name = :full_name,
			phone = :phone,
			gender = :gender,
			dob = :dob,
			address = :address,
			state = :state,
			region = :region,
			photo_ref = :photo_ref,
			nin_number = :nin_number,
			bvn_number = :bvn_number,
			bvn_full_name = :bvn_full_name,
			matric_number = :matric_number,
			department = :department,
			level = :level,
			verification_status = :verification_status,
			identity_status = :identity_status,
			bank_status = :bank_status,
			student_status = :student_status,
			store_setup_completed = :store_setup_completed,
			store_setup_skipped = :store_setup_skipped,
			risk_score = :risk_score,
			has_duplicate_nin = :has_duplicate_nin,
			duplicate_nin_vendor_id = :duplicate_nin_vendor_id,
			has_duplicate_bvn = :has_duplicate_bvn,
			duplicate_bvn_vendor_id = :duplicate_bvn_vendor_id,
			has_name_mismatch = :has_name_mismatch,
			name_mismatch_details = :name_mismatch_details,
			is_underage = :is_underage,
			calculated_age = :calculated_age,
			admin_notes = :admin_notes,
			reviewed_by = :reviewed_by,
			reviewed_at = :reviewed_at,
			identity_ip = :identity_ip,
			bank_ip = :bank_ip,
			identity_verified_at = :identity_verified_at,
			bank_verified_at = :bank_verified_at,
			student_verified_at = :student_verified_at,
			approved_at = :approved_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, v)
	return errors.Wrap(err, "failed to update vendor identity")
}

func (r *VendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.VendorIdentity, error) {
	vendor := &domain.VendorIdentity{}
	query := `SELECT * FROM vendor_identities WHERE id = $1`
	err := r.db.GetContext(ctx, vendor, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrVendorNotFound
		}
		return nil, errors.Wrap(err, "failed to find vendor by id")
	}
	return vendor, nil
}

func (r *VendorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.VendorIdentity, error) {
	vendor := &domain.VendorIdentity{}
	query := `SELECT * FROM vendor_identities WHERE user_id = $1`
	err := r.db.GetContext(ctx, vendor, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrVendorNotFound
		}
		return nil, errors.Wrap(err, "failed to find vendor by user id")
	}
	return vendor, nil
}

func (r *VendorRepository) FindByNIN(ctx context.Context, nin string, excludeVendorID uuid.UUID) (*domain.VendorIdentity, error) {
	vendor := &domain.VendorIdentity{}
	query := `SELECT * FROM vendor_identities WHERE nin_number = $1 AND id != $2 LIMIT 1`
	err := r.db.GetContext(ctx, vendor, query, nin, excludeVendorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrVendorNotFound
		}
		return nil, errors.Wrap(err, "failed to find vendor by nin")
	}
	return vendor, nil
}

func (r *VendorRepository) FindByBVN(ctx context.Context, bvn string, excludeVendorID uuid.UUID) (*domain.VendorIdentity, error) {
	vendor := &domain.VendorIdentity{}
	query := `SELECT * FROM vendor_identities WHERE bvn_number = $1 AND id != $2 LIMIT 1`
	err := r.db.GetContext(ctx, vendor, query, bvn, excludeVendorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrVendorNotFound
		}
		return nil, errors.Wrap(err, "failed to find vendor by bvn")
	}
	return vendor, nil
}

func (r *VendorRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus, limit, offset int) ([]*domain.VendorIdentity, error) {
	var vendors []*domain.VendorIdentity
	query := `SELECT * FROM vendor_identities WHERE verification_status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	err := r.db.SelectContext(ctx, &vendors, query, status, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vendors by status")
	}
	return vendors, nil
}
