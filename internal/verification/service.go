// Package verification implements the vendor verification state machine:
// national-ID verification with an OTP round-trip, bank-number verification
// with a second OTP round-trip, store setup, optional student verification,
// and the admin review actions. All transitions for one vendor are serialized
// on a per-vendor lock; every submission and outcome lands in the append-only
// attempt log.
package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kasu/internal/domain"
	"kasu/internal/fraud"
	"kasu/internal/gateway"
	"kasu/internal/notification"
	"kasu/internal/pendingcode"
	"kasu/pkg/config"
	"kasu/pkg/errors"
	"kasu/pkg/locker"
	"kasu/pkg/logger"
	"kasu/pkg/validator"
)

// Repository persists vendor identities. Duplicate lookups exclude the vendor
// being checked so resubmission of one's own number is not a duplicate.
type Repository interface {
	Create(ctx context.Context, v *domain.VendorIdentity) error
	Update(ctx context.Context, v *domain.VendorIdentity) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.VendorIdentity, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.VendorIdentity, error)
	FindByNIN(ctx context.Context, nin string, excludeVendorID uuid.UUID) (*domain.VendorIdentity, error)
	FindByBVN(ctx context.Context, bvn string, excludeVendorID uuid.UUID) (*domain.VendorIdentity, error)
	ListByStatus(ctx context.Context, status domain.VerificationStatus, limit, offset int) ([]*domain.VendorIdentity, error)
}

// AttemptRepository is the append-only audit log of verification attempts.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *domain.VerificationAttempt) error
	CountSince(ctx context.Context, vendorID uuid.UUID, attemptType domain.AttemptType, since time.Time) (int, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*domain.VerificationAttempt, error)
}

// WalletRepository covers the wallet writes owned by verification: creating
// the wallet and stamping it with verified bank details.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error)
	Update(ctx context.Context, wallet *domain.Wallet) error
}

type Service struct {
	repo     Repository
	attempts AttemptRepository
	wallets  WalletRepository
	identity gateway.IdentityGateway
	codes    pendingcode.Store
	notifier notification.Dispatcher
	cfg      config.VerificationConfig

	// Commission rate stamped onto newly created wallets, percent.
	defaultCommission decimal.Decimal

	logger logger.Logger
	locks  *locker.KeyedMutex
	now    func() time.Time
}

func NewService(
	repo Repository,
	attempts AttemptRepository,
	wallets WalletRepository,
	identity gateway.IdentityGateway,
	codes pendingcode.Store,
	notifier notification.Dispatcher,
	cfg config.VerificationConfig,
	defaultCommission decimal.Decimal,
	log logger.Logger,
) *Service {
	return &Service{
		repo:              repo,
		attempts:          attempts,
		wallets:           wallets,
		identity:          identity,
		codes:             codes,
		notifier:          notifier,
		cfg:               cfg,
		defaultCommission: defaultCommission,
		logger:            log,
		locks:             locker.NewKeyedMutex(),
		now:               time.Now,
	}
}

// OTPSentResponse is returned after a number submission succeeds and a
// one-time code is on its way.
type OTPSentResponse struct {
	MaskedPhone string    `json:"masked_phone"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Start creates the vendor identity record for a user, or returns the
// existing one. The registration IP is captured once at creation.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, ip string) (*domain.VendorIdentity, error) {
	existing, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if err != errors.ErrVendorNotFound {
		return nil, err
	}

	now := s.now()
	vendor := &domain.VendorIdentity{
		ID:                 uuid.New(),
		UserID:             userID,
		VerificationStatus: domain.VerificationPending,
		IdentityStatus:     domain.IdentityNotStarted,
		BankStatus:         domain.BankNotStarted,
		StudentStatus:      domain.StudentNotApplicable,
		RegistrationIP:     ip,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, vendor); err != nil {
		return nil, err
	}

	s.logger.Info("vendor verification started", logger.Fields{
		"vendor_id": vendor.ID,
		"user_id":   userID,
	})
	return vendor, nil
}

// GetVendor loads a vendor identity.
func (s *Service) GetVendor(ctx context.Context, vendorID uuid.UUID) (*domain.VendorIdentity, error) {
	return s.repo.FindByID(ctx, vendorID)
}

// GetVendorByUser loads the vendor identity belonging to a user.
func (s *Service) GetVendorByUser(ctx context.Context, userID uuid.UUID) (*domain.VendorIdentity, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// SubmitIdentityNumber verifies an 11-digit national-ID number, fills the
// vendor's personal fields from the registry record, and sends a one-time
// code to the registered phone. Malformed numbers fail before any lookup and
// do not consume a rate-limit attempt.
func (s *Service) SubmitIdentityNumber(ctx context.Context, vendorID uuid.UUID, idNumber, ip string) (*OTPSentResponse, error) {
	if !validator.IsValidNIN(idNumber) {
		return nil, errors.NewValidationError("nin", "must be exactly 11 digits")
	}

	unlock := s.locks.Lock(vendorID.String())
	defer unlock()

	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureActionable(vendor); err != nil {
		return nil, err
	}
	if vendor.IdentityStatus == domain.IdentityVerified {
		return nil, errors.ErrIllegalTransition
	}

	if err := s.checkRateLimit(ctx, vendorID, domain.AttemptIdentity); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, vendorID, domain.AttemptIdentity, domain.AttemptStarted, ip,
		domain.Metadata{"nin": domain.MaskNumber(idNumber)}, nil, "")

	// Duplicate numbers are flagged and refused before any provider call.
	duplicate, err := s.repo.FindByNIN(ctx, idNumber, vendorID)
	if err != nil && err != errors.ErrVendorNotFound {
		return nil, err
	}
	if duplicate != nil {
		vendor.HasDuplicateNIN = true
		vendor.DuplicateNINVendorID = duplicate.ID.String()
		s.applyRisk(vendor)
		if err := s.save(ctx, vendor); err != nil {
			return nil, err
		}
		s.recordAttempt(ctx, vendorID, domain.AttemptIdentity, domain.AttemptFailed, ip,
			nil, nil, "duplicate identity number")
		return nil, errors.ErrDuplicateIdentity
	}

	record, err := s.identity.VerifyIdentity(ctx, idNumber)
	if err != nil {
		s.recordAttempt(ctx, vendorID, domain.AttemptIdentity, domain.AttemptFailed, ip,
			nil, nil, err.Error())
		return nil, err
	}

	s.applyIdentityRecord(vendor, record)
	vendor.NINNumber = idNumber
	vendor.IdentityIP = ip
	vendor.IdentityStatus = domain.IdentitySubmitted
	s.applyRisk(vendor)

	dispatch, err := s.identity.SendIdentityOTP(ctx, idNumber)
	if err != nil {
		s.recordAttempt(ctx, vendorID, domain.AttemptIdentity, domain.AttemptFailed, ip,
			nil, nil, err.Error())
		if saveErr := s.save(ctx, vendor); saveErr != nil {
			return nil, saveErr
		}
		return nil, err
	}

	expiresAt := s.now().Add(s.cfg.OTPTTL)
	if err := s.codes.Put(ctx, &pendingcode.PendingCode{
		VendorID:    vendorID,
		Purpose:     pendingcode.PurposeIdentity,
		Reference:   dispatch.Reference,
		MaskedPhone: dispatch.MaskedPhone,
		CreatedAt:   s.now(),
		ExpiresAt:   expiresAt,
	}); err != nil {
		return nil, err
	}

	vendor.IdentityStatus = domain.IdentityOTPSent
	if err := s.save(ctx, vendor); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, vendorID, domain.AttemptIdentity, domain.AttemptSuccess, ip,
		nil, domain.Metadata{"masked_phone": dispatch.MaskedPhone}, "")

	return &OTPSentResponse{MaskedPhone: dispatch.MaskedPhone, ExpiresAt: expiresAt}, nil
}

// VerifyIdentityOTP consumes the pending identity code. On success the
// identity stage is verified and the risk score recomputed.
func (s *Service) VerifyIdentityOTP(ctx context.Context, vendorID uuid.UUID, code, ip string) (*domain.VendorIdentity, error) {
	if !validator.IsValidOTP(code) {
		return nil, errors.NewValidationError("code", "must be exactly 6 digits")
	}

	unlock := s.locks.Lock(vendorID.String())
	defer unlock()

	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.IdentityStatus != domain.IdentityOTPSent {
		return nil, errors.ErrIllegalTransition
	}
	// Validation calls hit the gateway too, so they consume the same rolling
	// window as submissions of their own type.
	if err := s.checkRateLimit(ctx, vendorID, domain.AttemptOTP); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, vendorID, domain.AttemptOTP, domain.AttemptStarted, ip,
		domain.Metadata{"purpose": string(pendingcode.PurposeIdentity)}, nil, "")

	if err := s.consumeCode(ctx, vendorID, pendingcode.PurposeIdentity, code, s.identity.VerifyIdentityOTP); err != nil {
		s.recordAttempt(ctx, vendorID, domain.AttemptOTP, domain.AttemptFailed, ip,
			domain.Metadata{"purpose": string(pendingcode.PurposeIdentity)}, nil, err.Error())
		return nil, err
	}

	now := s.now()
	vendor.IdentityStatus = domain.IdentityVerified
	vendor.IdentityVerifiedAt = &now
	s.applyRisk(vendor)
	if err := s.save(ctx, vendor); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, vendorID, domain.AttemptOTP, domain.AttemptSuccess, ip,
		domain.Metadata{"purpose": string(pendingcode.PurposeIdentity)}, nil, "")

	s.notifier.Dispatch(ctx, notification.Event{
		Kind:     notification.EventIdentityVerified,
		VendorID: vendorID,
		Title:    "Identity verified",
		Message:  "Your identity has been verified successfully.",
	})
	return vendor, nil
}

// SubmitBankNumber verifies an 11-digit bank-verification number. Identity
// verification is a hard precondition. A name mismatch between the identity
// and bank records is flagged for admin review but does not block the stage.
func (s *Service) SubmitBankNumber(ctx context.Context, vendorID uuid.UUID, bankNumber, ip string) (*OTPSentResponse, error) {
	if !validator.IsValidBVN(bankNumber) {
		return nil, errors.NewValidationError("bvn", "must be exactly 11 digits")
	}

	unlock := s.locks.Lock(vendorID.String())
	defer unlock()

	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureActionable(vendor); err != nil {
		return nil, err
	}
	if vendor.IdentityStatus != domain.IdentityVerified {
		return nil, errors.ErrIllegalTransition
	}
	if vendor.BankStatus == domain.BankVerified {
		return nil, errors.ErrIllegalTransition
	}

	if err := s.checkRateLimit(ctx, vendorID, domain.AttemptBank); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, vendorID, domain.AttemptBank, domain.AttemptStarted, ip,
		domain.Metadata{"bvn": domain.MaskNumber(bankNumber)}, nil, "")

	duplicate, err := s.repo.FindByBVN(ctx, bankNumber, vendorID)
	if err != nil && err != errors.ErrVendorNotFound {
		return nil, err
	}
	if duplicate != nil {
		vendor.HasDuplicateBVN = true
		vendor.DuplicateBVNVendorID = duplicate.ID.String()
		s.applyRisk(vendor)
		if err := s.save(ctx, vendor); err != nil {
			return nil, err
		}
		s.recordAttempt(ctx, vendorID, domain.AttemptBank, domain.AttemptFailed, ip,
			nil, nil, "duplicate bank number")
		return nil, errors.ErrDuplicateIdentity
	}

	record, err := s.identity.VerifyBankNumber(ctx, bankNumber)
	if err != nil {
		s.recordAttempt(ctx, vendorID, domain.AttemptBank, domain.AttemptFailed, ip,
			nil, nil, err.Error())
		return nil, err
	}

	bankName := record.AccountName
	if bankName == "" {
		bankName = record.FirstName + " " + record.LastName
	}
	vendor.BVNNumber = bankNumber
	vendor.BVNFullName = bankName
	vendor.BankIP = ip
	vendor.BankStatus = domain.BankSubmitted

	match := fraud.CheckNameMatch(vendor.FullName, bankName, s.cfg.NameMatchThreshold)
	vendor.HasNameMismatch = !match.Matches
	vendor.NameMismatchDetails = match.Details
	s.applyRisk(vendor)

	if err := s.upsertWallet(ctx, vendor, record); err != nil {
		return nil, err
	}

	dispatch, err := s.identity.SendBankOTP(ctx, bankNumber)
	if err != nil {
		s.recordAttempt(ctx, vendorID, domain.AttemptBank, domain.AttemptFailed, ip,
			nil, nil, err.Error())
		if saveErr := s.save(ctx, vendor); saveErr != nil {
			return nil, saveErr
		}
		return nil, err
	}

	expiresAt := s.now().Add(s.cfg.OTPTTL)
	if err := s.codes.Put(ctx, &pendingcode.PendingCode{
		VendorID:    vendorID,
		Purpose:     pendingcode.PurposeBank,
		Reference:   dispatch.Reference,
		MaskedPhone: dispatch.MaskedPhone,
		CreatedAt:   s.now(),
		ExpiresAt:   expiresAt,
	}); err != nil {
		return nil, err
	}

	vendor.BankStatus = domain.BankOTPSent
	if err := s.save(ctx, vendor); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, vendorID, domain.AttemptBank, domain.AttemptSuccess, ip,
		nil, domain.Metadata{"masked_phone": dispatch.MaskedPhone, "name_match": match.Matches}, "")

	return &OTPSentResponse{MaskedPhone: dispatch.MaskedPhone, ExpiresAt: expiresAt}, nil
}

// VerifyBankOTP consumes the pending bank code. On success the bank stage is
// verified and, with both stages done, the vendor moves to admin review.
func (s *Service) VerifyBankOTP(ctx context.Context, vendorID uuid.UUID, code, ip string) (*domain.VendorIdentity, error) {
	if !validator.IsValidOTP(code) {
		return nil, errors.NewValidationError("code", "must be exactly 6 digits")
	}

	unlock := s.locks.Lock(vendorID.String())
	defer unlock()

	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.BankStatus != domain.BankOTPSent {
		return nil, errors.ErrIllegalTransition
	}
	if err := s.checkRateLimit(ctx, vendorID, domain.AttemptOTP); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, vendorID, domain.AttemptOTP, domain.AttemptStarted, ip,
		domain.Metadata{"purpose": string(pendingcode.PurposeBank)}, nil, "")

	if err := s.consumeCode(ctx, vendorID, pendingcode.PurposeBank, code, s.identity.VerifyBankOTP); err != nil {
		s.recordAttempt(ctx, vendorID, domain.AttemptOTP, domain.AttemptFailed, ip,
			domain.Metadata{"purpose": string(pendingcode.PurposeBank)}, nil, err.Error())
		return nil, err
	}

	now := s.now()
	vendor.BankStatus = domain.BankVerified
	vendor.BankVerifiedAt = &now
	s.applyRisk(vendor)
	if vendor.CanSell() && vendor.VerificationStatus == domain.VerificationPending {
		vendor.VerificationStatus = domain.VerificationReview
	}
	if err := s.save(ctx, vendor); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, vendorID, domain.AttemptOTP, domain.AttemptSuccess, ip,
		domain.Metadata{"purpose": string(pendingcode.PurposeBank)}, nil, "")

	s.notifier.Dispatch(ctx, notification.Event{
		Kind:     notification.EventBankVerified,
		VendorID: vendorID,
		Title:    "Bank details verified",
		Message:  "Your bank details have been verified. Your account is now under review.",
	})
	return vendor, nil
}

// CompleteStoreSetup marks the store configuration step done.
func (s *Service) CompleteStoreSetup(ctx context.Context, vendorID uuid.UUID) (*domain.VendorIdentity, error) {
	return s.updateVendor(ctx, vendorID, func(vendor *domain.VendorIdentity) error {
		vendor.StoreSetupCompleted = true
		vendor.StoreSetupSkipped = false
		return nil
	})
}

// SkipStoreSetup records that the vendor chose to configure the store later.
// A previously completed setup cannot be un-completed by skipping.
func (s *Service) SkipStoreSetup(ctx context.Context, vendorID uuid.UUID) (*domain.VendorIdentity, error) {
	return s.updateVendor(ctx, vendorID, func(vendor *domain.VendorIdentity) error {
		if !vendor.StoreSetupCompleted {
			vendor.StoreSetupSkipped = true
		}
		return nil
	})
}

// StudentDetails is the optional student verification submission.
type StudentDetails struct {
	MatricNumber string `json:"matric_number" validate:"required"`
	Department   string `json:"department" validate:"required"`
	Level        string `json:"level" validate:"required"`
}

// SubmitStudentVerification files student details for admin review. The
// student stage never blocks selling.
func (s *Service) SubmitStudentVerification(ctx context.Context, vendorID uuid.UUID, details StudentDetails, ip string) (*domain.VendorIdentity, error) {
	vendor, err := s.updateVendor(ctx, vendorID, func(vendor *domain.VendorIdentity) error {
		if vendor.StudentStatus == domain.StudentVerified {
			return errors.ErrIllegalTransition
		}
		vendor.MatricNumber = details.MatricNumber
		vendor.Department = details.Department
		vendor.Level = details.Level
		vendor.StudentStatus = domain.StudentPending
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, vendorID, domain.AttemptStudent, domain.AttemptStarted, ip,
		domain.Metadata{"matric_number": details.MatricNumber}, nil, "")
	return vendor, nil
}

// ReviewStudentVerification is the admin decision on a pending student
// submission.
func (s *Service) ReviewStudentVerification(ctx context.Context, vendorID, adminID uuid.UUID, approve bool, note string) (*domain.VendorIdentity, error) {
	return s.updateVendor(ctx, vendorID, func(vendor *domain.VendorIdentity) error {
		if vendor.StudentStatus != domain.StudentPending {
			return errors.ErrIllegalTransition
		}
		now := s.now()
		if approve {
			vendor.StudentStatus = domain.StudentVerified
			vendor.StudentVerifiedAt = &now
		} else {
			vendor.StudentStatus = domain.StudentRejected
		}
		if note != "" {
			vendor.AdminNotes = note
		}
		vendor.ReviewedBy = &adminID
		vendor.ReviewedAt = &now
		return nil
	})
}

// Approve grants the vendor approved status. A vendor flagged high-risk or
// underage is refused unless the admin passes an explicit override; the
// override is logged, not silent.
func (s *Service) Approve(ctx context.Context, vendorID, adminID uuid.UUID, note string, override bool) (*domain.VendorIdentity, error) {
	vendor, err := s.updateVendor(ctx, vendorID, func(vendor *domain.VendorIdentity) error {
		switch vendor.VerificationStatus {
		case domain.VerificationPending, domain.VerificationReview:
		default:
			return errors.ErrIllegalTransition
		}
		if !vendor.CanSell() {
			return errors.ErrIllegalTransition
		}

		highRisk := vendor.RiskScore >= s.cfg.RiskApprovalLimit || vendor.IsUnderage
		if highRisk && !override {
			return errors.ErrHighRiskApproval
		}
		if highRisk {
			s.logger.Warn("high-risk vendor approved with override", logger.Fields{
				"vendor_id":  vendorID,
				"admin_id":   adminID,
				"risk_score": vendor.RiskScore,
				"underage":   vendor.IsUnderage,
			})
		}

		now := s.now()
		vendor.VerificationStatus = domain.VerificationApproved
		vendor.ApprovedAt = &now
		vendor.ReviewedBy = &adminID
		vendor.ReviewedAt = &now
		if note != "" {
			vendor.AdminNotes = note
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, notification.Event{
		Kind:     notification.EventVendorApproved,
		VendorID: vendorID,
		Title:    "Account approved",
		Message:  "Your vendor account has been approved.",
	})
	return vendor, nil
}

// Reject marks the vendor rejected with the admin's reason.
func (s *Service) Reject(ctx context.Context, vendorID, adminID uuid.UUID, reason string) (*domain.VendorIdentity, error) {
	vendor, err := s.updateVendor(ctx, vendorID, func(vendor *domain.VendorIdentity) error {
		if vendor.VerificationStatus == domain.VerificationRejected {
			return errors.ErrIllegalTransition
		}
		now := s.now()
		vendor.VerificationStatus = domain.VerificationRejected
		vendor.AdminNotes = reason
		vendor.ReviewedBy = &adminID
		vendor.ReviewedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, notification.Event{
		Kind:     notification.EventVendorRejected,
		VendorID: vendorID,
		Title:    "Account rejected",
		Message:  "Your vendor verification was rejected. Contact support for details.",
	})
	return vendor, nil
}

// Suspend takes an approved vendor off the marketplace. The record is kept;
// nothing is deleted.
func (s *Service) Suspend(ctx context.Context, vendorID, adminID uuid.UUID, reason string) (*domain.VendorIdentity, error) {
	vendor, err := s.updateVendor(ctx, vendorID, func(vendor *domain.VendorIdentity) error {
		if vendor.VerificationStatus == domain.VerificationSuspended {
			return errors.ErrIllegalTransition
		}
		now := s.now()
		vendor.VerificationStatus = domain.VerificationSuspended
		vendor.AdminNotes = reason
		vendor.ReviewedBy = &adminID
		vendor.ReviewedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, notification.Event{
		Kind:     notification.EventVendorSuspended,
		VendorID: vendorID,
		Title:    "Account suspended",
		Message:  "Your vendor account has been suspended.",
	})
	return vendor, nil
}

// ListForReview pages vendors awaiting admin review.
func (s *Service) ListForReview(ctx context.Context, limit, offset int) ([]*domain.VendorIdentity, error) {
	return s.repo.ListByStatus(ctx, domain.VerificationReview, limit, offset)
}

// ListAttempts pages a vendor's audit log, newest first.
func (s *Service) ListAttempts(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*domain.VerificationAttempt, error) {
	return s.attempts.ListByVendor(ctx, vendorID, limit, offset)
}

// Progress summarizes how far a vendor is through onboarding.
type Progress struct {
	Percent     int    `json:"percent"`
	CurrentStep string `json:"current_step"`
	CanSell     bool   `json:"can_sell"`
}

// The two verification stages carry double weight; store setup and student
// verification are single-weight optional steps.
const (
	progressTotalWeight    = 6
	progressIdentityWeight = 2
	progressBankWeight     = 2
)

// GetProgress computes the onboarding completion percentage and the next step.
func (s *Service) GetProgress(vendor *domain.VendorIdentity) Progress {
	done := 0
	if vendor.IdentityStatus == domain.IdentityVerified {
		done += progressIdentityWeight
	}
	if vendor.BankStatus == domain.BankVerified {
		done += progressBankWeight
	}
	if vendor.StoreSetupCompleted || vendor.StoreSetupSkipped {
		done++
	}
	if vendor.StudentStatus == domain.StudentVerified || vendor.StudentStatus == domain.StudentRejected {
		done++
	}

	return Progress{
		Percent:     done * 100 / progressTotalWeight,
		CurrentStep: currentStep(vendor),
		CanSell:     vendor.CanSell(),
	}
}

func currentStep(vendor *domain.VendorIdentity) string {
	switch {
	case vendor.IdentityStatus != domain.IdentityVerified:
		return "identity_verification"
	case vendor.BankStatus != domain.BankVerified:
		return "bank_verification"
	case !vendor.StoreSetupCompleted && !vendor.StoreSetupSkipped:
		return "store_setup"
	case vendor.VerificationStatus == domain.VerificationReview:
		return "admin_review"
	default:
		return "complete"
	}
}

func (s *Service) updateVendor(ctx context.Context, vendorID uuid.UUID, apply func(*domain.VendorIdentity) error) (*domain.VendorIdentity, error) {
	unlock := s.locks.Lock(vendorID.String())
	defer unlock()

	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if err := apply(vendor); err != nil {
		return nil, err
	}
	if err := s.save(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *Service) save(ctx context.Context, vendor *domain.VendorIdentity) error {
	vendor.UpdatedAt = s.now()
	return s.repo.Update(ctx, vendor)
}

// ensureActionable refuses verification actions on terminally-reviewed
// vendors.
func (s *Service) ensureActionable(vendor *domain.VendorIdentity) error {
	switch vendor.VerificationStatus {
	case domain.VerificationRejected, domain.VerificationSuspended:
		return errors.ErrIllegalTransition
	}
	return nil
}

// checkRateLimit enforces the rolling attempt window per vendor and stage.
func (s *Service) checkRateLimit(ctx context.Context, vendorID uuid.UUID, attemptType domain.AttemptType) error {
	since := s.now().Add(-s.cfg.AttemptWindow)
	count, err := s.attempts.CountSince(ctx, vendorID, attemptType, since)
	if err != nil {
		return err
	}
	if count >= s.cfg.MaxAttempts {
		s.logger.Warn("verification rate limit hit", logger.Fields{
			"vendor_id":    vendorID,
			"attempt_type": string(attemptType),
			"window":       s.cfg.AttemptWindow.String(),
		})
		return errors.ErrRateLimited
	}
	return nil
}

// recordAttempt appends to the audit log. Audit failures are logged and
// swallowed so they never mask the operation's own outcome.
func (s *Service) recordAttempt(ctx context.Context, vendorID uuid.UUID, attemptType domain.AttemptType, outcome domain.AttemptOutcome, ip string, request, response domain.Metadata, errMsg string) {
	attempt := &domain.VerificationAttempt{
		ID:           uuid.New(),
		VendorID:     vendorID,
		AttemptType:  attemptType,
		Outcome:      outcome,
		RequestData:  request,
		ResponseData: response,
		ErrorMessage: errMsg,
		IPAddress:    ip,
		CreatedAt:    s.now(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.Error("failed to record verification attempt", logger.Fields{
			"vendor_id": vendorID,
			"error":     err.Error(),
		})
	}
}

// consumeCode validates a one-time code against its stored reference and
// removes it. A consumed or expired reference cannot be replayed. Callers see
// one error for missing, expired and mismatched codes alike, so a probe
// cannot distinguish "no code pending" from "wrong code".
func (s *Service) consumeCode(ctx context.Context, vendorID uuid.UUID, purpose pendingcode.Purpose, code string, validate func(ctx context.Context, reference, otp string) error) error {
	pending, err := s.codes.Get(ctx, vendorID, purpose)
	if err != nil {
		if err == errors.ErrCodeNotFound {
			return errors.ErrInvalidOrExpiredCode
		}
		return err
	}
	if err := validate(ctx, pending.Reference, code); err != nil {
		return err
	}
	return s.codes.Delete(ctx, vendorID, purpose)
}

// applyIdentityRecord fills the vendor's personal fields from the registry
// record and derives the age flags.
func (s *Service) applyIdentityRecord(vendor *domain.VendorIdentity, record *gateway.IdentityRecord) {
	vendor.FullName = record.FullName()
	vendor.Phone = record.Phone
	vendor.Gender = normalizeGender(record.Gender)
	vendor.Address = record.Address
	vendor.State = record.State
	vendor.Region = record.Region
	vendor.PhotoRef = record.PhotoRef

	if !record.Birthdate.IsZero() {
		dob := record.Birthdate
		vendor.DOB = &dob
		age := fraud.AgeAt(dob, s.now())
		vendor.CalculatedAge = &age
		vendor.IsUnderage = fraud.IsUnderage(age, s.cfg.MinimumSellerAge)
	}
}

func normalizeGender(g string) domain.Gender {
	switch g {
	case "m", "M", "male", "Male", "MALE":
		return domain.GenderMale
	case "f", "F", "female", "Female", "FEMALE":
		return domain.GenderFemale
	case "":
		return ""
	default:
		return domain.GenderOther
	}
}

func (s *Service) applyRisk(vendor *domain.VendorIdentity) {
	vendor.RiskScore = fraud.RiskScore(vendor)
}

// upsertWallet creates or updates the vendor wallet with verified bank
// details. The holder name comes from the bank record, never from user input.
func (s *Service) upsertWallet(ctx context.Context, vendor *domain.VendorIdentity, record *gateway.BankRecord) error {
	now := s.now()

	wallet, err := s.wallets.FindByVendorID(ctx, vendor.ID)
	if err == errors.ErrWalletNotFound {
		wallet = &domain.Wallet{
			ID:                uuid.New(),
			VendorID:          vendor.ID,
			AvailableBalance:  decimal.Zero,
			PendingBalance:    decimal.Zero,
			LifetimeEarned:    decimal.Zero,
			LifetimeWithdrawn: decimal.Zero,
			CommissionRate:    s.defaultCommission,
			CreatedAt:         now,
		}
		s.applyBankDetails(wallet, record, now)
		if err := s.wallets.Create(ctx, wallet); err != nil {
			return errors.Wrap(err, "failed to create wallet")
		}
		s.logger.Info("wallet created for vendor", logger.Fields{
			"vendor_id": vendor.ID,
			"wallet_id": wallet.ID,
		})
		return nil
	}
	if err != nil {
		return err
	}

	s.applyBankDetails(wallet, record, now)
	return s.wallets.Update(ctx, wallet)
}

func (s *Service) applyBankDetails(wallet *domain.Wallet, record *gateway.BankRecord, now time.Time) {
	holder := record.AccountName
	if holder == "" {
		holder = fmt.Sprintf("%s %s", record.FirstName, record.LastName)
	}
	wallet.AccountHolderName = holder
	if record.AccountNumber != "" {
		wallet.AccountNumber = record.AccountNumber
	}
	if record.BankName != "" {
		wallet.BankName = record.BankName
	}
	wallet.IsVerified = true
	wallet.VerifiedAt = &now
	wallet.UpdatedAt = now
}
