// Package domain holds the shared entities of the marketplace core:
// vendor identities, wallets, ledger transactions, orders and refunds.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Metadata is a JSON-compatible map persisted as JSONB.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(Metadata{})
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("metadata: unsupported scan type")
	}
	return json.Unmarshal(b, m)
}

// IdentityStatus tracks progress of the national-ID verification stage.
type IdentityStatus string

const (
	IdentityNotStarted IdentityStatus = "not_started"
	IdentitySubmitted  IdentityStatus = "identity_submitted"
	IdentityOTPSent    IdentityStatus = "identity_otp_sent"
	IdentityVerified   IdentityStatus = "identity_verified"
	IdentityFailed     IdentityStatus = "failed"
)

// BankStatus tracks progress of the bank-number verification stage.
type BankStatus string

const (
	BankNotStarted BankStatus = "not_started"
	BankSubmitted  BankStatus = "bank_submitted"
	BankOTPSent    BankStatus = "bank_otp_sent"
	BankVerified   BankStatus = "bank_verified"
	BankFailed     BankStatus = "failed"
)

// StudentStatus tracks the optional, non-blocking student verification.
type StudentStatus string

const (
	StudentNotApplicable StudentStatus = "not_applicable"
	StudentPending       StudentStatus = "pending"
	StudentVerified      StudentStatus = "verified"
	StudentRejected      StudentStatus = "rejected"
)

// VerificationStatus is the vendor's overall administrative state.
type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "pending"
	VerificationReview    VerificationStatus = "pending_admin_review"
	VerificationApproved  VerificationStatus = "approved"
	VerificationRejected  VerificationStatus = "rejected"
	VerificationSuspended VerificationStatus = "suspended"
)

// Gender as reported by the identity provider.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// VendorIdentity is the aggregate root for vendor verification. Personal
// fields are populated only from successful identity verification and are
// never user-editable. Records are soft-stated (suspended/rejected), never
// hard-deleted.
type VendorIdentity struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`

	// Personal information, auto-filled from identity verification.
	FullName string     `json:"full_name" db:"full_name"`
	Phone    string     `json:"phone" db:"phone"`
	Gender   Gender     `json:"gender" db:"gender"`
	DOB      *time.Time `json:"dob,omitempty" db:"dob"`
	Address  string     `json:"address" db:"address"`
	State    string     `json:"state" db:"state"`
	Region   string     `json:"region" db:"region"`
	PhotoRef string     `json:"-" db:"photo_ref"`

	// Unique across all vendors; enforced by partial unique indexes.
	NINNumber string `json:"-" db:"nin_number"`
	BVNNumber string `json:"-" db:"bvn_number"`

	// Name returned by the bank-number verification, kept for mismatch review.
	BVNFullName string `json:"-" db:"bvn_full_name"`

	// Optional student details.
	MatricNumber string `json:"matric_number" db:"matric_number"`
	Department   string `json:"department" db:"department"`
	Level        string `json:"level" db:"level"`

	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	IdentityStatus     IdentityStatus     `json:"identity_status" db:"identity_status"`
	BankStatus         BankStatus         `json:"bank_status" db:"bank_status"`
	StudentStatus      StudentStatus      `json:"student_status" db:"student_status"`

	StoreSetupCompleted bool `json:"store_setup_completed" db:"store_setup_completed"`
	StoreSetupSkipped   bool `json:"store_setup_skipped" db:"store_setup_skipped"`

	// Risk fields, recomputed by the fraud engine on every transition.
	RiskScore            int    `json:"risk_score" db:"risk_score"`
	HasDuplicateNIN      bool   `json:"has_duplicate_nin" db:"has_duplicate_nin"`
	DuplicateNINVendorID string `json:"duplicate_nin_vendor_id,omitempty" db:"duplicate_nin_vendor_id"`
	HasDuplicateBVN      bool   `json:"has_duplicate_bvn" db:"has_duplicate_bvn"`
	DuplicateBVNVendorID string `json:"duplicate_bvn_vendor_id,omitempty" db:"duplicate_bvn_vendor_id"`
	HasNameMismatch      bool   `json:"has_name_mismatch" db:"has_name_mismatch"`
	NameMismatchDetails  string `json:"name_mismatch_details,omitempty" db:"name_mismatch_details"`
	IsUnderage           bool   `json:"is_underage" db:"is_underage"`
	CalculatedAge        *int   `json:"calculated_age,omitempty" db:"calculated_age"`

	// Admin-only review fields.
	AdminNotes string     `json:"-" db:"admin_notes"`
	ReviewedBy *uuid.UUID `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`

	// Audit IPs captured at each verification call.
	RegistrationIP string `json:"-" db:"registration_ip"`
	IdentityIP     string `json:"-" db:"identity_ip"`
	BankIP         string `json:"-" db:"bank_ip"`

	IdentityVerifiedAt *time.Time `json:"identity_verified_at,omitempty" db:"identity_verified_at"`
	BankVerifiedAt     *time.Time `json:"bank_verified_at,omitempty" db:"bank_verified_at"`
	StudentVerifiedAt  *time.Time `json:"student_verified_at,omitempty" db:"student_verified_at"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty" db:"approved_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CanSell reports whether the vendor may list products: identity and bank
// verified, independent of admin approval.
func (v *VendorIdentity) CanSell() bool {
	return v.IdentityStatus == IdentityVerified && v.BankStatus == BankVerified
}

// IsApproved reports whether an admin has approved the vendor.
func (v *VendorIdentity) IsApproved() bool {
	return v.VerificationStatus == VerificationApproved
}

// AttemptType categorizes verification attempts in the audit log.
type AttemptType string

const (
	AttemptIdentity AttemptType = "identity"
	AttemptBank     AttemptType = "bank"
	AttemptStudent  AttemptType = "student"
	AttemptOTP      AttemptType = "otp"
)

// AttemptOutcome is the terminal state of one attempt record.
type AttemptOutcome string

const (
	AttemptStarted AttemptOutcome = "started"
	AttemptSuccess AttemptOutcome = "success"
	AttemptFailed  AttemptOutcome = "failed"
	AttemptExpired AttemptOutcome = "expired"
)

// VerificationAttempt is one row of the append-only compliance audit log.
// Payloads are sanitized before storage; raw ID numbers are never persisted
// here. Rows are never mutated or deleted.
type VerificationAttempt struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	VendorID     uuid.UUID      `json:"vendor_id" db:"vendor_id"`
	AttemptType  AttemptType    `json:"attempt_type" db:"attempt_type"`
	Outcome      AttemptOutcome `json:"outcome" db:"outcome"`
	RequestData  Metadata       `json:"request_data" db:"request_data"`
	ResponseData Metadata       `json:"response_data" db:"response_data"`
	ErrorMessage string         `json:"error_message,omitempty" db:"error_message"`
	IPAddress    string         `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// MaskNumber hides all but the last four characters of an identifier for
// audit payloads and logs.
func MaskNumber(s string) string {
	if len(s) <= 4 {
		return s
	}
	masked := make([]byte, len(s))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(s)-4:], s[len(s)-4:])
	return string(masked)
}
