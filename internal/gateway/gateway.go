// Package gateway defines the interfaces and normalized result records for
// the third-party providers the core depends on: the identity verification
// (KYC) provider and the payout provider. Provider response shapes, including
// their field-name fallback chains, are collapsed into these records once, at
// the client boundary; nothing above this package sees a raw provider payload.
package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// IdentityRecord is the normalized result of a national-ID lookup.
type IdentityRecord struct {
	FirstName  string
	LastName   string
	MiddleName string
	Phone      string
	Birthdate  time.Time
	Gender     string
	Address    string
	State      string
	Region     string
	PhotoRef   string
}

// FullName joins the verified first and last names.
func (r *IdentityRecord) FullName() string {
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// BankRecord is the normalized result of a bank-verification-number lookup.
type BankRecord struct {
	FirstName     string
	LastName      string
	Phone         string
	Birthdate     time.Time
	AccountName   string
	AccountNumber string
	BankName      string
}

// OTPDispatch describes a one-time code sent to the verified phone channel.
type OTPDispatch struct {
	Reference   string
	MaskedPhone string
	ExpiresAt   time.Time
}

// IdentityGateway wraps the KYC provider. All calls are safe to retry on
// timeout; rate limiting is the caller's responsibility.
type IdentityGateway interface {
	VerifyIdentity(ctx context.Context, idNumber string) (*IdentityRecord, error)
	SendIdentityOTP(ctx context.Context, idNumber string) (*OTPDispatch, error)
	VerifyIdentityOTP(ctx context.Context, reference, code string) error
	VerifyBankNumber(ctx context.Context, bankNumber string) (*BankRecord, error)
	SendBankOTP(ctx context.Context, bankNumber string) (*OTPDispatch, error)
	VerifyBankOTP(ctx context.Context, reference, code string) error
}

// TransferStatus of a payout at the provider.
type TransferStatus string

const (
	TransferPending  TransferStatus = "pending"
	TransferSuccess  TransferStatus = "success"
	TransferFailed   TransferStatus = "failed"
	TransferReversed TransferStatus = "reversed"
)

// TransferResult describes an initiated payout.
type TransferResult struct {
	Status    TransferStatus
	PayoutRef string
}

// AccountDetail is the resolved holder of a bank account.
type AccountDetail struct {
	AccountName string
}

// PayoutGateway wraps the payments provider. Amounts cross this boundary in
// major currency units; conversion to the provider's minor units happens
// inside the implementation.
type PayoutGateway interface {
	VerifyAccount(ctx context.Context, accountNumber, bankCode string) (*AccountDetail, error)
	CreateRecipient(ctx context.Context, accountNumber, bankCode, name string) (string, error)
	InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reason, idempotencyKey string) (*TransferResult, error)
	VerifyTransfer(ctx context.Context, payoutRef string) (TransferStatus, error)
}
