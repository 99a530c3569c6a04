package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a vendor's balances and verified bank details. One per vendor.
// Bank fields are populated from verified bank data and are read-only unless
// bank verification is redone.
//
// Invariants: all four monetary fields are non-negative; LifetimeEarned is
// monotonically non-decreasing; AvailableBalance is reconstructible by
// replaying completed ledger transactions in creation order.
type Wallet struct {
	ID       uuid.UUID `json:"id" db:"id"`
	VendorID uuid.UUID `json:"vendor_id" db:"vendor_id"`

	AccountNumber     string `json:"account_number" db:"account_number"`
	BankName          string `json:"bank_name" db:"bank_name"`
	BankCode          string `json:"bank_code" db:"bank_code"`
	AccountHolderName string `json:"account_holder_name" db:"account_holder_name"`

	// Cached payout-provider recipient handle; set on first payout.
	RecipientCode string `json:"-" db:"recipient_code"`

	AvailableBalance  decimal.Decimal `json:"available_balance" db:"available_balance"`
	PendingBalance    decimal.Decimal `json:"pending_balance" db:"pending_balance"`
	LifetimeEarned    decimal.Decimal `json:"lifetime_earned" db:"lifetime_earned"`
	LifetimeWithdrawn decimal.Decimal `json:"lifetime_withdrawn" db:"lifetime_withdrawn"`

	// Platform commission percentage, 0-100.
	CommissionRate decimal.Decimal `json:"commission_rate" db:"commission_rate"`

	IsVerified bool       `json:"is_verified" db:"is_verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty" db:"verified_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TransactionType categorizes ledger entries.
type TransactionType string

const (
	TransactionCredit     TransactionType = "credit"
	TransactionDebit      TransactionType = "debit"
	TransactionPayout     TransactionType = "payout"
	TransactionRefund     TransactionType = "refund"
	TransactionCommission TransactionType = "commission"
)

// TransactionStatus is the lifecycle state of a ledger entry.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionReversed  TransactionStatus = "reversed"
)

// Transaction is one row of the append-only wallet ledger. BalanceBefore and
// BalanceAfter snapshot the available balance around the entry; for completed
// entries in creation order, BalanceAfter[i] == BalanceBefore[i+1].
type Transaction struct {
	ID       uuid.UUID `json:"id" db:"id"`
	WalletID uuid.UUID `json:"wallet_id" db:"wallet_id"`

	Type   TransactionType   `json:"type" db:"type"`
	Amount decimal.Decimal   `json:"amount" db:"amount"`
	Status TransactionStatus `json:"status" db:"status"`

	OrderID   *uuid.UUID `json:"order_id,omitempty" db:"order_id"`
	Reference string     `json:"reference" db:"reference"`

	Description string `json:"description" db:"description"`

	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`

	Metadata Metadata `json:"metadata" db:"metadata"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}
