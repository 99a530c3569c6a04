package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is a linear chain with a cancellation escape:
// pending -> confirmed -> processing -> shipped -> delivered, or
// cancelled/refunded.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// PaymentStatus of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Order carries the fields the wallet ledger depends on. The commerce
// subsystem owns the rest of the order lifecycle.
//
// Invariant: CommissionAmount + VendorAmount == TotalAmount exactly.
type Order struct {
	ID       uuid.UUID `json:"id" db:"id"`
	VendorID uuid.UUID `json:"vendor_id" db:"vendor_id"`

	Status OrderStatus `json:"status" db:"status"`

	TotalAmount      decimal.Decimal `json:"total_amount" db:"total_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount" db:"commission_amount"`
	VendorAmount     decimal.Decimal `json:"vendor_amount" db:"vendor_amount"`

	PaymentReference string        `json:"payment_reference" db:"payment_reference"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	PaidAt           *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	DeliveredAt      *time.Time    `json:"delivered_at,omitempty" db:"delivered_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsPaid reports whether payment has cleared for the order.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentPaid && o.PaidAt != nil
}

// RefundStatus of a refund request.
type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
	RefundCompleted RefundStatus = "completed"
)

// RefundRequest is a customer refund reviewed by an admin. Approval drives a
// ledger debit against the vendor wallet.
type RefundRequest struct {
	ID       uuid.UUID `json:"id" db:"id"`
	OrderID  uuid.UUID `json:"order_id" db:"order_id"`
	VendorID uuid.UUID `json:"vendor_id" db:"vendor_id"`

	Reason      string          `json:"reason" db:"reason"`
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Status      RefundStatus    `json:"status" db:"status"`

	AdminComment string     `json:"admin_comment,omitempty" db:"admin_comment"`
	ProcessedBy  *uuid.UUID `json:"processed_by,omitempty" db:"processed_by"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty" db:"processed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
