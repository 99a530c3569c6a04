// Package wallet implements the vendor wallet ledger: commission splitting,
// crediting on payment, releasing funds on delivery, refund debits and
// payouts. Every balance change appends a ledger transaction with balance
// snapshots, and every order- or refund-driven operation is guarded so a
// replayed trigger cannot double-move money. Operations on one wallet are
// serialized on a per-wallet lock.
package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kasu/internal/domain"
	"kasu/internal/gateway"
	"kasu/internal/notification"
	"kasu/pkg/errors"
	"kasu/pkg/locker"
	"kasu/pkg/logger"
)

// Repository persists wallets.
type Repository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	Update(ctx context.Context, wallet *domain.Wallet) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error)
}

// TransactionRepository is the append-only ledger. Rows are created once and
// only their status and snapshots may be finalized; completed rows are never
// rewritten.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByOrderAndType(ctx context.Context, orderID uuid.UUID, txType domain.TransactionType) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*domain.Transaction, error)
	CountByWallet(ctx context.Context, walletID uuid.UUID) (int, error)
}

// OrderRepository covers the order reads and the commission stamp-back the
// ledger needs.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
}

// RefundRepository persists refund requests.
type RefundRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.RefundRequest, error)
	Update(ctx context.Context, refund *domain.RefundRequest) error
	ListByStatus(ctx context.Context, status domain.RefundStatus, limit, offset int) ([]*domain.RefundRequest, error)
}

type Service struct {
	repo     Repository
	txs      TransactionRepository
	orders   OrderRepository
	refunds  RefundRepository
	payouts  gateway.PayoutGateway
	notifier notification.Dispatcher

	minimumPayout decimal.Decimal

	logger logger.Logger
	locks  *locker.KeyedMutex
	now    func() time.Time
}

func NewService(
	repo Repository,
	txs TransactionRepository,
	orders OrderRepository,
	refunds RefundRepository,
	payouts gateway.PayoutGateway,
	notifier notification.Dispatcher,
	minimumPayout decimal.Decimal,
	log logger.Logger,
) *Service {
	return &Service{
		repo:          repo,
		txs:           txs,
		orders:        orders,
		refunds:       refunds,
		payouts:       payouts,
		notifier:      notifier,
		minimumPayout: minimumPayout,
		logger:        log,
		locks:         locker.NewKeyedMutex(),
		now:           time.Now,
	}
}

var hundred = decimal.NewFromInt(100)

// CalculateCommission splits a total between platform and vendor. The
// commission is rounded half-up to 2 decimal places and the vendor share is
// the exact remainder, so the two always sum to the total.
func CalculateCommission(total, ratePercent decimal.Decimal) (commission, vendorShare decimal.Decimal) {
	commission = total.Mul(ratePercent).Div(hundred).Round(2)
	vendorShare = total.Sub(commission)
	return commission, vendorShare
}

// GetWallet loads a wallet by vendor.
func (s *Service) GetWallet(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error) {
	return s.repo.FindByVendorID(ctx, vendorID)
}

// BalanceResponse is the wallet balance summary.
type BalanceResponse struct {
	WalletID          uuid.UUID       `json:"wallet_id"`
	AvailableBalance  decimal.Decimal `json:"available_balance"`
	PendingBalance    decimal.Decimal `json:"pending_balance"`
	LifetimeEarned    decimal.Decimal `json:"lifetime_earned"`
	LifetimeWithdrawn decimal.Decimal `json:"lifetime_withdrawn"`
}

// GetBalance returns the balance summary for a vendor's wallet.
func (s *Service) GetBalance(ctx context.Context, vendorID uuid.UUID) (*BalanceResponse, error) {
	wallet, err := s.repo.FindByVendorID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		WalletID:          wallet.ID,
		AvailableBalance:  wallet.AvailableBalance,
		PendingBalance:    wallet.PendingBalance,
		LifetimeEarned:    wallet.LifetimeEarned,
		LifetimeWithdrawn: wallet.LifetimeWithdrawn,
	}, nil
}

// ListTransactions pages a wallet's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*domain.Transaction, int, error) {
	wallet, err := s.repo.FindByVendorID(ctx, vendorID)
	if err != nil {
		return nil, 0, err
	}
	txs, err := s.txs.ListByWallet(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.txs.CountByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// ListRefunds pages refund requests in a given state, for the admin queue.
func (s *Service) ListRefunds(ctx context.Context, status domain.RefundStatus, limit, offset int) ([]*domain.RefundRequest, error) {
	return s.refunds.ListByStatus(ctx, status, limit, offset)
}

// CreditOnPayment credits the vendor's share of a paid order into the pending
// balance. The split is computed from the wallet's commission rate and
// stamped back onto the order. Replays for the same order are refused.
func (s *Service) CreditOnPayment(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPaid() {
		return nil, errors.ErrOrderNotPaid
	}

	wallet, err := s.repo.FindByVendorID(ctx, order.VendorID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(wallet.ID.String())
	defer unlock()

	existing, err := s.txs.FindByOrderAndType(ctx, orderID, domain.TransactionCredit)
	if err != nil && err != errors.ErrTransactionNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, errors.ErrAlreadyCredited
	}

	commission, vendorShare := CalculateCommission(order.TotalAmount, wallet.CommissionRate)
	order.CommissionAmount = commission
	order.VendorAmount = vendorShare
	order.UpdatedAt = s.now()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	// Vendor share waits in pending until delivery; the available balance is
	// untouched, so both snapshots equal the current available balance.
	tx := &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          domain.TransactionCredit,
		Amount:        vendorShare,
		Status:        domain.TransactionPending,
		OrderID:       &order.ID,
		Reference:     "credit_" + order.ID.String(),
		Description:   "Order payment received",
		BalanceBefore: wallet.AvailableBalance,
		BalanceAfter:  wallet.AvailableBalance,
		Metadata: domain.Metadata{
			"order_total":       order.TotalAmount.StringFixed(2),
			"commission_amount": commission.StringFixed(2),
			"commission_rate":   wallet.CommissionRate.StringFixed(2),
		},
		CreatedAt: s.now(),
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, err
	}

	// Lifetime earnings count only on release; a cancelled or refunded order
	// never leaves pending.
	wallet.PendingBalance = wallet.PendingBalance.Add(vendorShare)
	if err := s.saveWallet(ctx, wallet); err != nil {
		return nil, err
	}

	s.logger.Info("order credited to pending balance", logger.Fields{
		"order_id":     order.ID,
		"wallet_id":    wallet.ID,
		"vendor_share": vendorShare.StringFixed(2),
		"commission":   commission.StringFixed(2),
	})
	s.notifier.Dispatch(ctx, notification.Event{
		Kind:     notification.EventOrderCredited,
		VendorID: wallet.VendorID,
		Title:    "Payment received",
		Message:  "An order payment has been credited to your pending balance.",
		Data:     map[string]interface{}{"amount": vendorShare.StringFixed(2)},
	})
	return tx, nil
}

// ReleaseOnDelivery moves an order's pending credit into the available
// balance once the order is delivered. The pending ledger row is completed in
// place; a second release for the same order is refused.
func (s *Service) ReleaseOnDelivery(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderDelivered || order.DeliveredAt == nil {
		return nil, errors.ErrOrderNotDelivered
	}

	wallet, err := s.repo.FindByVendorID(ctx, order.VendorID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(wallet.ID.String())
	defer unlock()

	tx, err := s.txs.FindByOrderAndType(ctx, orderID, domain.TransactionCredit)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.TransactionPending {
		return nil, errors.ErrAlreadyReleased
	}

	now := s.now()
	tx.Status = domain.TransactionCompleted
	tx.BalanceBefore = wallet.AvailableBalance
	tx.BalanceAfter = wallet.AvailableBalance.Add(tx.Amount)
	tx.CompletedAt = &now
	if err := s.txs.Update(ctx, tx); err != nil {
		return nil, err
	}

	wallet.PendingBalance = wallet.PendingBalance.Sub(tx.Amount)
	wallet.AvailableBalance = wallet.AvailableBalance.Add(tx.Amount)
	wallet.LifetimeEarned = wallet.LifetimeEarned.Add(tx.Amount)
	if err := s.saveWallet(ctx, wallet); err != nil {
		return nil, err
	}

	s.logger.Info("order funds released", logger.Fields{
		"order_id":  order.ID,
		"wallet_id": wallet.ID,
		"amount":    tx.Amount.StringFixed(2),
	})
	s.notifier.Dispatch(ctx, notification.Event{
		Kind:     notification.EventFundsReleased,
		VendorID: wallet.VendorID,
		Title:    "Funds released",
		Message:  "Funds from a delivered order are now available for withdrawal.",
		Data:     map[string]interface{}{"amount": tx.Amount.StringFixed(2)},
	})
	return tx, nil
}

// ProcessRefund is the admin decision on a pending refund request. Approval
// debits the vendor's available balance; a wallet is never driven negative.
// An insufficient balance leaves a failed ledger row for reconciliation and
// the request stays pending.
func (s *Service) ProcessRefund(ctx context.Context, refundID, adminID uuid.UUID, approve bool, comment string) (*domain.RefundRequest, error) {
	refund, err := s.refunds.FindByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if refund.Status != domain.RefundPending {
		return nil, errors.ErrAlreadyRefunded
	}

	now := s.now()
	if !approve {
		refund.Status = domain.RefundRejected
		refund.AdminComment = comment
		refund.ProcessedBy = &adminID
		refund.ProcessedAt = &now
		refund.UpdatedAt = now
		if err := s.refunds.Update(ctx, refund); err != nil {
			return nil, err
		}
		return refund, nil
	}

	wallet, err := s.repo.FindByVendorID(ctx, refund.VendorID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(wallet.ID.String())
	defer unlock()

	if wallet.AvailableBalance.LessThan(refund.Amount) {
		failed := &domain.Transaction{
			ID:            uuid.New(),
			WalletID:      wallet.ID,
			Type:          domain.TransactionRefund,
			Amount:        refund.Amount,
			Status:        domain.TransactionFailed,
			OrderID:       &refund.OrderID,
			Reference:     "refund_" + refund.ID.String(),
			Description:   "Refund debit failed: insufficient balance",
			BalanceBefore: wallet.AvailableBalance,
			BalanceAfter:  wallet.AvailableBalance,
			Metadata:      domain.Metadata{"refund_id": refund.ID.String()},
			CreatedAt:     now,
		}
		if err := s.txs.Create(ctx, failed); err != nil {
			return nil, err
		}
		s.logger.Warn("refund debit exceeds available balance", logger.Fields{
			"refund_id": refund.ID,
			"wallet_id": wallet.ID,
			"amount":    refund.Amount.StringFixed(2),
			"available": wallet.AvailableBalance.StringFixed(2),
		})
		return nil, errors.ErrInsufficientBalance
	}

	tx := &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          domain.TransactionRefund,
		Amount:        refund.Amount,
		Status:        domain.TransactionCompleted,
		OrderID:       &refund.OrderID,
		Reference:     "refund_" + refund.ID.String(),
		Description:   "Refund approved",
		BalanceBefore: wallet.AvailableBalance,
		BalanceAfter:  wallet.AvailableBalance.Sub(refund.Amount),
		Metadata:      domain.Metadata{"refund_id": refund.ID.String(), "admin_id": adminID.String()},
		CreatedAt:     now,
		CompletedAt:   &now,
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, err
	}

	wallet.AvailableBalance = wallet.AvailableBalance.Sub(refund.Amount)
	if err := s.saveWallet(ctx, wallet); err != nil {
		return nil, err
	}

	refund.Status = domain.RefundCompleted
	refund.AdminComment = comment
	refund.ProcessedBy = &adminID
	refund.ProcessedAt = &now
	refund.UpdatedAt = now
	if err := s.refunds.Update(ctx, refund); err != nil {
		return nil, err
	}

	s.logger.Info("refund processed", logger.Fields{
		"refund_id": refund.ID,
		"wallet_id": wallet.ID,
		"amount":    refund.Amount.StringFixed(2),
	})
	s.notifier.Dispatch(ctx, notification.Event{
		Kind:     notification.EventRefundProcessed,
		VendorID: wallet.VendorID,
		Title:    "Refund processed",
		Message:  "A refund has been deducted from your available balance.",
		Data:     map[string]interface{}{"amount": refund.Amount.StringFixed(2)},
	})
	return refund, nil
}

// InitiatePayout withdraws from the available balance to the vendor's
// verified bank account. The ledger row is created before the provider call;
// a provider failure marks it failed and leaves balances untouched.
func (s *Service) InitiatePayout(ctx context.Context, vendorID uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error) {
	wallet, err := s.repo.FindByVendorID(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(wallet.ID.String())
	defer unlock()

	if !wallet.IsVerified {
		return nil, errors.ErrWalletNotVerified
	}
	if amount.LessThan(s.minimumPayout) {
		return nil, errors.ErrBelowPayoutMinimum
	}
	if wallet.AvailableBalance.LessThan(amount) {
		return nil, errors.ErrInsufficientBalance
	}

	if wallet.RecipientCode == "" {
		code, err := s.payouts.CreateRecipient(ctx, wallet.AccountNumber, wallet.BankCode, wallet.AccountHolderName)
		if err != nil {
			return nil, err
		}
		wallet.RecipientCode = code
		if err := s.saveWallet(ctx, wallet); err != nil {
			return nil, err
		}
	}

	now := s.now()
	reference := "payout_" + uuid.NewString()
	tx := &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          domain.TransactionPayout,
		Amount:        amount,
		Status:        domain.TransactionPending,
		Reference:     reference,
		Description:   "Withdrawal to bank account",
		BalanceBefore: wallet.AvailableBalance,
		BalanceAfter:  wallet.AvailableBalance,
		Metadata:      domain.Metadata{"bank_name": wallet.BankName, "account_number": wallet.AccountNumber},
		CreatedAt:     now,
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, err
	}

	result, err := s.payouts.InitiateTransfer(ctx, wallet.RecipientCode, amount, "Vendor withdrawal", reference)
	if err != nil {
		tx.Status = domain.TransactionFailed
		if updateErr := s.txs.Update(ctx, tx); updateErr != nil {
			s.logger.Error("failed to mark payout transaction failed", logger.Fields{
				"transaction_id": tx.ID,
				"error":          updateErr.Error(),
			})
		}
		return nil, err
	}

	tx.Status = domain.TransactionCompleted
	tx.BalanceBefore = wallet.AvailableBalance
	tx.BalanceAfter = wallet.AvailableBalance.Sub(amount)
	tx.CompletedAt = &now
	tx.Metadata["payout_ref"] = result.PayoutRef
	tx.Metadata["provider_status"] = string(result.Status)
	if err := s.txs.Update(ctx, tx); err != nil {
		return nil, err
	}

	wallet.AvailableBalance = wallet.AvailableBalance.Sub(amount)
	wallet.LifetimeWithdrawn = wallet.LifetimeWithdrawn.Add(amount)
	if err := s.saveWallet(ctx, wallet); err != nil {
		return nil, err
	}

	s.logger.Info("payout completed", logger.Fields{
		"wallet_id":  wallet.ID,
		"amount":     amount.StringFixed(2),
		"payout_ref": result.PayoutRef,
	})
	s.notifier.Dispatch(ctx, notification.Event{
		Kind:     notification.EventPayoutCompleted,
		VendorID: wallet.VendorID,
		Title:    "Withdrawal completed",
		Message:  "Your withdrawal has been sent to your bank account.",
		Data:     map[string]interface{}{"amount": amount.StringFixed(2)},
	})
	return tx, nil
}

func (s *Service) saveWallet(ctx context.Context, wallet *domain.Wallet) error {
	wallet.UpdatedAt = s.now()
	return s.repo.Update(ctx, wallet)
}
