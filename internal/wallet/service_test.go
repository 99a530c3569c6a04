package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"kasu/internal/domain"
	"kasu/internal/gateway"
	"kasu/internal/notification"
	"kasu/pkg/errors"
	"kasu/pkg/logger"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, wallet *domain.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockRepository) FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByOrderAndType(ctx context.Context, orderID uuid.UUID, txType domain.TransactionType) (*domain.Transaction, error) {
	args := m.Called(ctx, orderID, txType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	args := m.Called(ctx, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByWallet(ctx context.Context, walletID uuid.UUID) (int, error) {
	args := m.Called(ctx, walletID)
	return args.Int(0), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RefundRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundRequest), args.Error(1)
}

func (m *MockRefundRepository) Update(ctx context.Context, refund *domain.RefundRequest) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}

func (m *MockRefundRepository) ListByStatus(ctx context.Context, status domain.RefundStatus, limit, offset int) ([]*domain.RefundRequest, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RefundRequest), args.Error(1)
}

type MockPayoutGateway struct {
	mock.Mock
}

func (m *MockPayoutGateway) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (*gateway.AccountDetail, error) {
	args := m.Called(ctx, accountNumber, bankCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.AccountDetail), args.Error(1)
}

func (m *MockPayoutGateway) CreateRecipient(ctx context.Context, accountNumber, bankCode, name string) (string, error) {
	args := m.Called(ctx, accountNumber, bankCode, name)
	return args.String(0), args.Error(1)
}

func (m *MockPayoutGateway) InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reason, idempotencyKey string) (*gateway.TransferResult, error) {
	args := m.Called(ctx, recipientCode, amount, reason, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.TransferResult), args.Error(1)
}

func (m *MockPayoutGateway) VerifyTransfer(ctx context.Context, payoutRef string) (gateway.TransferStatus, error) {
	args := m.Called(ctx, payoutRef)
	return args.Get(0).(gateway.TransferStatus), args.Error(1)
}

// --- Fixtures ---

type testEnv struct {
	service *Service
	repo    *MockRepository
	txs     *MockTransactionRepository
	orders  *MockOrderRepository
	refunds *MockRefundRepository
	payouts *MockPayoutGateway
}

func newTestEnv() *testEnv {
	repo := new(MockRepository)
	txs := new(MockTransactionRepository)
	orders := new(MockOrderRepository)
	refunds := new(MockRefundRepository)
	payouts := new(MockPayoutGateway)

	service := NewService(
		repo, txs, orders, refunds, payouts, notification.Nop{},
		decimal.RequireFromString("1000.00"), logger.NewNop(),
	)
	return &testEnv{
		service: service,
		repo:    repo,
		txs:     txs,
		orders:  orders,
		refunds: refunds,
		payouts: payouts,
	}
}

func newWallet(available, pending string) *domain.Wallet {
	return &domain.Wallet{
		ID:                uuid.New(),
		VendorID:          uuid.New(),
		AccountNumber:     "0123456789",
		BankName:          "GTBank",
		BankCode:          "058",
		AccountHolderName: "John Doe",
		AvailableBalance:  decimal.RequireFromString(available),
		PendingBalance:    decimal.RequireFromString(pending),
		LifetimeEarned:    decimal.Zero,
		LifetimeWithdrawn: decimal.Zero,
		CommissionRate:    decimal.RequireFromString("10.00"),
		IsVerified:        true,
	}
}

func newPaidOrder(vendorID uuid.UUID, total string) *domain.Order {
	now := time.Now()
	return &domain.Order{
		ID:               uuid.New(),
		VendorID:         vendorID,
		Status:           domain.OrderConfirmed,
		TotalAmount:      decimal.RequireFromString(total),
		PaymentReference: "pay_ref",
		PaymentStatus:    domain.PaymentPaid,
		PaidAt:           &now,
	}
}

// --- Commission split ---

func TestCalculateCommission(t *testing.T) {
	tests := []struct {
		name           string
		total          string
		rate           string
		wantCommission string
		wantVendor     string
	}{
		{"even split", "100.00", "10.00", "10", "90"},
		{"rounds half up", "99.99", "10.00", "10", "89.99"},
		{"sub-cent commission rounds up", "0.05", "10.00", "0.01", "0.04"},
		{"zero rate", "250.00", "0.00", "0", "250"},
		{"full rate", "250.00", "100.00", "250", "0"},
		{"awkward rate", "33.33", "7.50", "2.5", "30.83"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			commission, vendor := CalculateCommission(total, decimal.RequireFromString(tt.rate))

			assert.True(t, commission.Equal(decimal.RequireFromString(tt.wantCommission)),
				"commission: got %s", commission)
			assert.True(t, vendor.Equal(decimal.RequireFromString(tt.wantVendor)),
				"vendor share: got %s", vendor)
			// The split must always reassemble the total exactly.
			assert.True(t, commission.Add(vendor).Equal(total))
		})
	}
}

// --- Credit on payment ---

func TestCreditOnPayment_Success(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("0.00", "0.00")
	order := newPaidOrder(wallet.VendorID, "100.00")

	env.orders.On("FindByID", ctx, order.ID).Return(order, nil)
	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("FindByOrderAndType", ctx, order.ID, domain.TransactionCredit).Return(nil, errors.ErrTransactionNotFound)
	env.orders.On("Update", ctx, order).Return(nil)
	env.txs.On("Create", ctx, mock.Anything).Return(nil)
	env.repo.On("Update", ctx, wallet).Return(nil)

	tx, err := env.service.CreditOnPayment(ctx, order.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.TransactionCredit, tx.Type)
	assert.Equal(t, domain.TransactionPending, tx.Status)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("90.00")))
	assert.True(t, wallet.PendingBalance.Equal(decimal.RequireFromString("90.00")))
	assert.True(t, wallet.AvailableBalance.IsZero())
	// Pending money is not earned yet; a cancelled order must leave no trace.
	assert.True(t, wallet.LifetimeEarned.IsZero())
	assert.True(t, order.CommissionAmount.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, order.VendorAmount.Equal(decimal.RequireFromString("90.00")))
}

func TestCreditOnPayment_ReplayRefused(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("0.00", "90.00")
	order := newPaidOrder(wallet.VendorID, "100.00")

	env.orders.On("FindByID", ctx, order.ID).Return(order, nil)
	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("FindByOrderAndType", ctx, order.ID, domain.TransactionCredit).
		Return(&domain.Transaction{ID: uuid.New(), Status: domain.TransactionPending}, nil)

	_, err := env.service.CreditOnPayment(ctx, order.ID)

	assert.ErrorIs(t, err, errors.ErrAlreadyCredited)
	assert.True(t, wallet.PendingBalance.Equal(decimal.RequireFromString("90.00")))
	env.txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreditOnPayment_UnpaidOrderRefused(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := newPaidOrder(uuid.New(), "100.00")
	order.PaymentStatus = domain.PaymentPending
	order.PaidAt = nil

	env.orders.On("FindByID", ctx, order.ID).Return(order, nil)

	_, err := env.service.CreditOnPayment(ctx, order.ID)

	assert.ErrorIs(t, err, errors.ErrOrderNotPaid)
}

// --- Release on delivery ---

func TestReleaseOnDelivery_Success(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("50.00", "90.00")
	order := newPaidOrder(wallet.VendorID, "100.00")
	now := time.Now()
	order.Status = domain.OrderDelivered
	order.DeliveredAt = &now

	credit := &domain.Transaction{
		ID:       uuid.New(),
		WalletID: wallet.ID,
		Type:     domain.TransactionCredit,
		Amount:   decimal.RequireFromString("90.00"),
		Status:   domain.TransactionPending,
		OrderID:  &order.ID,
	}

	env.orders.On("FindByID", ctx, order.ID).Return(order, nil)
	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("FindByOrderAndType", ctx, order.ID, domain.TransactionCredit).Return(credit, nil)
	env.txs.On("Update", ctx, credit).Return(nil)
	env.repo.On("Update", ctx, wallet).Return(nil)

	tx, err := env.service.ReleaseOnDelivery(ctx, order.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.TransactionCompleted, tx.Status)
	assert.NotNil(t, tx.CompletedAt)
	assert.True(t, tx.BalanceBefore.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, tx.BalanceAfter.Equal(decimal.RequireFromString("140.00")))
	assert.True(t, wallet.AvailableBalance.Equal(decimal.RequireFromString("140.00")))
	assert.True(t, wallet.PendingBalance.IsZero())
	assert.True(t, wallet.LifetimeEarned.Equal(decimal.RequireFromString("90.00")))
}

func TestCreditThenRelease_LifetimeEarnedCountsOnceOnRelease(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("0.00", "0.00")
	order := newPaidOrder(wallet.VendorID, "10000.00")

	env.orders.On("FindByID", ctx, order.ID).Return(order, nil)
	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("FindByOrderAndType", ctx, order.ID, domain.TransactionCredit).
		Return(nil, errors.ErrTransactionNotFound).Once()
	env.orders.On("Update", ctx, order).Return(nil)
	env.txs.On("Create", ctx, mock.Anything).Return(nil)
	env.repo.On("Update", ctx, wallet).Return(nil)

	credit, err := env.service.CreditOnPayment(ctx, order.ID)
	assert.NoError(t, err)
	assert.True(t, wallet.LifetimeEarned.IsZero(),
		"lifetime earned moved before delivery: got %s", wallet.LifetimeEarned)

	now := time.Now()
	order.Status = domain.OrderDelivered
	order.DeliveredAt = &now
	env.txs.On("FindByOrderAndType", ctx, order.ID, domain.TransactionCredit).Return(credit, nil)
	env.txs.On("Update", ctx, credit).Return(nil)

	_, err = env.service.ReleaseOnDelivery(ctx, order.ID)
	assert.NoError(t, err)
	assert.True(t, wallet.LifetimeEarned.Equal(decimal.RequireFromString("9000.00")),
		"lifetime earned after release: got %s", wallet.LifetimeEarned)
	assert.True(t, wallet.AvailableBalance.Equal(decimal.RequireFromString("9000.00")))
	assert.True(t, wallet.PendingBalance.IsZero())
}

func TestReleaseOnDelivery_ReplayRefused(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("140.00", "0.00")
	order := newPaidOrder(wallet.VendorID, "100.00")
	now := time.Now()
	order.Status = domain.OrderDelivered
	order.DeliveredAt = &now

	released := &domain.Transaction{
		ID:     uuid.New(),
		Type:   domain.TransactionCredit,
		Amount: decimal.RequireFromString("90.00"),
		Status: domain.TransactionCompleted,
	}

	env.orders.On("FindByID", ctx, order.ID).Return(order, nil)
	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("FindByOrderAndType", ctx, order.ID, domain.TransactionCredit).Return(released, nil)

	_, err := env.service.ReleaseOnDelivery(ctx, order.ID)

	assert.ErrorIs(t, err, errors.ErrAlreadyReleased)
	assert.True(t, wallet.AvailableBalance.Equal(decimal.RequireFromString("140.00")))
	env.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReleaseOnDelivery_NotDelivered(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := newPaidOrder(uuid.New(), "100.00")

	env.orders.On("FindByID", ctx, order.ID).Return(order, nil)

	_, err := env.service.ReleaseOnDelivery(ctx, order.ID)

	assert.ErrorIs(t, err, errors.ErrOrderNotDelivered)
}

// --- Refunds ---

func newRefund(vendorID uuid.UUID, amount string) *domain.RefundRequest {
	return &domain.RefundRequest{
		ID:       uuid.New(),
		OrderID:  uuid.New(),
		VendorID: vendorID,
		Reason:   "damaged item",
		Amount:   decimal.RequireFromString(amount),
		Status:   domain.RefundPending,
	}
}

func TestProcessRefund_ApprovedDebitsWallet(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("200.00", "0.00")
	refund := newRefund(wallet.VendorID, "75.50")
	adminID := uuid.New()

	env.refunds.On("FindByID", ctx, refund.ID).Return(refund, nil)
	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("Create", ctx, mock.Anything).Return(nil)
	env.repo.On("Update", ctx, wallet).Return(nil)
	env.refunds.On("Update", ctx, refund).Return(nil)

	processed, err := env.service.ProcessRefund(ctx, refund.ID, adminID, true, "verified with courier")

	assert.NoError(t, err)
	assert.Equal(t, domain.RefundCompleted, processed.Status)
	assert.Equal(t, adminID, *processed.ProcessedBy)
	assert.True(t, wallet.AvailableBalance.Equal(decimal.RequireFromString("124.50")))

	env.txs.AssertCalled(t, "Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.Type == domain.TransactionRefund &&
			tx.Status == domain.TransactionCompleted &&
			tx.BalanceBefore.Equal(decimal.RequireFromString("200.00")) &&
			tx.BalanceAfter.Equal(decimal.RequireFromString("124.50"))
	}))
}

func TestProcessRefund_InsufficientBalanceNeverGoesNegative(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("50.00", "0.00")
	refund := newRefund(wallet.VendorID, "75.50")

	env.refunds.On("FindByID", ctx, refund.ID).Return(refund, nil)
	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("Create", ctx, mock.Anything).Return(nil)

	_, err := env.service.ProcessRefund(ctx, refund.ID, uuid.New(), true, "")

	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
	assert.True(t, wallet.AvailableBalance.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, domain.RefundPending, refund.Status)

	// The failed attempt is recorded for reconciliation.
	env.txs.AssertCalled(t, "Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.Type == domain.TransactionRefund && tx.Status == domain.TransactionFailed
	}))
	env.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProcessRefund_Rejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	refund := newRefund(uuid.New(), "75.50")

	env.refunds.On("FindByID", ctx, refund.ID).Return(refund, nil)
	env.refunds.On("Update", ctx, refund).Return(nil)

	processed, err := env.service.ProcessRefund(ctx, refund.ID, uuid.New(), false, "outside refund window")

	assert.NoError(t, err)
	assert.Equal(t, domain.RefundRejected, processed.Status)
	assert.Equal(t, "outside refund window", processed.AdminComment)
	env.repo.AssertNotCalled(t, "FindByVendorID", mock.Anything, mock.Anything)
}

func TestProcessRefund_ReplayRefused(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	refund := newRefund(uuid.New(), "75.50")
	refund.Status = domain.RefundCompleted

	env.refunds.On("FindByID", ctx, refund.ID).Return(refund, nil)

	_, err := env.service.ProcessRefund(ctx, refund.ID, uuid.New(), true, "")

	assert.ErrorIs(t, err, errors.ErrAlreadyRefunded)
}

// --- Payouts ---

func TestInitiatePayout_Success(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("5000.00", "0.00")
	wallet.RecipientCode = "RCP_123"
	amount := decimal.RequireFromString("2000.00")

	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("Create", ctx, mock.Anything).Return(nil)
	env.payouts.On("InitiateTransfer", ctx, "RCP_123", amount, "Vendor withdrawal", mock.Anything).
		Return(&gateway.TransferResult{Status: gateway.TransferSuccess, PayoutRef: "tr_999"}, nil)
	env.txs.On("Update", ctx, mock.Anything).Return(nil)
	env.repo.On("Update", ctx, wallet).Return(nil)

	tx, err := env.service.InitiatePayout(ctx, wallet.VendorID, amount)

	assert.NoError(t, err)
	assert.Equal(t, domain.TransactionCompleted, tx.Status)
	assert.Equal(t, "tr_999", tx.Metadata["payout_ref"])
	assert.True(t, wallet.AvailableBalance.Equal(decimal.RequireFromString("3000.00")))
	assert.True(t, wallet.LifetimeWithdrawn.Equal(amount))
}

func TestInitiatePayout_CreatesAndCachesRecipient(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("5000.00", "0.00")
	amount := decimal.RequireFromString("2000.00")

	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.payouts.On("CreateRecipient", ctx, "0123456789", "058", "John Doe").Return("RCP_new", nil)
	env.repo.On("Update", ctx, wallet).Return(nil)
	env.txs.On("Create", ctx, mock.Anything).Return(nil)
	env.payouts.On("InitiateTransfer", ctx, "RCP_new", amount, "Vendor withdrawal", mock.Anything).
		Return(&gateway.TransferResult{Status: gateway.TransferSuccess, PayoutRef: "tr_1"}, nil)
	env.txs.On("Update", ctx, mock.Anything).Return(nil)

	_, err := env.service.InitiatePayout(ctx, wallet.VendorID, amount)

	assert.NoError(t, err)
	assert.Equal(t, "RCP_new", wallet.RecipientCode)
}

func TestInitiatePayout_GatewayFailureLeavesBalanceUntouched(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("5000.00", "0.00")
	wallet.RecipientCode = "RCP_123"
	amount := decimal.RequireFromString("2000.00")
	gatewayErr := errors.NewGatewayError("paystack", "transfer failed", true)

	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("Create", ctx, mock.Anything).Return(nil)
	env.payouts.On("InitiateTransfer", ctx, "RCP_123", amount, "Vendor withdrawal", mock.Anything).
		Return(nil, gatewayErr)
	env.txs.On("Update", ctx, mock.Anything).Return(nil)

	_, err := env.service.InitiatePayout(ctx, wallet.VendorID, amount)

	assert.Error(t, err)
	assert.True(t, errors.IsGatewayError(err))
	assert.True(t, wallet.AvailableBalance.Equal(decimal.RequireFromString("5000.00")))
	assert.True(t, wallet.LifetimeWithdrawn.IsZero())
	env.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	env.txs.AssertCalled(t, "Update", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.Status == domain.TransactionFailed
	}))
}

func TestInitiatePayout_BelowMinimum(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("5000.00", "0.00")

	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)

	_, err := env.service.InitiatePayout(ctx, wallet.VendorID, decimal.RequireFromString("999.99"))

	assert.ErrorIs(t, err, errors.ErrBelowPayoutMinimum)
}

func TestInitiatePayout_InsufficientBalance(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("1500.00", "0.00")

	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)

	_, err := env.service.InitiatePayout(ctx, wallet.VendorID, decimal.RequireFromString("2000.00"))

	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
	env.payouts.AssertNotCalled(t, "InitiateTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInitiatePayout_UnverifiedWallet(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("5000.00", "0.00")
	wallet.IsVerified = false

	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)

	_, err := env.service.InitiatePayout(ctx, wallet.VendorID, decimal.RequireFromString("2000.00"))

	assert.ErrorIs(t, err, errors.ErrWalletNotVerified)
}

// --- History ---

func TestListTransactions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	wallet := newWallet("100.00", "0.00")

	expected := []*domain.Transaction{
		{ID: uuid.New(), WalletID: wallet.ID, Type: domain.TransactionCredit},
	}

	env.repo.On("FindByVendorID", ctx, wallet.VendorID).Return(wallet, nil)
	env.txs.On("ListByWallet", ctx, wallet.ID, 10, 0).Return(expected, nil)
	env.txs.On("CountByWallet", ctx, wallet.ID).Return(25, nil)

	txs, total, err := env.service.ListTransactions(ctx, wallet.VendorID, 10, 0)

	assert.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, txs, 1)
}
