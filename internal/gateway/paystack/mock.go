package paystack

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"kasu/internal/gateway"
	"kasu/pkg/logger"
)

// Mock is a stand-in payout gateway for development and tests. Transfers
// succeed immediately and repeated idempotency keys return the original
// result, the same guarantee the real provider gives for a reused reference.
type Mock struct {
	logger    logger.Logger
	mu        sync.Mutex
	seq       int
	transfers map[string]*gateway.TransferResult
}

// NewMock builds a mock payout gateway.
func NewMock(log logger.Logger) *Mock {
	return &Mock{
		logger:    log,
		transfers: make(map[string]*gateway.TransferResult),
	}
}

func (m *Mock) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (*gateway.AccountDetail, error) {
	m.logger.Info("mock account resolution", logger.Fields{"bank_code": bankCode})
	return &gateway.AccountDetail{AccountName: "JOHN DOE"}, nil
}

func (m *Mock) CreateRecipient(ctx context.Context, accountNumber, bankCode, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	code := fmt.Sprintf("RCP_mock_%06d", m.seq)
	m.logger.Info("mock recipient created", logger.Fields{"recipient_code": code})
	return code, nil
}

func (m *Mock) InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reason, idempotencyKey string) (*gateway.TransferResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.transfers[idempotencyKey]; ok {
		return existing, nil
	}

	result := &gateway.TransferResult{
		Status:    gateway.TransferSuccess,
		PayoutRef: idempotencyKey,
	}
	m.transfers[idempotencyKey] = result

	m.logger.Info("mock transfer completed", logger.Fields{
		"recipient_code": recipientCode,
		"amount":         amount.StringFixed(2),
		"reference":      idempotencyKey,
	})
	return result, nil
}

func (m *Mock) VerifyTransfer(ctx context.Context, payoutRef string) (gateway.TransferStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result, ok := m.transfers[payoutRef]; ok {
		return result.Status, nil
	}
	return gateway.TransferFailed, nil
}
