package dojah

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/hotp"

	"kasu/internal/gateway"
	kasuerrors "kasu/pkg/errors"
	"kasu/pkg/logger"
)

// Mock is a stand-in identity gateway for development and tests. Lookups
// return a fixed record and one-time codes are generated with HOTP so each
// issued reference maps to exactly one valid code, the same guarantee the
// real provider gives.
type Mock struct {
	secret  string
	logger  logger.Logger
	mu      sync.Mutex
	counter uint64
	codes   map[string]string
}

// NewMock builds a mock gateway. secret is any base32 string; the default is
// fine outside of tests that need determinism.
func NewMock(log logger.Logger) *Mock {
	return &Mock{
		secret: "KASUMOCKSECRETBASE32KASUMOCKSECR",
		logger: log,
		codes:  make(map[string]string),
	}
}

func (m *Mock) VerifyIdentity(ctx context.Context, idNumber string) (*gateway.IdentityRecord, error) {
	m.logger.Info("mock identity lookup", logger.Fields{"id_last4": last4(idNumber)})
	return &gateway.IdentityRecord{
		FirstName: "John",
		LastName:  "Doe",
		Phone:     "08012345678",
		Birthdate: time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC),
		Gender:    "Male",
		Address:   "123 Test Street, Ikeja",
		State:     "Lagos",
		Region:    "Ikeja",
	}, nil
}

func (m *Mock) VerifyBankNumber(ctx context.Context, bankNumber string) (*gateway.BankRecord, error) {
	m.logger.Info("mock bank lookup", logger.Fields{"id_last4": last4(bankNumber)})
	return &gateway.BankRecord{
		FirstName:     "John",
		LastName:      "Doe",
		Phone:         "08012345678",
		Birthdate:     time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC),
		AccountName:   "John Doe",
		AccountNumber: "0123456789",
		BankName:      "GTBank",
	}, nil
}

func (m *Mock) SendIdentityOTP(ctx context.Context, idNumber string) (*gateway.OTPDispatch, error) {
	return m.issueCode()
}

func (m *Mock) SendBankOTP(ctx context.Context, bankNumber string) (*gateway.OTPDispatch, error) {
	return m.issueCode()
}

func (m *Mock) issueCode() (*gateway.OTPDispatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	code, err := hotp.GenerateCode(m.secret, m.counter)
	if err != nil {
		return nil, kasuerrors.NewGatewayError(providerName, "failed to generate code", true)
	}

	reference := "mock_" + uuid.NewString()
	m.codes[reference] = code

	m.logger.Info("mock one-time code issued", logger.Fields{
		"reference": reference,
		"test_code": code, // mock mode only, never logged by the real client
	})

	return &gateway.OTPDispatch{
		Reference:   reference,
		MaskedPhone: "080****5678",
	}, nil
}

func (m *Mock) VerifyIdentityOTP(ctx context.Context, reference, code string) error {
	return m.validate(reference, code)
}

func (m *Mock) VerifyBankOTP(ctx context.Context, reference, code string) error {
	return m.validate(reference, code)
}

func (m *Mock) validate(reference, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expected, ok := m.codes[reference]
	if !ok || expected != code {
		return kasuerrors.ErrInvalidOrExpiredCode
	}
	delete(m.codes, reference)
	return nil
}

func last4(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
