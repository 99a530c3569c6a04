// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrVendorNotFound      = errors.New("vendor not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrRefundNotFound      = errors.New("refund request not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")

	// Verification errors
	ErrDuplicateIdentity    = errors.New("identity number already registered to another vendor")
	ErrIllegalTransition    = errors.New("illegal verification state transition")
	ErrRateLimited          = errors.New("too many verification attempts, try again later")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired one-time code")
	ErrCodeNotFound         = errors.New("no pending one-time code")
	ErrHighRiskApproval     = errors.New("vendor flagged as high risk, approval requires explicit override")

	// Ledger errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowPayoutMinimum  = errors.New("amount below minimum payout threshold")
	ErrAlreadyCredited     = errors.New("order already credited to wallet")
	ErrAlreadyReleased     = errors.New("order funds already released")
	ErrAlreadyRefunded     = errors.New("refund already processed")
	ErrOrderNotPaid        = errors.New("order payment not confirmed")
	ErrOrderNotDelivered   = errors.New("order not delivered")
	ErrWalletNotVerified   = errors.New("wallet bank details not verified")
)

// GatewayError wraps a third-party gateway failure with a message safe to show
// to the caller. Timeouts and transport failures carry Retryable=true.
type GatewayError struct {
	Provider  string
	Message   string
	Retryable bool
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// NewGatewayError builds a GatewayError for a provider.
func NewGatewayError(provider, message string, retryable bool) *GatewayError {
	return &GatewayError{Provider: provider, Message: message, Retryable: retryable}
}

// IsGatewayError reports whether err is a GatewayError.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

// ValidationError reports a malformed input field, caught before any I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
