// Package paystack implements the payout gateway against the Paystack API:
// bank-account resolution, transfer-recipient registration, and transfers.
// The ledger works in major currency units; this package converts to kobo
// (minor units, factor 100) at the wire boundary and nowhere else.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"kasu/internal/gateway"
	"kasu/pkg/config"
	kasuerrors "kasu/pkg/errors"
	"kasu/pkg/logger"
)

const providerName = "paystack"

var minorUnitFactor = decimal.NewFromInt(100)

// Client calls the Paystack REST API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient builds a Paystack client from config.
func NewClient(cfg config.PaystackConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, kasuerrors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, kasuerrors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("paystack request timed out", logger.Fields{"path": path})
			return nil, kasuerrors.NewGatewayError(providerName, "request timed out, please try again", true)
		}
		c.logger.Error("paystack request failed", logger.Fields{"path": path, "error": err.Error()})
		return nil, kasuerrors.NewGatewayError(providerName, "payment service unavailable", true)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, kasuerrors.NewGatewayError(providerName, "unreadable response from payment service", true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !decoded.Status {
		msg := decoded.Message
		if msg == "" {
			msg = fmt.Sprintf("payment service returned status %d", resp.StatusCode)
		}
		return nil, kasuerrors.NewGatewayError(providerName, msg, resp.StatusCode >= 500)
	}

	return decoded.Data, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// VerifyAccount resolves an account number to its registered holder name.
func (c *Client) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (*gateway.AccountDetail, error) {
	path := "/bank/resolve?" + url.Values{
		"account_number": {accountNumber},
		"bank_code":      {bankCode},
	}.Encode()

	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		AccountName string `json:"account_name"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, kasuerrors.NewGatewayError(providerName, "unreadable account resolution response", true)
	}
	return &gateway.AccountDetail{AccountName: result.AccountName}, nil
}

// CreateRecipient registers a payout recipient and returns the provider's
// recipient handle, cached on the wallet for reuse.
func (c *Client) CreateRecipient(ctx context.Context, accountNumber, bankCode, name string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/transferrecipient", map[string]string{
		"type":           "nuban",
		"name":           name,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	})
	if err != nil {
		return "", err
	}

	var result struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := json.Unmarshal(data, &result); err != nil || result.RecipientCode == "" {
		return "", kasuerrors.NewGatewayError(providerName, "provider did not return a recipient code", true)
	}
	return result.RecipientCode, nil
}

// InitiateTransfer starts a payout. The idempotency key doubles as the
// transfer reference so provider-side retries collapse to one transfer.
func (c *Client) InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reason, idempotencyKey string) (*gateway.TransferResult, error) {
	data, err := c.do(ctx, http.MethodPost, "/transfer", map[string]interface{}{
		"source":    "balance",
		"amount":    toKobo(amount),
		"recipient": recipientCode,
		"reason":    reason,
		"reference": idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, kasuerrors.NewGatewayError(providerName, "unreadable transfer response", true)
	}

	return &gateway.TransferResult{
		Status:    normalizeTransferStatus(result.Status),
		PayoutRef: result.Reference,
	}, nil
}

// VerifyTransfer reports the provider-side status of a payout.
func (c *Client) VerifyTransfer(ctx context.Context, payoutRef string) (gateway.TransferStatus, error) {
	data, err := c.do(ctx, http.MethodGet, "/transfer/verify/"+url.PathEscape(payoutRef), nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", kasuerrors.NewGatewayError(providerName, "unreadable transfer status response", true)
	}
	return normalizeTransferStatus(result.Status), nil
}

func normalizeTransferStatus(s string) gateway.TransferStatus {
	switch s {
	case "success":
		return gateway.TransferSuccess
	case "failed":
		return gateway.TransferFailed
	case "reversed":
		return gateway.TransferReversed
	default:
		return gateway.TransferPending
	}
}

// toKobo converts a major-unit amount to the provider's integer minor units.
func toKobo(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitFactor).Round(0).IntPart()
}
