// Package dojah implements the identity verification gateway against the
// Dojah KYC API: national-ID and bank-number lookups plus the OTP round-trip
// over the phone channel linked to each number.
package dojah

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"kasu/internal/gateway"
	"kasu/pkg/config"
	kasuerrors "kasu/pkg/errors"
	"kasu/pkg/logger"
)

const providerName = "dojah"

// Client calls the Dojah REST API. All requests carry a bounded timeout;
// timeouts surface as retryable gateway errors.
type Client struct {
	baseURL    string
	apiKey     string
	appID      string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient builds a Dojah client from config.
func NewClient(cfg config.DojahConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		appID:   cfg.AppID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}
}

type apiEnvelope struct {
	Entity    map[string]interface{} `json:"entity"`
	Valid     *bool                  `json:"valid"`
	Reference string                 `json:"reference"`
	Phone     string                 `json:"phone"`
	Message   string                 `json:"message"`
}

func (c *Client) do(ctx context.Context, path string, payload interface{}) (*apiEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, kasuerrors.Wrap(err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, kasuerrors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("AppId", c.appID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("dojah request timed out", logger.Fields{"path": path})
			return nil, kasuerrors.NewGatewayError(providerName, "request timed out, please try again", true)
		}
		c.logger.Error("dojah request failed", logger.Fields{"path": path, "error": err.Error()})
		return nil, kasuerrors.NewGatewayError(providerName, "verification service unavailable", true)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, kasuerrors.NewGatewayError(providerName, "unreadable response from verification service", true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := envelope.Message
		if msg == "" {
			msg = fmt.Sprintf("verification service returned status %d", resp.StatusCode)
		}
		c.logger.Warn("dojah returned error status", logger.Fields{
			"path":   path,
			"status": resp.StatusCode,
		})
		return nil, kasuerrors.NewGatewayError(providerName, msg, resp.StatusCode >= 500)
	}

	return &envelope, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// VerifyIdentity looks up an 11-digit national-ID number and returns the
// registered personal record.
func (c *Client) VerifyIdentity(ctx context.Context, idNumber string) (*gateway.IdentityRecord, error) {
	envelope, err := c.do(ctx, "/api/v1/kyc/nin", map[string]string{"nin": idNumber})
	if err != nil {
		return nil, err
	}
	if envelope.Entity == nil {
		return nil, kasuerrors.NewGatewayError(providerName, "invalid identity number or no data found", false)
	}
	return normalizeIdentity(envelope.Entity), nil
}

// VerifyBankNumber looks up an 11-digit bank-verification number and returns
// the linked banking record.
func (c *Client) VerifyBankNumber(ctx context.Context, bankNumber string) (*gateway.BankRecord, error) {
	envelope, err := c.do(ctx, "/api/v1/kyc/bvn", map[string]string{"bvn": bankNumber})
	if err != nil {
		return nil, err
	}
	if envelope.Entity == nil {
		return nil, kasuerrors.NewGatewayError(providerName, "invalid bank number or no data found", false)
	}
	return normalizeBank(envelope.Entity), nil
}

// SendIdentityOTP dispatches a one-time code to the phone linked to the
// identity number.
func (c *Client) SendIdentityOTP(ctx context.Context, idNumber string) (*gateway.OTPDispatch, error) {
	return c.sendOTP(ctx, map[string]string{"nin": idNumber, "channel": "sms"})
}

// SendBankOTP dispatches a one-time code to the phone linked to the bank
// number.
func (c *Client) SendBankOTP(ctx context.Context, bankNumber string) (*gateway.OTPDispatch, error) {
	return c.sendOTP(ctx, map[string]string{"bvn": bankNumber, "channel": "sms"})
}

func (c *Client) sendOTP(ctx context.Context, payload map[string]string) (*gateway.OTPDispatch, error) {
	envelope, err := c.do(ctx, "/api/v1/messaging/otp/send", payload)
	if err != nil {
		return nil, err
	}
	if envelope.Reference == "" {
		return nil, kasuerrors.NewGatewayError(providerName, "provider did not issue a code reference", true)
	}
	return &gateway.OTPDispatch{
		Reference:   envelope.Reference,
		MaskedPhone: envelope.Phone,
	}, nil
}

// VerifyIdentityOTP validates a code against the reference issued by
// SendIdentityOTP.
func (c *Client) VerifyIdentityOTP(ctx context.Context, reference, code string) error {
	return c.validateOTP(ctx, reference, code)
}

// VerifyBankOTP validates a code against the reference issued by SendBankOTP.
func (c *Client) VerifyBankOTP(ctx context.Context, reference, code string) error {
	return c.validateOTP(ctx, reference, code)
}

func (c *Client) validateOTP(ctx context.Context, reference, code string) error {
	envelope, err := c.do(ctx, "/api/v1/messaging/otp/validate", map[string]string{
		"reference": reference,
		"code":      code,
	})
	if err != nil {
		return err
	}
	if envelope.Valid == nil || !*envelope.Valid {
		return kasuerrors.ErrInvalidOrExpiredCode
	}
	return nil
}

// normalizeIdentity collapses the provider's field-name variants into one
// IdentityRecord. This is the only place the raw payload shape is known.
func normalizeIdentity(entity map[string]interface{}) *gateway.IdentityRecord {
	return &gateway.IdentityRecord{
		FirstName:  pick(entity, "firstname", "first_name"),
		LastName:   pick(entity, "surname", "lastname", "last_name"),
		MiddleName: pick(entity, "middlename", "middle_name"),
		Phone:      pick(entity, "telephoneno", "phone"),
		Birthdate:  pickDate(entity, "birthdate", "dateofbirth"),
		Gender:     pick(entity, "gender"),
		Address:    pick(entity, "residence_address", "address"),
		State:      pick(entity, "residence_state", "state"),
		Region:     pick(entity, "residence_lga", "lga"),
		PhotoRef:   pick(entity, "photo"),
	}
}

func normalizeBank(entity map[string]interface{}) *gateway.BankRecord {
	return &gateway.BankRecord{
		FirstName:     pick(entity, "firstname", "first_name"),
		LastName:      pick(entity, "lastname", "last_name", "surname"),
		Phone:         pick(entity, "phone", "phonenumber"),
		Birthdate:     pickDate(entity, "dateofbirth", "dob", "birthdate"),
		AccountName:   pick(entity, "account_name"),
		AccountNumber: pick(entity, "account_number"),
		BankName:      pick(entity, "bank_name"),
	}
}

func pick(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func pickDate(m map[string]interface{}, keys ...string) time.Time {
	raw := pick(m, keys...)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "02-01-2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
