package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"kasu/internal/gateway"
	"kasu/pkg/config"
	kasuerrors "kasu/pkg/errors"
	"kasu/pkg/logger"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.PaystackConfig{
		BaseURL:   baseURL,
		SecretKey: "sk_test",
		Timeout:   5 * time.Second,
	}, logger.NewNop())
}

func TestToKobo(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"1000.00", 100000},
		{"1234.56", 123456},
		{"0.01", 1},
		{"0.005", 1}, // rounds half up at the boundary
		{"2500", 250000},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, toKobo(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestVerifyAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bank/resolve", r.URL.Path)
		assert.Equal(t, "0123456789", r.URL.Query().Get("account_number"))
		assert.Equal(t, "058", r.URL.Query().Get("bank_code"))
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{"account_name": "JOHN DOE"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	detail, err := client.VerifyAccount(context.Background(), "0123456789", "058")

	assert.NoError(t, err)
	assert.Equal(t, "JOHN DOE", detail.AccountName)
}

func TestCreateRecipient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transferrecipient", r.URL.Path)

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "nuban", body["type"])
		assert.Equal(t, "NGN", body["currency"])
		assert.Equal(t, "John Doe", body["name"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{"recipient_code": "RCP_123"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	code, err := client.CreateRecipient(context.Background(), "0123456789", "058", "John Doe")

	assert.NoError(t, err)
	assert.Equal(t, "RCP_123", code)
}

func TestInitiateTransfer_ConvertsToMinorUnits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfer", r.URL.Path)

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, float64(250050), body["amount"]) // 2500.50 in kobo
		assert.Equal(t, "RCP_123", body["recipient"])
		assert.Equal(t, "payout_abc", body["reference"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"status":    "success",
				"reference": "payout_abc",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.InitiateTransfer(context.Background(), "RCP_123",
		decimal.RequireFromString("2500.50"), "Vendor withdrawal", "payout_abc")

	assert.NoError(t, err)
	assert.Equal(t, gateway.TransferSuccess, result.Status)
	assert.Equal(t, "payout_abc", result.PayoutRef)
}

func TestInitiateTransfer_DeclinedStatusIsGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "insufficient balance on source account",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.InitiateTransfer(context.Background(), "RCP_123",
		decimal.RequireFromString("2500.50"), "Vendor withdrawal", "payout_abc")

	var ge *kasuerrors.GatewayError
	assert.ErrorAs(t, err, &ge)
	assert.False(t, ge.Retryable)
	assert.Equal(t, "paystack", ge.Provider)
}

func TestVerifyTransfer_NormalizesStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     gateway.TransferStatus
	}{
		{"success", gateway.TransferSuccess},
		{"failed", gateway.TransferFailed},
		{"reversed", gateway.TransferReversed},
		{"otp", gateway.TransferPending},
		{"pending", gateway.TransferPending},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"status": true,
					"data":   map[string]interface{}{"status": tt.provider},
				})
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			status, err := client.VerifyTransfer(context.Background(), "tr_1")

			assert.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestMock_TransferIdempotency(t *testing.T) {
	m := NewMock(logger.NewNop())
	ctx := context.Background()
	amount := decimal.RequireFromString("2000.00")

	first, err := m.InitiateTransfer(ctx, "RCP_1", amount, "Vendor withdrawal", "payout_1")
	assert.NoError(t, err)

	second, err := m.InitiateTransfer(ctx, "RCP_1", amount, "Vendor withdrawal", "payout_1")
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	status, err := m.VerifyTransfer(ctx, "payout_1")
	assert.NoError(t, err)
	assert.Equal(t, gateway.TransferSuccess, status)
}
