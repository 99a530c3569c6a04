package dojah

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kasu/pkg/config"
	kasuerrors "kasu/pkg/errors"
	"kasu/pkg/logger"
)

func newTestClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(config.DojahConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		AppID:   "test-app",
		Timeout: timeout,
	}, logger.NewNop())
}

func TestVerifyIdentity_NormalizesRegistryFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/kyc/nin", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "test-app", r.Header.Get("AppId"))

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "12345678901", body["nin"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"entity": map[string]interface{}{
				"firstname":         "John",
				"surname":           "Doe",
				"middlename":        "Emeka",
				"telephoneno":       "08012345678",
				"birthdate":         "15-01-1990",
				"gender":            "m",
				"residence_address": "123 Test Street",
				"residence_state":   "Lagos",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	record, err := client.VerifyIdentity(context.Background(), "12345678901")

	assert.NoError(t, err)
	assert.Equal(t, "John", record.FirstName)
	assert.Equal(t, "Doe", record.LastName)
	assert.Equal(t, "Emeka", record.MiddleName)
	assert.Equal(t, "08012345678", record.Phone)
	assert.Equal(t, "John Doe", record.FullName())
	assert.Equal(t, time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC), record.Birthdate)
	assert.Equal(t, "Lagos", record.State)
}

func TestVerifyIdentity_AlternateFieldNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"entity": map[string]interface{}{
				"first_name": "Jane",
				"last_name":  "Doe",
				"phone":      "08087654321",
				"birthdate":  "1992-03-20",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	record, err := client.VerifyIdentity(context.Background(), "12345678901")

	assert.NoError(t, err)
	assert.Equal(t, "Jane", record.FirstName)
	assert.Equal(t, "Doe", record.LastName)
	assert.Equal(t, "08087654321", record.Phone)
	assert.Equal(t, time.Date(1992, time.March, 20, 0, 0, 0, 0, time.UTC), record.Birthdate)
}

func TestVerifyIdentity_NoEntityIsNonRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.VerifyIdentity(context.Background(), "12345678901")

	assert.Error(t, err)
	var ge *kasuerrors.GatewayError
	assert.ErrorAs(t, err, &ge)
	assert.False(t, ge.Retryable)
}

func TestDo_ServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"message": "upstream down"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.VerifyIdentity(context.Background(), "12345678901")

	var ge *kasuerrors.GatewayError
	assert.ErrorAs(t, err, &ge)
	assert.True(t, ge.Retryable)
	assert.Equal(t, "dojah", ge.Provider)
}

func TestDo_ClientErrorIsNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"message": "invalid nin"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.VerifyIdentity(context.Background(), "12345678901")

	var ge *kasuerrors.GatewayError
	assert.ErrorAs(t, err, &ge)
	assert.False(t, ge.Retryable)
	assert.Contains(t, ge.Message, "invalid nin")
}

func TestDo_TimeoutIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 20*time.Millisecond)
	_, err := client.VerifyIdentity(context.Background(), "12345678901")

	var ge *kasuerrors.GatewayError
	assert.ErrorAs(t, err, &ge)
	assert.True(t, ge.Retryable)
}

func TestSendOTP_ReturnsReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/messaging/otp/send", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"reference": "otp_ref_1",
			"phone":     "080****5678",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	dispatch, err := client.SendIdentityOTP(context.Background(), "12345678901")

	assert.NoError(t, err)
	assert.Equal(t, "otp_ref_1", dispatch.Reference)
	assert.Equal(t, "080****5678", dispatch.MaskedPhone)
}

func TestValidateOTP(t *testing.T) {
	valid := true
	invalid := false

	tests := []struct {
		name    string
		valid   *bool
		wantErr error
	}{
		{"valid code", &valid, nil},
		{"invalid code", &invalid, kasuerrors.ErrInvalidOrExpiredCode},
		{"missing valid field", nil, kasuerrors.ErrInvalidOrExpiredCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/messaging/otp/validate", r.URL.Path)
				resp := map[string]interface{}{}
				if tt.valid != nil {
					resp["valid"] = *tt.valid
				}
				_ = json.NewEncoder(w).Encode(resp)
			}))
			defer server.Close()

			client := newTestClient(server.URL, 5*time.Second)
			err := client.VerifyIdentityOTP(context.Background(), "otp_ref_1", "123456")

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestMock_OTPRoundTrip(t *testing.T) {
	m := NewMock(logger.NewNop())
	ctx := context.Background()

	dispatch, err := m.SendIdentityOTP(ctx, "12345678901")
	assert.NoError(t, err)
	assert.NotEmpty(t, dispatch.Reference)

	code, ok := m.codes[dispatch.Reference]
	assert.True(t, ok)

	assert.NoError(t, m.VerifyIdentityOTP(ctx, dispatch.Reference, code))

	// Single use: the same reference cannot be replayed.
	assert.ErrorIs(t, m.VerifyIdentityOTP(ctx, dispatch.Reference, code), kasuerrors.ErrInvalidOrExpiredCode)
}

func TestMock_WrongCodeRejected(t *testing.T) {
	m := NewMock(logger.NewNop())
	ctx := context.Background()

	dispatch, err := m.SendBankOTP(ctx, "12345678901")
	assert.NoError(t, err)

	assert.ErrorIs(t, m.VerifyBankOTP(ctx, dispatch.Reference, "000000"), kasuerrors.ErrInvalidOrExpiredCode)
}
