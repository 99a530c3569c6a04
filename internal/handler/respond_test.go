package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	kasuerrors "kasu/pkg/errors"
)

func TestRespondServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"vendor not found", kasuerrors.ErrVendorNotFound, http.StatusNotFound},
		{"wallet not found", kasuerrors.ErrWalletNotFound, http.StatusNotFound},
		{"invalid credentials", kasuerrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{"rate limited", kasuerrors.ErrRateLimited, http.StatusTooManyRequests},
		{"illegal transition", kasuerrors.ErrIllegalTransition, http.StatusConflict},
		{"duplicate identity", kasuerrors.ErrDuplicateIdentity, http.StatusConflict},
		{"already credited", kasuerrors.ErrAlreadyCredited, http.StatusConflict},
		{"high risk approval", kasuerrors.ErrHighRiskApproval, http.StatusConflict},
		{"bad otp", kasuerrors.ErrInvalidOrExpiredCode, http.StatusBadRequest},
		{"insufficient balance", kasuerrors.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"below minimum", kasuerrors.ErrBelowPayoutMinimum, http.StatusUnprocessableEntity},
		{"wrapped sentinel", kasuerrors.Wrap(kasuerrors.ErrOrderNotPaid, "credit failed"), http.StatusConflict},
		{"validation error", kasuerrors.NewValidationError("nin", "must be 11 digits"), http.StatusBadRequest},
		{"gateway error", kasuerrors.NewGatewayError("dojah", "unavailable", true), http.StatusBadGateway},
		{"unknown error masked", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRespondServiceError_MasksUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, assert.AnError)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr only", "203.0.113.7:52100", "", "203.0.113.7"},
		{"forwarded single", "10.0.0.1:80", "198.51.100.4", "198.51.100.4"},
		{"forwarded chain takes first hop", "10.0.0.1:80", "198.51.100.4, 10.0.0.2", "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 0},
		{"explicit", "limit=50&offset=10", 50, 10},
		{"limit capped", "limit=500", 20, 0},
		{"negative ignored", "limit=-5&offset=-1", 20, 0},
		{"garbage ignored", "limit=abc&offset=xyz", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			limit, offset := pagination(r)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestDecodeBody_RejectsUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"number":"1","extra":true}`))

	var dest struct {
		Number string `json:"number"`
	}
	ok := decodeBody(rec, r, &dest)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeBody_EmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	var dest struct {
		Number string `json:"number"`
	}
	ok := decodeBody(rec, r, &dest)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
