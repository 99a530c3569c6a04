// Package handler provides the HTTP handlers for the marketplace API.
package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	kasuerrors "kasu/pkg/errors"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors to HTTP statuses. Unknown errors are
// masked as 500 so internals never leak to clients.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, kasuerrors.ErrVendorNotFound),
		errors.Is(err, kasuerrors.ErrWalletNotFound),
		errors.Is(err, kasuerrors.ErrOrderNotFound),
		errors.Is(err, kasuerrors.ErrRefundNotFound),
		errors.Is(err, kasuerrors.ErrTransactionNotFound),
		errors.Is(err, kasuerrors.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, kasuerrors.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, kasuerrors.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, kasuerrors.ErrIllegalTransition),
		errors.Is(err, kasuerrors.ErrDuplicateIdentity),
		errors.Is(err, kasuerrors.ErrHighRiskApproval),
		errors.Is(err, kasuerrors.ErrAlreadyCredited),
		errors.Is(err, kasuerrors.ErrAlreadyReleased),
		errors.Is(err, kasuerrors.ErrAlreadyRefunded),
		errors.Is(err, kasuerrors.ErrOrderNotPaid),
		errors.Is(err, kasuerrors.ErrOrderNotDelivered):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, kasuerrors.ErrInvalidOrExpiredCode),
		errors.Is(err, kasuerrors.ErrCodeNotFound):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, kasuerrors.ErrInsufficientBalance),
		errors.Is(err, kasuerrors.ErrBelowPayoutMinimum),
		errors.Is(err, kasuerrors.ErrWalletNotVerified):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case kasuerrors.IsValidationError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case kasuerrors.IsGatewayError(err):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeBody parses a JSON request body with a size cap and strict fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// clientIP extracts the caller's IP, honoring the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// pagination reads limit/offset query parameters with sane bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
