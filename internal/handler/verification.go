package handler

import (
	"net/http"

	"kasu/internal/domain"
	"kasu/internal/middleware"
	"kasu/internal/verification"
	"kasu/pkg/logger"
	"kasu/pkg/validator"
)

// VerificationHandler serves the vendor-facing verification endpoints. Every
// endpoint operates on the vendor identity belonging to the authenticated
// user.
type VerificationHandler struct {
	service   *verification.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewVerificationHandler(service *verification.Service, val *validator.Validator, log logger.Logger) *VerificationHandler {
	return &VerificationHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

func (h *VerificationHandler) vendorForRequest(w http.ResponseWriter, r *http.Request) (*domain.VendorIdentity, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	vendor, err := h.service.GetVendorByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return nil, false
	}
	return vendor, true
}

// Start creates (or returns) the caller's vendor identity record.
func (h *VerificationHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vendor, err := h.service.Start(r.Context(), userID, clientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vendor)
}

// Status returns the vendor record with onboarding progress.
func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.vendorForRequest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"vendor":   vendor,
		"progress": h.service.GetProgress(vendor),
	})
}

type submitNumberRequest struct {
	Number string `json:"number" validate:"required"`
}

type submitCodeRequest struct {
	Code string `json:"code" validate:"required,otp"`
}

// SubmitIdentity starts national-ID verification for the caller.
func (h *VerificationHandler) SubmitIdentity(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.vendorForRequest(w, r)
	if !ok {
		return
	}

	var req submitNumberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.SubmitIdentityNumber(r.Context(), vendor.ID, req.Number, clientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// VerifyIdentityOTP completes national-ID verification with the one-time code.
func (h *VerificationHandler) VerifyIdentityOTP(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.vendorForRequest(w, r)
	if !ok {
		return
	}

	var req submitCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.VerifyIdentityOTP(r.Context(), vendor.ID, req.Code, clientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// SubmitBank starts bank-number verification for the caller.
func (h *VerificationHandler) SubmitBank(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.vendorForRequest(w, r)
	if !ok {
		return
	}

	var req submitNumberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.SubmitBankNumber(r.Context(), vendor.ID, req.Number, clientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// VerifyBankOTP completes bank verification with the one-time code.
func (h *VerificationHandler) VerifyBankOTP(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.vendorForRequest(w, r)
	if !ok {
		return
	}

	var req submitCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.VerifyBankOTP(r.Context(), vendor.ID, req.Code, clientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// CompleteStoreSetup marks the caller's store configuration done.
func (h *VerificationHandler) CompleteStoreSetup(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.vendorForRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.service.CompleteStoreSetup(r.Context(), vendor.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// SkipStoreSetup records that the caller deferred store configuration.
func (h *VerificationHandler) SkipStoreSetup(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.vendorForRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.service.SkipStoreSetup(r.Context(), vendor.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// SubmitStudent files the optional student verification details.
func (h *VerificationHandler) SubmitStudent(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.vendorForRequest(w, r)
	if !ok {
		return
	}

	var req verification.StudentDetails
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.SubmitStudentVerification(r.Context(), vendor.ID, req, clientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Attempts pages the caller's own verification audit log.
func (h *VerificationHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.vendorForRequest(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	attempts, err := h.service.ListAttempts(r.Context(), vendor.ID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"attempts": attempts,
		"limit":    limit,
		"offset":   offset,
	})
}
