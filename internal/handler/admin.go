package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"kasu/internal/domain"
	"kasu/internal/middleware"
	"kasu/internal/verification"
	"kasu/internal/wallet"
	"kasu/pkg/logger"
	"kasu/pkg/validator"
)

// AdminHandler serves the review queue: vendor approval and rejection,
// student verification review, refund processing and the order lifecycle
// hooks that move money.
type AdminHandler struct {
	vendors   *verification.Service
	wallets   *wallet.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewAdminHandler(vendors *verification.Service, wallets *wallet.Service, val *validator.Validator, log logger.Logger) *AdminHandler {
	return &AdminHandler{
		vendors:   vendors,
		wallets:   wallets,
		validator: val,
		logger:    log,
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func adminID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return id, true
}

// ListVerifications pages the vendors waiting for admin review.
func (h *AdminHandler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	vendors, err := h.vendors.ListForReview(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"vendors": vendors,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetVerification returns one vendor with onboarding progress.
func (h *AdminHandler) GetVerification(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	vendor, err := h.vendors.GetVendor(r.Context(), vendorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"vendor":   vendor,
		"progress": h.vendors.GetProgress(vendor),
	})
}

// VendorAttempts pages a vendor's verification audit log.
func (h *AdminHandler) VendorAttempts(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	limit, offset := pagination(r)
	attempts, err := h.vendors.ListAttempts(r.Context(), vendorID, limit, offset)
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

type approveRequest struct {
	Note     string `json:"note"`
	Override bool   `json:"override"`
}

// Approve marks a reviewed vendor as approved. High-risk vendors require the
// override flag.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	reviewer, ok := adminID(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	vendor, err := h.vendors.Approve(r.Context(), vendorID, reviewer, req.Note, req.Override)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vendor)
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Reject declines a vendor's application with a reason.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	reviewer, ok := adminID(w, r)
	if !ok {
		return
	}

	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	vendor, err := h.vendors.Reject(r.Context(), vendorID, reviewer, req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vendor)
}

// Suspend takes an approved vendor off the marketplace.
func (h *AdminHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	reviewer, ok := adminID(w, r)
	if !ok {
		return
	}

	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	vendor, err := h.vendors.Suspend(r.Context(), vendorID, reviewer, req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vendor)
}

type studentReviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// ReviewStudent settles a pending student verification.
func (h *AdminHandler) ReviewStudent(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	reviewer, ok := adminID(w, r)
	if !ok {
		return
	}

	var req studentReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	vendor, err := h.vendors.ReviewStudentVerification(r.Context(), vendorID, reviewer, req.Approve, req.Note)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vendor)
}

// ListRefunds pages the pending refund queue.
func (h *AdminHandler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	refunds, err := h.wallets.ListRefunds(r.Context(), domain.RefundPending, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"refunds": refunds,
		"limit":   limit,
		"offset":  offset,
	})
}

type refundDecisionRequest struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}

// ProcessRefund approves or rejects a refund. Approval debits the vendor's
// available balance.
func (h *AdminHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	refundID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	reviewer, ok := adminID(w, r)
	if !ok {
		return
	}

	var req refundDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	refund, err := h.wallets.ProcessRefund(r.Context(), refundID, reviewer, req.Approve, req.Comment)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, refund)
}

// OrderPaid credits the vendor's pending balance for a paid order. Safe to
// call more than once; replays are refused.
func (h *AdminHandler) OrderPaid(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	tx, err := h.wallets.CreditOnPayment(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// OrderDelivered releases a delivered order's pending funds into the
// vendor's available balance.
func (h *AdminHandler) OrderDelivered(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	tx, err := h.wallets.ReleaseOnDelivery(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}
