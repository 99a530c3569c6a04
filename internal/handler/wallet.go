package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kasu/internal/middleware"
	"kasu/internal/verification"
	"kasu/internal/wallet"
	"kasu/pkg/logger"
	"kasu/pkg/validator"
)

// WalletHandler serves the vendor-facing wallet endpoints. The wallet is
// resolved through the caller's vendor identity, so a vendor can only ever
// see their own ledger.
type WalletHandler struct {
	wallets   *wallet.Service
	vendors   *verification.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewWalletHandler(wallets *wallet.Service, vendors *verification.Service, val *validator.Validator, log logger.Logger) *WalletHandler {
	return &WalletHandler{
		wallets:   wallets,
		vendors:   vendors,
		validator: val,
		logger:    log,
	}
}

func (h *WalletHandler) walletVendorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, found := middleware.UserIDFromContext(r.Context())
	if !found {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	vendor, err := h.vendors.GetVendorByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return uuid.Nil, false
	}
	return vendor.ID, true
}

// Get returns the caller's wallet record.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := h.walletVendorID(w, r)
	if !ok {
		return
	}

	wal, err := h.wallets.GetWallet(r.Context(), vendorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wal)
}

// Balance returns the caller's balance summary.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := h.walletVendorID(w, r)
	if !ok {
		return
	}

	balance, err := h.wallets.GetBalance(r.Context(), vendorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balance)
}

// Transactions pages the caller's ledger, newest first.
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := h.walletVendorID(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	txs, total, err := h.wallets.ListTransactions(r.Context(), vendorID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

type payoutRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// Payout withdraws from the caller's available balance to their verified
// bank account.
func (h *WalletHandler) Payout(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := h.walletVendorID(w, r)
	if !ok {
		return
	}

	var req payoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		respondError(w, http.StatusBadRequest, "amount must be a positive decimal")
		return
	}

	tx, err := h.wallets.InitiatePayout(r.Context(), vendorID, amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}
