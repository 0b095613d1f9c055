/**
 * @description
 * This file defines the HTTP handlers for the account-service's account
 * endpoints. Handlers are responsible for parsing requests, calling the
 * appropriate service method, and writing the response.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - Chi router for URL parameter handling.
 * - The service's internal packages for app logic and storage errors.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lipaflow/account-service/internal/app"
	"github.com/lipaflow/account-service/internal/domain"
	"github.com/lipaflow/account-service/internal/store"
)

// AccountHandler holds the dependencies for account-related handlers.
type AccountHandler struct {
	service *app.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service *app.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// CreateAccountRequest defines the expected JSON body for creating an account.
type CreateAccountRequest struct {
	Fullname string `json:"fullname"`
	WalletID string `json:"wallet_id"`
}

// CreateAccountResponse is returned after a successful account creation.
type CreateAccountResponse struct {
	ID        string `json:"id"`
	WalletID  string `json:"wallet_id"`
	Fullname  string `json:"fullname"`
	AccountNo string `json:"account_no"`
}

// AccountListItem is one entry of a wallet's account listing.
type AccountListItem struct {
	ID         string `json:"id"`
	WalletID   string `json:"wallet_id"`
	Fullname   string `json:"fullname"`
	AccountNo  string `json:"account_no"`
	SequenceNo int    `json:"sequence_no"`
	IsActive   bool   `json:"is_active"`
}

// CreateAccount handles the creation of a new customer account under a wallet.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Fullname == "" {
		http.Error(w, "fullname is required", http.StatusBadRequest)
		return
	}
	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		http.Error(w, "wallet_id must be a valid UUID", http.StatusBadRequest)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), app.CreateAccountInput{
		WalletID: walletID,
		Fullname: req.Fullname,
	})
	if err != nil {
		if errors.Is(err, store.ErrWalletNotRegistered) {
			http.Error(w, "Wallet not registered", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, CreateAccountResponse{
		ID:        account.ID.String(),
		WalletID:  account.WalletID.String(),
		Fullname:  account.Fullname,
		AccountNo: account.AccountNo,
	})
}

// ListWalletAccounts handles listing all accounts under a wallet, ordered by
// ascending sequence number.
func (h *AccountHandler) ListWalletAccounts(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "walletID"))
	if err != nil {
		http.Error(w, "wallet id must be a valid UUID", http.StatusBadRequest)
		return
	}

	accounts, err := h.service.ListAccountsByWallet(r.Context(), walletID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]AccountListItem, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, accountListItem(a))
	}
	writeJSON(w, http.StatusOK, items)
}

// DeleteAccount handles the soft-deletion of an account. The row is retained
// with is_active set to false; a second delete reports not found.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		http.Error(w, "account id must be a valid UUID", http.StatusBadRequest)
		return
	}

	account, err := h.service.DeactivateAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			http.Error(w, "Account not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Account deactivated",
		"account_id": account.ID.String(),
	})
}

func accountListItem(a domain.Account) AccountListItem {
	return AccountListItem{
		ID:         a.ID.String(),
		WalletID:   a.WalletID.String(),
		Fullname:   a.Fullname,
		AccountNo:  a.AccountNo,
		SequenceNo: a.SequenceNo,
		IsActive:   a.IsActive,
	}
}

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, we can't send a JSON error, so just log it.
		http.Error(w, `{"error":"Failed to encode response"}`, http.StatusInternalServerError)
	}
}
