/**
 * @description
 * This file defines the HTTP handler for M-PESA payment callbacks. The
 * provider retries any non-2xx response, so every terminal outcome — success,
 * duplicate, unparseable body, unknown account — is answered with HTTP 200 and
 * a {ResultCode, ResultDesc} body. Only a storage failure, which a retry can
 * actually fix, is surfaced as a server error.
 */
package api

import (
	"io"
	"log"
	"net/http"

	"github.com/lipaflow/account-service/internal/app"
	"github.com/lipaflow/account-service/internal/domain"
)

// CallbackHandler holds the dependencies for provider callback handlers.
type CallbackHandler struct {
	service *app.AccountService
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(service *app.AccountService) *CallbackHandler {
	return &CallbackHandler{service: service}
}

// CallbackResult is the provider-facing acknowledgment body. ResultCode 0
// means accepted (or already processed), 1 means rejected.
type CallbackResult struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// HandleMpesaCallback matches a payment callback to an account and records it
// idempotently, emitting a ledger credit request on first sight.
func (h *CallbackHandler) HandleMpesaCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}

	callback, err := domain.ParseMpesaCallback(body)
	if err != nil {
		log.Printf("WARN: Rejecting unparseable mpesa callback: %v", err)
		writeJSON(w, http.StatusOK, CallbackResult{ResultCode: 1, ResultDesc: "Missing TransID or BillRefNumber"})
		return
	}

	exists, err := h.service.ActiveAccountExists(r.Context(), callback.AccountNo)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		writeJSON(w, http.StatusOK, CallbackResult{ResultCode: 1, ResultDesc: "Account not found"})
		return
	}

	recorded, err := h.service.RecordPayment(r.Context(), callback.TransID, callback.AccountNo, callback.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !recorded {
		writeJSON(w, http.StatusOK, CallbackResult{ResultCode: 0, ResultDesc: "Already processed"})
		return
	}

	writeJSON(w, http.StatusOK, CallbackResult{ResultCode: 0, ResultDesc: "Success"})
}
