/**
 * @description
 * This file sets up the HTTP router for the account-service using the `chi`
 * routing library. It defines all the API routes and applies necessary
 * middleware.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 * - The service's internal packages for handlers and middleware.
 */
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lipaflow/account-service/internal/app"
	"github.com/lipaflow/account-service/internal/config"
	"github.com/lipaflow/account-service/pkg/middleware"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(cfg *config.Config, service *app.AccountService) http.Handler {
	r := chi.NewRouter()

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": cfg.ServiceName})
	})

	// Provider callbacks carry no internal key; they are authenticated by
	// their content (transaction id + account match).
	callbackHandler := NewCallbackHandler(service)
	r.Post("/callbacks/mpesa", callbackHandler.HandleMpesaCallback)

	accountHandler := NewAccountHandler(service)

	// Group routes that require the internal API key
	r.Group(func(r chi.Router) {
		r.Use(middleware.InternalAPIKey(cfg.InternalAPIKey))

		r.Post("/accounts", accountHandler.CreateAccount)
		r.Delete("/accounts/{accountID}", accountHandler.DeleteAccount)
		r.Get("/wallets/{walletID}/accounts", accountHandler.ListWalletAccounts)
	})

	return r
}
