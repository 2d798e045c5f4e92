// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"peerpay/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(ledgerHandler *handler.LedgerHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Account API routes
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", ledgerHandler.CreateAccount)
		r.Get("/{username}", ledgerHandler.GetAccount)
		r.Post("/{username}/deposit", ledgerHandler.Deposit)
		r.Post("/{username}/card", ledgerHandler.AddCreditCard)
		r.Post("/{username}/friends", ledgerHandler.AddFriend)
		r.Get("/{username}/friends", ledgerHandler.ListFriends)
		r.Get("/{username}/activity", ledgerHandler.GetActivity)
		r.Get("/{username}/feed", ledgerHandler.GetFeed)
	})

	// Payments are a separate top-level endpoint as they involve two accounts
	r.Post("/payments", ledgerHandler.Pay)

	return r
}
