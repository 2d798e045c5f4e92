// internal/api/handler/ledger.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"peerpay/internal/service"
	"peerpay/internal/util"
)

// DefaultTimeout bounds request handling time at the router level.
const DefaultTimeout = 10 * time.Second

// LedgerHandler handles HTTP requests for accounts, payments, friendships
// and the activity feed.
type LedgerHandler struct {
	service service.LedgerService
	logger  *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: svc,
		logger:  logger,
	}
}

func (h *LedgerHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func (h *LedgerHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrAccountNotFound):
		statusCode = http.StatusNotFound
		message = "Account not found"
	case util.IsError(err, util.ErrDuplicateUsername),
		util.IsError(err, util.ErrAlreadyFriends),
		util.IsError(err, util.ErrCardAlreadySet):
		statusCode = http.StatusConflict
		message = err.Error()
	case util.IsError(err, util.ErrInsufficientBalance),
		util.IsError(err, util.ErrNoCreditCard),
		util.IsError(err, util.ErrChargeFailed):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = err.Error()
	case util.IsIdentityError(err),
		util.IsPaymentError(err),
		util.IsCreditCardError(err),
		util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// CreateAccountRequest represents the request body for account creation.
type CreateAccountRequest struct {
	Username         string          `json:"username"`
	InitialBalance   decimal.Decimal `json:"initial_balance"`
	CreditCardNumber string          `json:"credit_card_number"`
}

// CreateAccount handles the account creation request.
// POST /accounts
func (h *LedgerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req.Username, req.InitialBalance, req.CreditCardNumber)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"username": account.Username,
		"balance":  account.Balance,
		"has_card": account.HasCreditCard(),
	})
}

// GetAccount handles the balance view request.
// GET /accounts/{username}
func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	account, err := h.service.GetAccount(r.Context(), username)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"username": account.Username,
		"balance":  account.Balance,
		"has_card": account.HasCreditCard(),
	})
}

// DepositRequest represents the request body for a deposit.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deposit handles the deposit request.
// POST /accounts/{username}/deposit
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, err := h.service.Deposit(r.Context(), username, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Deposit successful",
		"username":    account.Username,
		"new_balance": account.Balance,
	})
}

// AddCardRequest represents the request body for card registration.
type AddCardRequest struct {
	CreditCardNumber string `json:"credit_card_number"`
}

// AddCreditCard handles the card registration request.
// POST /accounts/{username}/card
func (h *LedgerHandler) AddCreditCard(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req AddCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	if err := h.service.AddCreditCard(r.Context(), username, req.CreditCardNumber); err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Credit card linked",
	})
}

// PaymentRequest represents the request body for a payment.
type PaymentRequest struct {
	Actor  string          `json:"actor"`
	Target string          `json:"target"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// Pay handles the payment request.
// POST /payments
func (h *LedgerHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Actor == "" || req.Target == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	activity, err := h.service.Pay(r.Context(), req.Actor, req.Target, req.Amount, req.Note)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Payment successful",
		"activity_id": activity.ID,
		"actor":       activity.Actor,
		"target":      activity.Target,
		"amount":      activity.Amount,
	})
}

// AddFriendRequest represents the request body for adding a friend.
type AddFriendRequest struct {
	Username string `json:"username"`
}

// AddFriend handles the friendship request.
// POST /accounts/{username}/friends
func (h *LedgerHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	actor := chi.URLParam(r, "username")

	var req AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Username == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	activity, err := h.service.AddFriend(r.Context(), actor, req.Username)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Friendship recorded",
		"activity_id": activity.ID,
	})
}

// ListFriends handles the friends listing request.
// GET /accounts/{username}/friends
func (h *LedgerHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	friends, err := h.service.ListFriends(r.Context(), username)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"username": username,
		"friends":  friends,
	})
}

// GetActivity handles the raw activity listing request.
// GET /accounts/{username}/activity
func (h *LedgerHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	activities, err := h.service.RetrieveActivity(r.Context(), username)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"username": username,
		"data":     activities,
	})
}

// GetFeed handles the rendered feed request.
// GET /accounts/{username}/feed
func (h *LedgerHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	activities, err := h.service.RetrieveActivity(r.Context(), username)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"username": username,
		"feed":     service.RenderFeed(activities),
	})
}
