package consultation

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"alternamed-portal/internal/platform/webhook"
	"alternamed-portal/internal/tokens"
	"alternamed-portal/internal/treatment"
)

// TokenAccount is the slice of the token service the handlers need beyond
// the gateway itself: balance reads for the usage widget and credits from
// the plan-purchase callback.
type TokenAccount interface {
	BalanceFor(ctx context.Context, uid string) (tokens.Balance, error)
	Grant(ctx context.Context, uid, email, plan string, amount int, validFor time.Duration) (tokens.Balance, error)
}

type Handler struct {
	svc      Service
	account  TokenAccount
	validate *validator.Validate
}

func NewHandler(svc Service, account TokenAccount) *Handler {
	return &Handler{
		svc:      svc,
		account:  account,
		validate: validator.New(),
	}
}

type SubmitConsultationRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	UserEmail string `json:"user_email" validate:"required,email"`
	Caso      string `json:"caso" validate:"required"`
}

type tokenUsagePayload struct {
	TotalTokens int `json:"total_tokens"`
	UsedTokens  int `json:"used_tokens"`
	Remaining   int `json:"remaining"`
}

func usagePayload(b tokens.Balance) tokenUsagePayload {
	return tokenUsagePayload{
		TotalTokens: b.TotalTokens,
		UsedTokens:  b.UsedTokens,
		Remaining:   b.Remaining(),
	}
}

func (h *Handler) SubmitConsultation(w http.ResponseWriter, r *http.Request) {
	var req SubmitConsultationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	requester := Requester{UID: req.UserID, Email: req.UserEmail}
	result, balance, err := h.svc.Submit(r.Context(), requester, req.Caso)
	if err != nil {
		h.writeSubmitError(w, err, result, balance)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"resultado":   result,
		"token_usage": usagePayload(balance),
	})
}

// writeSubmitError maps gateway failures onto HTTP statuses. The ledger
// failure case still carries the computed plan so the client can render it.
func (h *Handler) writeSubmitError(w http.ResponseWriter, err error, result *treatment.Result, balance tokens.Balance) {
	var insufficient *InsufficientBalanceError
	var malformed *MalformedResponseError
	var ledgerFailed *LedgerUpdateFailedError

	switch {
	case errors.Is(err, ErrEmptyCase):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":       err.Error(),
			"remaining":   insufficient.Remaining,
			"token_usage": usagePayload(balance),
		})
	case errors.As(err, &malformed), errors.Is(err, treatment.ErrUnparsableResponse):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, webhook.ErrTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.As(err, &ledgerFailed):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":     err.Error(),
			"resultado": ledgerFailed.Result,
		})
	default:
		http.Error(w, "Consultation failed: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user_id")
	if uid == "" {
		http.Error(w, "Missing user_id", http.StatusBadRequest)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	consultations, err := h.svc.History(r.Context(), uid, limit)
	if err != nil {
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"consultations": consultations})
}

func (h *Handler) GetTokenUsage(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user_id")
	if uid == "" {
		http.Error(w, "Missing user_id", http.StatusBadRequest)
		return
	}

	balance, err := h.account.BalanceFor(r.Context(), uid)
	if err != nil {
		http.Error(w, "Failed to load token usage", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":            balance.Plan,
		"token_usage":     usagePayload(balance),
		"expiration_date": balance.ExpirationDate,
	})
}

type GrantTokensRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	UserEmail string `json:"user_email" validate:"required,email"`
	Plan      string `json:"plan" validate:"required"`
	Tokens    int    `json:"tokens" validate:"required,gt=0"`
	ValidDays int    `json:"valid_days" validate:"required,gt=0"`
}

// GrantTokens is the checkout callback: it credits purchased tokens. The
// checkout flow itself lives outside this service.
func (h *Handler) GrantTokens(w http.ResponseWriter, r *http.Request) {
	var req GrantTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	validFor := time.Duration(req.ValidDays) * 24 * time.Hour
	balance, err := h.account.Grant(r.Context(), req.UserID, req.UserEmail, req.Plan, req.Tokens, validFor)
	if err != nil {
		http.Error(w, "Failed to grant tokens", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":        balance.Plan,
		"token_usage": usagePayload(balance),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/consultation", h.SubmitConsultation)
	r.Get("/consultation/history", h.GetHistory)
	r.Get("/tokens/usage", h.GetTokenUsage)
	r.Post("/tokens/grant", h.GrantTokens)
}
