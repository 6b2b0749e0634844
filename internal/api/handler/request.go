// internal/api/handler/request.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"finflow-requests/internal/domain"
	"finflow-requests/internal/service"
)

// RequestHandler handles the user-facing deposit and withdrawal endpoints.
type RequestHandler struct {
	responder
	service service.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(svc service.RequestService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// DepositRequest represents the request body for a deposit.
type DepositRequest struct {
	Amount               decimal.Decimal `json:"amount"`
	PaymentMethod        string          `json:"payment_method"`
	SelectedBonusPercent decimal.Decimal `json:"selected_bonus_percent"`
	PromoCode            string          `json:"promo_code"`
}

// WithdrawalRequest represents the request body for a withdrawal.
type WithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Purse         string          `json:"purse"`
	Network       string          `json:"network"`
}

// CreateDeposit handles deposit submission.
// POST /api/v1/requests/deposits
func (h *RequestHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req DepositRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	created, err := h.service.CreateDeposit(r.Context(), actor, domain.DepositInput{
		Amount:               req.Amount,
		PaymentMethod:        req.PaymentMethod,
		SelectedBonusPercent: req.SelectedBonusPercent,
		PromoCode:            req.PromoCode,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, created)
}

// CreateWithdrawal handles withdrawal submission. The amount is held immediately.
// POST /api/v1/requests/withdrawals
func (h *RequestHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req WithdrawalRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	created, err := h.service.CreateWithdrawal(r.Context(), actor, domain.WithdrawalInput{
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Purse:         req.Purse,
		Network:       req.Network,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, created)
}

// ListRequests lists the caller's own requests, newest first.
// GET /api/v1/requests
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	limit, offset := pageParams(r)
	requests, total, err := h.service.ListUserRequests(r.Context(), actor, actor.UserID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, paginated(requests, limit, offset, total))
}

// GetRequest returns one request owned by the caller.
// GET /api/v1/requests/{requestID}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	id, err := requestIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	req, err := h.service.GetRequest(r.Context(), actor, id)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, req)
}
