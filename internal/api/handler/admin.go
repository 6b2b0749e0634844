// internal/api/handler/admin.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finflow-requests/internal/service"
)

// AdminHandler handles the review queue and the admin views of users.
type AdminHandler struct {
	responder
	requests service.RequestService
	accounts service.AccountService
	promos   service.PromoService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	requests service.RequestService,
	accounts service.AccountService,
	promos service.PromoService,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		responder: responder{logger: logger},
		requests:  requests,
		accounts:  accounts,
		promos:    promos,
	}
}

// DecisionRequest represents the request body for approve and reject.
// Reason is ignored on approval.
type DecisionRequest struct {
	AdminNote string `json:"admin_note"`
	Reason    string `json:"reason"`
}

// PromoCodeRequest represents the request body for registering a promo code.
type PromoCodeRequest struct {
	Code      string          `json:"code"`
	Percent   decimal.Decimal `json:"percent"`
	ExpiresAt *time.Time      `json:"expires_at"`
}

// ListPending lists pending requests, oldest first.
// GET /api/v1/admin/requests/pending
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	limit, offset := pageParams(r)
	requests, total, err := h.requests.ListPending(r.Context(), actor, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, paginated(requests, limit, offset, total))
}

// Approve handles request approval.
// POST /api/v1/admin/requests/{requestID}/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

// Reject handles request rejection.
// POST /api/v1/admin/requests/{requestID}/reject
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *AdminHandler) decide(w http.ResponseWriter, r *http.Request, reject bool) {
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

	var body DecisionRequest
	if err := decodeOptionalBody(r, &body); err != nil {
		h.respondWithError(w, err)
		return
	}

	if reject {
		req, err := h.requests.Reject(r.Context(), actor, id, body.AdminNote, body.Reason)
		if err != nil {
			h.respondWithError(w, err)
			return
		}
		h.respondWithJSON(w, http.StatusOK, req)
		return
	}

	req, err := h.requests.Approve(r.Context(), actor, id, body.AdminNote)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, req)
}

// ListUserRequests lists any user's requests.
// GET /api/v1/admin/users/{userID}/requests
func (h *AdminHandler) ListUserRequests(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	userID, err := userIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	limit, offset := pageParams(r)
	requests, total, err := h.requests.ListUserRequests(r.Context(), actor, userID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, paginated(requests, limit, offset, total))
}

// GetUserBalance returns any user's balance.
// GET /api/v1/admin/users/{userID}/balance
func (h *AdminHandler) GetUserBalance(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	userID, err := userIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	balance, err := h.accounts.GetBalance(r.Context(), actor, userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, balance)
}

// OpenUserAccount creates a zero balance for any user.
// POST /api/v1/admin/users/{userID}/account
func (h *AdminHandler) OpenUserAccount(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	userID, err := userIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	balance, err := h.accounts.OpenAccount(r.Context(), actor, userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, balance)
}

// CreatePromoCode registers a promo code.
// POST /api/v1/admin/promo-codes
func (h *AdminHandler) CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req PromoCodeRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	promo, err := h.promos.CreatePromoCode(r.Context(), actor, req.Code, req.Percent, req.ExpiresAt)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, promo)
}
