// internal/api/handler/account.go
package handler

import (
	"log/slog"
	"net/http"

	"finflow-requests/internal/service"
)

// AccountHandler serves the caller's balance and ledger.
type AccountHandler struct {
	responder
	service service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// OpenAccount creates the caller's zero balance.
// POST /api/v1/account
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	balance, err := h.service.OpenAccount(r.Context(), actor, actor.UserID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, balance)
}

// GetBalance returns the caller's balance.
// GET /api/v1/account/balance
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), actor, actor.UserID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, balance)
}

// ListLedger returns the caller's balance movements, newest first.
// GET /api/v1/account/ledger
func (h *AccountHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	limit, offset := pageParams(r)
	entries, total, err := h.service.ListLedger(r.Context(), actor, actor.UserID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, paginated(entries, limit, offset, total))
}
