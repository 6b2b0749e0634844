// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"finflow-requests/internal/api/types"
	"finflow-requests/internal/auth"
	"finflow-requests/internal/domain"
	"finflow-requests/internal/service"
	"finflow-requests/internal/util"
)

// DefaultTimeout bounds the handling of a single HTTP request.
const DefaultTimeout = 30 * time.Second

var errUnauthenticated = errors.New("authentication required")

// responder carries the JSON helpers shared by every handler.
type responder struct {
	logger *slog.Logger
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
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

// Helper function to send error responses.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	body := types.ErrorResponse{Error: "Internal server error"}

	if ve, ok := util.AsValidationError(err); ok {
		h.respondWithJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: ve.Error(), Field: ve.Field})
		return
	}

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		body.Error = err.Error()
	case util.IsError(err, errUnauthenticated), util.IsError(err, auth.ErrInvalidToken):
		statusCode = http.StatusUnauthorized
		body.Error = "Unauthorized"
	case util.IsError(err, util.ErrForbidden):
		statusCode = http.StatusForbidden
		body.Error = "Forbidden"
	case util.IsError(err, util.ErrAccountNotFound):
		statusCode = http.StatusNotFound
		body.Error = "Account not found"
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		body.Error = "Resource not found"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired
		body.Error = "Insufficient funds"
	case util.IsError(err, util.ErrAlreadyDecided):
		statusCode = http.StatusConflict
		body.Error = "Request already decided"
	case util.IsError(err, util.ErrDuplicateEntry):
		statusCode = http.StatusConflict
		body.Error = "Already exists"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, body)
}

// decodeBody reads a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	return decode(r, dst, false)
}

// decodeOptionalBody is decodeBody for endpoints whose body may be empty.
func decodeOptionalBody(r *http.Request, dst interface{}) error {
	return decode(r, dst, true)
}

func decode(r *http.Request, dst interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return util.NewValidationError("body", "malformed JSON: %v", err)
	}
	return nil
}

func actorFrom(r *http.Request) (domain.Actor, error) {
	actor, ok := domain.ActorFromContext(r.Context())
	if !ok {
		return domain.Actor{}, errUnauthenticated
	}
	return actor, nil
}

func requestIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		return uuid.Nil, util.NewValidationError("request_id", "must be a UUID")
	}
	return id, nil
}

func userIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.NewValidationError("user_id", "must be a positive integer")
	}
	return id, nil
}

// pageParams parses limit and offset query parameters and clamps them the way
// the services do, so responses report the page size actually served.
func pageParams(r *http.Request) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 0
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}
	return service.NormalizePage(limit, offset)
}

func paginated[T any](data []T, limit, offset int, total int64) types.PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return types.PaginatedResponse[T]{Data: data, Limit: limit, Offset: offset, TotalCount: total}
}
