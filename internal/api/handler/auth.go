// internal/api/handler/auth.go
package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"finflow-requests/internal/auth"
	"finflow-requests/internal/domain"
	"finflow-requests/internal/util"
)

// Authenticate validates the bearer token and stores the caller's domain.Actor
// in the request context.
func Authenticate(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	h := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				h.respondWithError(w, errUnauthenticated)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				logger.Debug("Token rejected", "error", err, "remote_addr", r.RemoteAddr)
				h.respondWithError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithActor(r.Context(), claims.Actor())))
		})
	}
}

// RequireAdmin rejects callers whose role is not admin. It must run after Authenticate.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	h := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := actorFrom(r)
			if err != nil {
				h.respondWithError(w, err)
				return
			}
			if !actor.IsAdmin() {
				h.respondWithError(w, util.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
