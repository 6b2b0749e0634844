// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"finflow-requests/internal/api/handler"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Requests *handler.RequestHandler
	Accounts *handler.AccountHandler
	Admin    *handler.AdminHandler
}

// RouterConfig holds the settings the router needs beyond its handlers.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handler.Authenticate(cfg.JWTSecret, logger))

		r.Route("/account", func(r chi.Router) {
			r.Post("/", h.Accounts.OpenAccount)
			r.Get("/balance", h.Accounts.GetBalance)
			r.Get("/ledger", h.Accounts.ListLedger)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", h.Requests.ListRequests)
			r.Post("/deposits", h.Requests.CreateDeposit)
			r.Post("/withdrawals", h.Requests.CreateWithdrawal)
			r.Get("/{requestID}", h.Requests.GetRequest)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(handler.RequireAdmin(logger))

			r.Get("/requests/pending", h.Admin.ListPending)
			r.Post("/requests/{requestID}/approve", h.Admin.Approve)
			r.Post("/requests/{requestID}/reject", h.Admin.Reject)
			r.Get("/users/{userID}/requests", h.Admin.ListUserRequests)
			r.Get("/users/{userID}/balance", h.Admin.GetUserBalance)
			r.Post("/users/{userID}/account", h.Admin.OpenUserAccount)
			r.Post("/promo-codes", h.Admin.CreatePromoCode)
		})
	})

	return r
}
