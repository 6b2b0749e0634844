// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	router "finflow-requests/internal/api"
	"finflow-requests/internal/api/handler"
	"finflow-requests/internal/bonus"
	"finflow-requests/internal/config"
	"finflow-requests/internal/notify"
	"finflow-requests/internal/repository"
	"finflow-requests/internal/repository/sqlstore"
	"finflow-requests/internal/service"
	"finflow-requests/internal/util"
	"finflow-requests/pkg/db"
)

const notifyTimeout = 5 * time.Second

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	BalanceRepository repository.BalanceRepository
	RequestRepository repository.RequestRepository
	LedgerRepository  repository.LedgerEntryRepository
	PromoRepository   repository.PromoCodeRepository

	// Notifications
	Emitter    notify.Emitter
	Dispatcher *notify.Dispatcher
	redis      *notify.RedisEmitter

	// Services
	AccountService service.AccountService
	PromoService   service.PromoService
	RequestService service.RequestService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.Open(ctx, app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.", "driver", app.Config.DB.Driver)

	// 4. Initialize Repositories
	app.BalanceRepository = sqlstore.NewBalanceRepository()
	app.RequestRepository = sqlstore.NewRequestRepository()
	app.LedgerRepository = sqlstore.NewLedgerEntryRepository()
	app.PromoRepository = sqlstore.NewPromoCodeRepository()
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Notifications
	app.initEmitter(ctx)
	app.Dispatcher = notify.NewDispatcher(app.Emitter, app.Logger, app.Config.NotifyBuffer, notifyTimeout)

	// 6. Initialize Services
	app.AccountService = service.NewAccountService(app.DB, app.BalanceRepository, app.LedgerRepository, app.Logger)
	app.PromoService = service.NewPromoService(app.DB, app.PromoRepository, app.Logger)
	app.RequestService = service.NewRequestService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.BalanceRepository,
		app.RequestRepository,
		app.LedgerRepository,
		bonus.NewCalculator(app.PromoService, app.Config.MaxBonusPercent),
		app.Dispatcher,
		app.Logger,
		service.RequestOptions{PromoStrict: app.Config.PromoStrict},
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	app.HTTPHandler = router.NewRouter(router.Handlers{
		Requests: handler.NewRequestHandler(app.RequestService, app.Logger),
		Accounts: handler.NewAccountHandler(app.AccountService, app.Logger),
		Admin:    handler.NewAdminHandler(app.RequestService, app.AccountService, app.PromoService, app.Logger),
	}, router.RouterConfig{
		JWTSecret:      app.Config.JWTSecret,
		AllowedOrigins: app.Config.CORSAllowedOrigins,
	}, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// initEmitter publishes to Redis when configured, and to the log otherwise.
// An unreachable Redis is logged but not fatal: delivery is best effort.
func (app *Application) initEmitter(ctx context.Context) {
	if app.Config.Redis.Addr == "" {
		app.Emitter = notify.NewLogEmitter(app.Logger)
		app.Logger.Info("Notifications go to the log; REDIS_ADDR not set.")
		return
	}

	app.redis = notify.NewRedisEmitter(notify.NewRedisClient(app.Config.Redis), "")
	app.Emitter = app.redis

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := app.redis.Ping(pingCtx); err != nil {
		app.Logger.Warn("Redis not reachable, notifications may be lost", "addr", app.Config.Redis.Addr, "error", err)
		return
	}
	app.Logger.Info("Redis notification emitter connected.", "addr", app.Config.Redis.Addr)
}

// Shutdown gracefully shuts down application resources.
// The dispatcher must have stopped before it is called.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.Logger.Error("Failed to close Redis client", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
