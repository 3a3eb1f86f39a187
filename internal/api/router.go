package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/pulse-api/internal/api/middleware"
	"github.com/phrazzld/pulse-api/internal/api/shared"
	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/metrics"
	"github.com/phrazzld/pulse-api/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterConfig holds the router's dependencies. Gatherer and LoginLimiter
// are optional: without a Gatherer there is no /metrics route, and without
// a LoginLimiter logins are not rate limited.
type RouterConfig struct {
	Accounts service.AccountService
	Sessions service.SessionService
	Checks   service.CheckService

	Logger       *slog.Logger
	Recorder     metrics.Recorder
	Gatherer     prometheus.Gatherer
	LoginLimiter *middleware.RateLimiter
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	if cfg.Accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if cfg.Sessions == nil {
		return nil, domain.NewValidationError("sessions", "cannot be nil", domain.ErrValidation)
	}
	if cfg.Checks == nil {
		return nil, domain.NewValidationError("checks", "cannot be nil", domain.ErrValidation)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewTraceMiddleware(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Recorder))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NormalizeRequest)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	accountHandler := NewAccountHandler(cfg.Accounts)
	sessionHandler := NewSessionHandler(cfg.Sessions)
	checkHandler := NewCheckHandler(cfg.Checks)

	r.Post("/account", accountHandler.Create)
	r.Get("/account", accountHandler.Get)
	r.Put("/account", accountHandler.Update)
	r.Delete("/account", accountHandler.Delete)

	login := http.Handler(http.HandlerFunc(sessionHandler.Create))
	if cfg.LoginLimiter != nil {
		login = cfg.LoginLimiter.Middleware("/session")(login)
	}
	r.Method(http.MethodPost, "/session", login)
	r.Get("/session", sessionHandler.Get)
	r.Put("/session", sessionHandler.Extend)
	r.Delete("/session", sessionHandler.Delete)

	r.Post("/check", checkHandler.Create)
	r.Get("/check", checkHandler.Get)
	r.Put("/check", checkHandler.Update)
	r.Delete("/check", checkHandler.Delete)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			cfg.Logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))
	}

	return r, nil
}
