package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/finbooks/ledger/internal/adapter/http/handler"
	"github.com/finbooks/ledger/internal/adapter/http/middleware"
	"github.com/finbooks/ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler        *handler.AccountHandler
	EntryHandler          *handler.EntryHandler
	ReconciliationHandler *handler.ReconciliationHandler
	LedgerHandler         *handler.LedgerHandler
	AuditHandler          *handler.AuditHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	IdempotencyTTL        time.Duration
	RateLimiter           *middleware.RateLimiter
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, ttl)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Delete("/{id}", cfg.AccountHandler.Deactivate)
		})

		// Ledger entries
		r.Route("/entries", func(r chi.Router) {
			r.Post("/", cfg.EntryHandler.Create)
			r.Get("/", cfg.EntryHandler.List)
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Patch("/{id}", cfg.EntryHandler.UpdateNarrative)
			r.Put("/{id}/lines", cfg.EntryHandler.ReplaceLines)
			r.Post("/{id}/post", cfg.EntryHandler.Post)
			r.Post("/{id}/reverse", cfg.EntryHandler.Reverse)
		})

		// Bank reconciliation
		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/candidates", cfg.ReconciliationHandler.Candidates)
			r.Post("/commit", cfg.ReconciliationHandler.Commit)
			r.Post("/auto", cfg.ReconciliationHandler.AutoReconcile)
		})

		// Ledger-wide checks
		r.Get("/ledger/consistency", cfg.LedgerHandler.Consistency)

		// Audit trail
		r.Get("/audit-logs", cfg.AuditHandler.List)
	})

	return r
}
