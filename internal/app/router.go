package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/colisnet/colisnet/internal/cases"
	"github.com/colisnet/colisnet/internal/collections"
	"github.com/colisnet/colisnet/internal/expenses"
	"github.com/colisnet/colisnet/internal/observability"
	"github.com/colisnet/colisnet/internal/parcels"
	"github.com/colisnet/colisnet/internal/payroll"
	"github.com/colisnet/colisnet/internal/recoltes"
	"github.com/colisnet/colisnet/internal/reports"
	"github.com/colisnet/colisnet/internal/settlement"
	"github.com/colisnet/colisnet/internal/shared"
	"github.com/colisnet/colisnet/internal/transfers"
	"github.com/colisnet/colisnet/internal/users"
	"github.com/colisnet/colisnet/jobs"
)

// RouterDeps aggregates everything the HTTP surface needs.
type RouterDeps struct {
	Config  *Config
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
	// Jobs is optional; when set the queue-health and admin enqueue
	// endpoints are mounted under /api/v1/jobs.
	Jobs *jobs.Handler
}

// NewRouter assembles the full API.
func NewRouter(deps RouterDeps) (*chi.Mux, error) {
	cfg := deps.Config
	logger := deps.Logger

	stopdesk, err := cfg.StopdeskRate()
	if err != nil {
		return nil, err
	}
	home, err := cfg.HomeDeliveryRate()
	if err != nil {
		return nil, err
	}
	rates := collections.Rates{Stopdesk: stopdesk, HomeDelivery: home}

	audit := shared.NewAuditLogger(deps.Pool)
	idempotency := shared.NewIdempotencyStore(deps.Pool)

	var balanceCache *cases.BalanceCache
	if deps.Redis != nil {
		balanceCache = cases.NewBalanceCache(deps.Redis, cfg.BalanceCacheTTL)
	}

	caseService := cases.NewService(cases.NewRepository(deps.Pool), balanceCache, audit)
	parcelService := parcels.NewService(parcels.NewRepository(deps.Pool))
	collectionService := collections.NewService(collections.NewRepository(deps.Pool), rates, audit)
	recolteService := recoltes.NewService(recoltes.NewRepository(deps.Pool), audit, idempotency)
	expenseService := expenses.NewService(expenses.NewRepository(deps.Pool), audit)
	payrollService := payroll.NewService(payroll.NewRepository(deps.Pool), audit)
	transferService := transfers.NewService(transfers.NewRepository(deps.Pool), audit)
	settlementService := settlement.NewService(settlement.NewRepository(deps.Pool), rates, audit)
	userService := users.NewService(users.NewRepository(deps.Pool))
	reportService := reports.NewService(reports.NewRepository(deps.Pool))

	verifyLimit := httprate.Limit(cfg.VerifyRatePerMin, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))

	r := chi.NewRouter()
	r.Use(MiddlewareStack(MiddlewareConfig{Logger: logger, Config: cfg, Metrics: deps.Metrics})...)

	r.Get("/healthz", healthz(deps.Pool))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	userHandler := users.NewHandler(logger, userService)

	// the gateway checks credentials before any actor headers exist
	r.Post("/internal/credential-checks", userHandler.VerifyCredentials)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ActorMiddleware(logger))
		r.Route("/users", userHandler.MountRoutes)
		r.Route("/parcels", parcels.NewHandler(logger, parcelService).MountRoutes)
		r.Route("/collections", collections.NewHandler(logger, collectionService, deps.Metrics).MountRoutes)
		r.Route("/cases", cases.NewHandler(logger, caseService).MountRoutes)
		r.Route("/recoltes", recoltes.NewHandler(logger, recolteService, deps.Metrics).MountRoutes)
		r.Route("/expenses", expenses.NewHandler(logger, expenseService).MountRoutes)
		r.Route("/payroll", payroll.NewHandler(logger, payrollService).MountRoutes)
		r.Route("/transfers", func(r chi.Router) {
			transfers.NewHandler(logger, transferService, deps.Metrics).MountRoutes(r, verifyLimit)
		})
		r.Route("/settlements", settlement.NewHandler(logger, settlementService).MountRoutes)
		r.Route("/reports", reports.NewHandler(logger, reportService).MountRoutes)
		if deps.Jobs != nil {
			r.Route("/jobs", deps.Jobs.MountRoutes)
		}
	})

	return r, nil
}

func healthz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
