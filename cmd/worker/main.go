package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/colisnet/colisnet/internal/app"
	"github.com/colisnet/colisnet/internal/cases"
	jobmetrics "github.com/colisnet/colisnet/internal/jobs"
	"github.com/colisnet/colisnet/internal/payroll"
	"github.com/colisnet/colisnet/internal/platform/cache"
	"github.com/colisnet/colisnet/internal/platform/db"
	"github.com/colisnet/colisnet/internal/shared"
	"github.com/colisnet/colisnet/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var balanceCache *cases.BalanceCache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, balance cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		balanceCache = cases.NewBalanceCache(redisClient, cfg.BalanceCacheTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	audit := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)
	metrics := jobmetrics.NewMetrics(nil)

	caseService := cases.NewService(cases.NewRepository(pool), balanceCache, audit)
	payrollService := payroll.NewService(payroll.NewRepository(pool), audit)

	payrollTask, err := jobs.NewPayrollTask(jobs.PayrollPayload{})
	if err != nil {
		logger.Error("build payroll task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPayrollGenerate, Handler: jobs.NewPayrollHandler(payrollService, metrics, logger)},
			{Type: jobs.TaskSnapshotRefresh, Handler: jobs.NewSnapshotRefreshHandler(caseService, cfg.SnapshotConcurrent, metrics, logger)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(idempotency, cfg.IdempotencyMaxAge, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.PayrollCron, Task: payrollTask},
			{Spec: cfg.SnapshotCron, Task: jobs.NewSnapshotRefreshTask()},
			{Spec: cfg.IdempotencyCron, Task: jobs.NewIdempotencyCleanupTask()},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
