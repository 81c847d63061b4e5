package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/colisnet/colisnet/internal/cases"
	jobmetrics "github.com/colisnet/colisnet/internal/jobs"
	"github.com/colisnet/colisnet/internal/payroll"
	"github.com/colisnet/colisnet/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPayrollGenerate creates the monthly salary and commission payments.
	TaskPayrollGenerate = "payroll:generate-monthly"
	// TaskSnapshotRefresh recomputes every money-case balance snapshot.
	TaskSnapshotRefresh = "cases:refresh-snapshots"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// PayrollPayload parameterises a payroll run. An empty period means the
// month before the run.
type PayrollPayload struct {
	Period string `json:"period"`
}

// NewPayrollTask constructs the monthly payroll task.
func NewPayrollTask(payload PayrollPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayrollGenerate, data), nil
}

// NewSnapshotRefreshTask constructs the snapshot refresh task.
func NewSnapshotRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskSnapshotRefresh, nil)
}

// NewIdempotencyCleanupTask constructs the idempotency cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// previousPeriod formats the calendar month before now. Anchoring on the
// first of the month keeps AddDate from spilling past short months when the
// run date is the 29th or later.
func previousPeriod(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0).Format("2006-01")
}

// NewPayrollHandler runs monthly payroll generation.
func NewPayrollHandler(svc *payroll.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("payroll_generate")
		var payload PayrollPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				_ = tracker.End(err)
				return asynq.SkipRetry
			}
		}
		period := payload.Period
		if period == "" {
			period = previousPeriod(time.Now().UTC())
		}
		result, err := svc.GenerateMonthly(ctx, period)
		if err != nil {
			logger.Error("payroll generation", slog.String("period", period), slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("payroll generated",
			slog.String("period", result.Period),
			slog.Int("salaries", result.SalariesCreated),
			slog.Int("commissions", result.CommissionsCreated))
		return tracker.End(nil)
	}
}

// NewSnapshotRefreshHandler recomputes all case balance snapshots.
func NewSnapshotRefreshHandler(svc *cases.Service, concurrency int, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("snapshot_refresh")
		if err := svc.RefreshAll(ctx, concurrency); err != nil {
			logger.Error("snapshot refresh", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("case snapshots refreshed")
		return tracker.End(nil)
	}
}

// NewIdempotencyCleanupHandler prunes stale idempotency keys.
func NewIdempotencyCleanupHandler(store *shared.IdempotencyStore, maxAge time.Duration, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("idempotency_cleanup")
		if err := store.Cleanup(ctx, maxAge); err != nil {
			logger.Error("idempotency cleanup", slog.Any("error", err))
			return tracker.End(err)
		}
		return tracker.End(nil)
	}
}
