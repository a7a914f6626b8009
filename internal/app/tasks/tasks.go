// Package tasks implements the scheduled maintenance tasks of the bot manager.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/botmanager/internal/bots"
	"github.com/edgard/botmanager/internal/database"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Bots   *bots.Service
}

// RegisterAllTasks returns the registered tasks keyed by the name used in the
// scheduler.tasks configuration section.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks["sql_maintenance"] = newSQLMaintenanceTask(deps)
	tasks["webhook_audit"] = newWebhookAuditTask(deps)

	deps.Logger.Debug("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

// newSQLMaintenanceTask creates the scheduled task function for running database maintenance.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		startTime := time.Now()

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance task completed", "duration", time.Since(startTime))
		return nil
	}
}

// newWebhookAuditTask checks every stored bot's webhook against the platform.
func newWebhookAuditTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "webhook_audit")

	return func(ctx context.Context) error {
		result, err := deps.Bots.Audit(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Webhook audit task failed", "error", err)
			return fmt.Errorf("webhook audit failed: %w", err)
		}
		if len(result.Mismatched) > 0 || len(result.Failing) > 0 {
			log.WarnContext(ctx, "Webhook audit found problems",
				"mismatched", result.Mismatched,
				"misrouted", result.Misrouted,
				"failing", result.Failing)
		}
		return nil
	}
}
