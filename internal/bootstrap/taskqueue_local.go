//go:build !gcloud

package bootstrap

import (
	"context"
	"log/slog"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/config"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/taskqueue"
)

// OpenTaskQueue returns the Primind Tasks client when PRIMIND_TASKS_URL is set and the
// in-process queue otherwise. The cleanup func is never nil.
func OpenTaskQueue(ctx context.Context, cfg *config.Config) (taskqueue.TaskQueue, func() error, error) {
	if cfg.TaskQueue.PrimindTasksURL == "" {
		slog.WarnContext(ctx, "PRIMIND_TASKS_URL not set, reminders fire from the in-process queue")

		q := taskqueue.NewLocalQueue(nil)
		return q, q.Close, nil
	}

	tq := taskqueue.NewPrimindTasksClient(
		cfg.TaskQueue.PrimindTasksURL,
		cfg.TaskQueue.QueueName,
		cfg.TaskQueue.MaxRetries,
	)

	slog.InfoContext(ctx, "task queue initialized",
		slog.String("type", "primind_tasks"),
		slog.String("url", cfg.TaskQueue.PrimindTasksURL),
		slog.String("queue", cfg.TaskQueue.QueueName),
	)

	return tq, func() error { return nil }, nil
}
