//go:build gcloud

package bootstrap

import (
	"context"
	"log/slog"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/config"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/taskqueue"
)

func OpenTaskQueue(ctx context.Context, cfg *config.Config) (taskqueue.TaskQueue, func() error, error) {
	client, err := taskqueue.NewCloudTasksClient(ctx, taskqueue.CloudTasksConfig{
		ProjectID:  cfg.TaskQueue.GCloudProjectID,
		LocationID: cfg.TaskQueue.GCloudLocationID,
		QueueID:    cfg.TaskQueue.GCloudQueueID,
		TargetURL:  cfg.TaskQueue.GCloudTargetURL,
		Endpoint:   cfg.TaskQueue.GCloudEndpoint,
		MaxRetries: cfg.TaskQueue.MaxRetries,
	})
	if err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "task queue initialized",
		slog.String("type", "cloud_tasks"),
		slog.String("project", cfg.TaskQueue.GCloudProjectID),
		slog.String("location", cfg.TaskQueue.GCloudLocationID),
		slog.String("queue", cfg.TaskQueue.GCloudQueueID),
	)

	cleanup := func() error {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close cloud tasks client", slog.String("error", err.Error()))
			return err
		}
		return nil
	}

	return client, cleanup, nil
}
