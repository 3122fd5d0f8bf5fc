//go:build gcloud

package sweeprecorder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

type bigQueryRecord struct {
	RecordedAt       time.Time `bigquery:"recorded_at"`
	RunID            string    `bigquery:"run_id"`
	StartedAt        time.Time `bigquery:"started_at"`
	DurationMs       int64     `bigquery:"duration_ms"`
	EvaluatedCount   int64     `bigquery:"evaluated_count"`
	InWindowCount    int64     `bigquery:"in_window_count"`
	ScheduledCount   int64     `bigquery:"scheduled_count"`
	AlreadyScheduled int64     `bigquery:"already_scheduled"`
	FailedCount      int64     `bigquery:"failed_count"`
	PermissionDenied bool      `bigquery:"permission_denied"`
	FreshCount       int64     `bigquery:"fresh_count"`
	WarningCount     int64     `bigquery:"warning_count"`
	ExpiredCount     int64     `bigquery:"expired_count"`
}

type bigQueryRecorder struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.SweepResultRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "sweep result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, sweep result recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, sweep result recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	inserter := client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable).Inserter()

	slog.InfoContext(ctx, "sweep result recorder initialized",
		slog.String("type", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("table", cfg.BigQueryTable),
	)

	return &bigQueryRecorder{
		client:   client,
		inserter: inserter,
	}, nil
}

func (r *bigQueryRecorder) RecordSweepResult(ctx context.Context, record domain.SweepResultRecord) error {
	row := &bigQueryRecord{
		RecordedAt:       time.Now(),
		RunID:            record.RunID,
		StartedAt:        record.StartedAt,
		DurationMs:       record.Duration.Milliseconds(),
		EvaluatedCount:   int64(record.EvaluatedCount),
		InWindowCount:    int64(record.InWindowCount),
		ScheduledCount:   int64(record.ScheduledCount),
		AlreadyScheduled: int64(record.AlreadyScheduled),
		FailedCount:      int64(record.FailedCount),
		PermissionDenied: record.PermissionDenied,
		FreshCount:       int64(record.TierCounts[domain.TierFresh]),
		WarningCount:     int64(record.TierCounts[domain.TierWarning]),
		ExpiredCount:     int64(record.TierCounts[domain.TierExpired]),
	}

	if err := r.inserter.Put(ctx, row); err != nil {
		slog.WarnContext(ctx, "failed to insert sweep result to BigQuery",
			slog.String("run_id", record.RunID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to insert sweep result: %w", err)
	}

	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
