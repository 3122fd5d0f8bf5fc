//go:build !gcloud

package sweeprecorder

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.SweepResultRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "sweep result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, sweep result recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	slog.InfoContext(ctx, "sweep result recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: writeAPI,
	}, nil
}

func (r *influxDBRecorder) RecordSweepResult(ctx context.Context, record domain.SweepResultRecord) error {
	fields := map[string]any{
		"evaluated_count":   record.EvaluatedCount,
		"in_window_count":   record.InWindowCount,
		"scheduled_count":   record.ScheduledCount,
		"already_scheduled": record.AlreadyScheduled,
		"failed_count":      record.FailedCount,
		"permission_denied": record.PermissionDenied,
		"duration_ms":       record.Duration.Milliseconds(),
	}
	for tier, count := range record.TierCounts {
		fields["tier_"+tier.String()] = count
	}

	point := influxdb2.NewPoint(
		"sweep_result",
		map[string]string{
			"run_id": record.RunID,
		},
		fields,
		record.StartedAt,
	)

	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		slog.WarnContext(ctx, "failed to write sweep result to InfluxDB",
			slog.String("run_id", record.RunID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to write sweep result: %w", err)
	}

	return nil
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
