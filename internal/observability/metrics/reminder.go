package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	reminderMeterName = "expiry.reminder"
)

type ReminderMetrics struct {
	remindersScheduled metric.Int64Counter
	remindersCancelled metric.Int64Counter
	sweepRuns          metric.Int64Counter
	sweepProducts      metric.Int64Counter
	sweepDuration      metric.Float64Histogram
	scheduleDuration   metric.Float64Histogram
}

func NewReminderMetrics() (*ReminderMetrics, error) {
	meter := otel.Meter(reminderMeterName)

	remindersScheduled, err := meter.Int64Counter(
		"expiry_reminders_scheduled_total",
		metric.WithDescription("Total number of reminder scheduling attempts"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	remindersCancelled, err := meter.Int64Counter(
		"expiry_reminders_cancelled_total",
		metric.WithDescription("Total number of reminder cancellations"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	sweepRuns, err := meter.Int64Counter(
		"expiry_sweep_runs_total",
		metric.WithDescription("Total number of sweep passes"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	sweepProducts, err := meter.Int64Counter(
		"expiry_sweep_products_total",
		metric.WithDescription("Products evaluated by the sweep, by tier"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return nil, err
	}

	sweepDuration, err := meter.Float64Histogram(
		"expiry_sweep_duration_seconds",
		metric.WithDescription("Sweep pass duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	scheduleDuration, err := meter.Float64Histogram(
		"expiry_reminder_schedule_duration_seconds",
		metric.WithDescription("Time spent scheduling one reminder"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
		),
	)
	if err != nil {
		return nil, err
	}

	return &ReminderMetrics{
		remindersScheduled: remindersScheduled,
		remindersCancelled: remindersCancelled,
		sweepRuns:          sweepRuns,
		sweepProducts:      sweepProducts,
		sweepDuration:      sweepDuration,
		scheduleDuration:   scheduleDuration,
	}, nil
}

// RecordReminderScheduled counts one scheduling attempt by outcome.
func (m *ReminderMetrics) RecordReminderScheduled(ctx context.Context, outcome string) {
	m.remindersScheduled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *ReminderMetrics) RecordReminderCancelled(ctx context.Context, reason string) {
	m.remindersCancelled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func (m *ReminderMetrics) RecordSweepRun(ctx context.Context, outcome string, duration time.Duration) {
	m.sweepRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
	m.sweepDuration.Record(ctx, duration.Seconds())
}

func (m *ReminderMetrics) RecordSweepTier(ctx context.Context, tier string, count int) {
	if count == 0 {
		return
	}
	m.sweepProducts.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("tier", tier),
	))
}

func (m *ReminderMetrics) RecordScheduleDuration(ctx context.Context, duration time.Duration) {
	m.scheduleDuration.Record(ctx, duration.Seconds())
}
