package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const reminderTracerName = "github.com/KasumiMercury/primind-expiry-reminder/internal/service/reminder"

func ReminderTracer() trace.Tracer {
	return otel.Tracer(reminderTracerName)
}

func StartSweepSpan(ctx context.Context, runID string, windowDays int) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "expiry.sweep",
		trace.WithAttributes(
			attribute.String("sweep.run_id", runID),
			attribute.Int("sweep.window_days", windowDays),
		),
	)
}

func StartScheduleSpan(ctx context.Context, productID string, leadDays int) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "expiry.reminder.schedule",
		trace.WithAttributes(
			attribute.String("product_id", productID),
			attribute.Int("reminder.lead_days", leadDays),
		),
	)
}

func StartCancelSpan(ctx context.Context, handle string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "expiry.reminder.cancel",
		trace.WithAttributes(
			attribute.String("notification_id", handle),
		),
	)
}

func StartExternalAPISpan(ctx context.Context, operation, url string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "expiry.external_api."+operation,
		trace.WithAttributes(
			attribute.String("url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordSweepResult(span trace.Span, evaluated, inWindow, scheduled, failed int, permissionDenied bool) {
	span.SetAttributes(
		attribute.Int("sweep.evaluated_count", evaluated),
		attribute.Int("sweep.in_window_count", inWindow),
		attribute.Int("sweep.scheduled_count", scheduled),
		attribute.Int("sweep.failed_count", failed),
		attribute.Bool("sweep.permission_denied", permissionDenied),
	)
	span.SetStatus(codes.Ok, "")
}

func RecordScheduleResult(span trace.Span, triggerAt time.Time, clamped bool, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("reminder.trigger_at", triggerAt.Format(time.RFC3339)),
		attribute.Bool("reminder.clamped", clamped),
	)
	span.SetStatus(codes.Ok, "")
}

func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// InjectHeaders writes the current trace context into outgoing request headers.
func InjectHeaders(ctx context.Context, header map[string][]string) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
}
