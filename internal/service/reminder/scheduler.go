package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/observability/tracing"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/expiry"
)

const (
	DefaultLeadDays = 2

	NotificationTitle = "Product Expiring Soon!"
)

// NotificationStore is the part of the inventory the scheduler writes handles into.
type NotificationStore interface {
	AttachNotification(ctx context.Context, record domain.NotificationRecord) error
	DetachNotification(ctx context.Context, handle string) (domain.NotificationRecord, error)
	Notifications() []domain.NotificationRecord
	NotificationsForProduct(productID string) []domain.NotificationRecord
}

type Scheduler struct {
	delivery   domain.NotificationDelivery
	store      NotificationStore
	classifier *expiry.Classifier
	leadDays   int
	metrics    *metrics.ReminderMetrics
	now        func() time.Time
}

type Option func(*Scheduler)

func WithMetrics(m *metrics.ReminderMetrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func NewScheduler(
	delivery domain.NotificationDelivery,
	store NotificationStore,
	classifier *expiry.Classifier,
	leadDays int,
	opts ...Option,
) *Scheduler {
	if leadDays < 0 {
		leadDays = DefaultLeadDays
	}
	s := &Scheduler{
		delivery:   delivery,
		store:      store,
		classifier: classifier,
		leadDays:   leadDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) LeadDays() int {
	return s.leadDays
}

// TriggerTime is midnight of the calendar day leadDays before expiry.
func (s *Scheduler) TriggerTime(product domain.Product, leadDays int) time.Time {
	return s.classifier.Midnight(product.ExpiryDate.AddDays(-leadDays))
}

// Schedule asks the delivery subsystem for a reminder ahead of the product's expiry and
// records the returned handle. A negative leadDays selects the configured default.
// Triggers already in the past fire immediately.
func (s *Scheduler) Schedule(ctx context.Context, product domain.Product, leadDays int) (*domain.NotificationRecord, error) {
	if leadDays < 0 {
		leadDays = s.leadDays
	}

	ctx, span := tracing.StartScheduleSpan(ctx, product.ID, leadDays)
	defer span.End()

	start := s.now()
	record, clamped, err := s.schedule(ctx, product, leadDays)
	if s.metrics != nil {
		s.metrics.RecordReminderScheduled(ctx, scheduleOutcome(err))
		s.metrics.RecordScheduleDuration(ctx, s.now().Sub(start))
	}
	if err != nil {
		tracing.RecordScheduleResult(span, time.Time{}, false, err)
		return nil, err
	}
	tracing.RecordScheduleResult(span, record.TriggerAt, clamped, nil)

	return record, nil
}

func (s *Scheduler) schedule(ctx context.Context, product domain.Product, leadDays int) (*domain.NotificationRecord, bool, error) {
	status, err := s.delivery.RequestPermission(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query notification permission",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("%w: permission lookup: %w", domain.ErrSchedulingFailed, err)
	}
	if !status.IsGranted() {
		slog.WarnContext(ctx, "notification permission not granted",
			slog.String("product_id", product.ID),
			slog.String("permission", string(status)),
		)
		return nil, false, domain.ErrPermissionDenied
	}

	if product.NotificationScheduled {
		return nil, false, domain.ErrReminderAlreadyScheduled
	}

	now := s.now()
	trigger := s.TriggerTime(product, leadDays)
	clamped := false
	if trigger.Before(now) {
		slog.InfoContext(ctx, "reminder trigger already passed, firing immediately",
			slog.String("product_id", product.ID),
			slog.Time("trigger_at", trigger),
		)
		trigger = now
		clamped = true
	}

	payload := s.payloadFor(product, trigger)

	handle, err := s.delivery.ScheduleAt(ctx, trigger, payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to schedule reminder",
			slog.String("product_id", product.ID),
			slog.Time("trigger_at", trigger),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("%w: %w", domain.ErrSchedulingFailed, err)
	}

	record := domain.NotificationRecord{
		ID:          handle,
		ProductID:   product.ID,
		ProductName: product.Name,
		ExpiryDate:  product.ExpiryDate,
		TriggerAt:   trigger,
		ScheduledAt: now,
	}

	if err := s.store.AttachNotification(ctx, record); err != nil {
		slog.WarnContext(ctx, "failed to record reminder, cancelling delivery",
			slog.String("product_id", product.ID),
			slog.String("notification_id", handle),
			slog.String("error", err.Error()),
		)
		if cerr := s.delivery.Cancel(ctx, handle); cerr != nil {
			slog.WarnContext(ctx, "failed to cancel orphaned reminder",
				slog.String("notification_id", handle),
				slog.String("error", cerr.Error()),
			)
		}
		return nil, false, err
	}

	slog.InfoContext(ctx, "reminder scheduled",
		slog.String("product_id", product.ID),
		slog.String("notification_id", handle),
		slog.Time("trigger_at", trigger),
		slog.Bool("clamped", clamped),
	)

	return &record, clamped, nil
}

func (s *Scheduler) payloadFor(product domain.Product, trigger time.Time) *domain.NotificationPayload {
	days := s.classifier.DaysUntilExpiry(product.ExpiryDate, trigger)

	return &domain.NotificationPayload{
		ProductID:   product.ID,
		ProductName: product.Name,
		Title:       NotificationTitle,
		Body:        ReminderBody(product.Name, days),
		Category:    domain.NotificationCategoryExpiry,
		Actions: []string{
			domain.NotificationActionMarkUsed,
			domain.NotificationActionRemindLater,
		},
	}
}

// ReminderBody phrases the notification text for a product expiring in days, counted
// from the moment the reminder fires.
func ReminderBody(name string, days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("%s has expired", name)
	case days == 0:
		return fmt.Sprintf("%s expires today", name)
	case days == 1:
		return fmt.Sprintf("%s will expire tomorrow", name)
	default:
		return fmt.Sprintf("%s will expire in %d days", name, days)
	}
}

// Cancel withdraws the reminder behind handle and forgets it. Unknown handles are not an error.
func (s *Scheduler) Cancel(ctx context.Context, handle string) error {
	ctx, span := tracing.StartCancelSpan(ctx, handle)
	defer span.End()

	err := s.cancel(ctx, handle, "manual")
	tracing.RecordError(span, err)
	return err
}

// Withdraw cancels delivery of records the store has already dropped. Failures are
// logged and skipped; it returns how many were withdrawn.
func (s *Scheduler) Withdraw(ctx context.Context, records []domain.NotificationRecord, reason string) int {
	withdrawn := 0
	for _, r := range records {
		if err := s.delivery.Cancel(ctx, r.ID); err != nil && !errors.Is(err, domain.ErrNotificationNotFound) {
			slog.WarnContext(ctx, "failed to withdraw reminder, it may still fire",
				slog.String("notification_id", r.ID),
				slog.String("product_id", r.ProductID),
				slog.String("reason", reason),
				slog.String("error", err.Error()),
			)
			continue
		}
		withdrawn++
		if s.metrics != nil {
			s.metrics.RecordReminderCancelled(ctx, reason)
		}
	}
	return withdrawn
}

// Restorer is implemented by deliveries whose pending reminders do not survive a restart.
// Restore re-submits one reminder under its existing handle and reports whether it did.
type Restorer interface {
	Restore(ctx context.Context, handle string, at time.Time, payload *domain.NotificationPayload) (bool, error)
}

// RestorePending re-submits every recorded reminder whose trigger is still ahead when the
// delivery does not keep reminders across restarts. Records whose trigger has passed are
// treated as delivered.
func (s *Scheduler) RestorePending(ctx context.Context) (int, error) {
	restorer, ok := s.delivery.(Restorer)
	if !ok {
		return 0, nil
	}

	now := s.now()
	var errs []error
	restored := 0
	for _, r := range s.store.Notifications() {
		if !r.TriggerAt.After(now) {
			continue
		}

		p := domain.Product{ID: r.ProductID, Name: r.ProductName, ExpiryDate: r.ExpiryDate}
		if p.Name == "" {
			p.Name = "A product"
		}

		ok, err := restorer.Restore(ctx, r.ID, r.TriggerAt, s.payloadFor(p, r.TriggerAt))
		if err != nil {
			slog.ErrorContext(ctx, "failed to restore reminder",
				slog.String("notification_id", r.ID),
				slog.String("product_id", r.ProductID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%w: restore %s: %w", domain.ErrSchedulingFailed, r.ID, err))
			continue
		}
		if ok {
			restored++
		}
	}

	if restored > 0 {
		slog.InfoContext(ctx, "pending reminders restored",
			slog.Int("restored_count", restored),
		)
	}

	return restored, errors.Join(errs...)
}

// CancelAll cancels every recorded reminder.
func (s *Scheduler) CancelAll(ctx context.Context) (int, error) {
	records := s.store.Notifications()

	var errs []error
	cancelled := 0
	for _, r := range records {
		if err := s.cancel(ctx, r.ID, "clear_all"); err != nil {
			errs = append(errs, err)
			continue
		}
		cancelled++
	}

	return cancelled, errors.Join(errs...)
}

func (s *Scheduler) cancel(ctx context.Context, handle, reason string) error {
	if err := s.delivery.Cancel(ctx, handle); err != nil && !errors.Is(err, domain.ErrNotificationNotFound) {
		slog.ErrorContext(ctx, "failed to cancel reminder",
			slog.String("notification_id", handle),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: cancel %s: %w", domain.ErrSchedulingFailed, handle, err)
	}

	record, err := s.store.DetachNotification(ctx, handle)
	if errors.Is(err, domain.ErrNotificationNotFound) {
		slog.DebugContext(ctx, "reminder already gone",
			slog.String("notification_id", handle),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordReminderCancelled(ctx, reason)
	}

	slog.InfoContext(ctx, "reminder cancelled",
		slog.String("notification_id", handle),
		slog.String("product_id", record.ProductID),
		slog.String("reason", reason),
	)

	return nil
}

func scheduleOutcome(err error) string {
	switch {
	case err == nil:
		return "scheduled"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, domain.ErrReminderAlreadyScheduled):
		return "already_scheduled"
	default:
		return "failed"
	}
}
