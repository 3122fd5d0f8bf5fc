package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/config"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/notifier"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/expiry"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/inventory"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/reminder"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/scan"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/sweep"
)

type Deps struct {
	Storage      domain.KeyValueStorage
	Queue        taskqueue.TaskQueue
	Recorder     domain.SweepResultRecorder
	Metrics      *metrics.ReminderMetrics
	Reminder     *config.ReminderConfig
	Notification *config.NotificationConfig
	// Clock overrides time.Now. Tests only.
	Clock func() time.Time
}

// App is the application state: the inventory and every component acting on it.
// It is created once by the composition root and handed to the HTTP and CLI surfaces.
type App struct {
	store      *inventory.Store
	classifier *expiry.Classifier
	scheduler  *reminder.Scheduler
	sweeper    *sweep.Sweeper
	scanner    *scan.Service
	delivery   *notifier.Delivery
	reminder   *config.ReminderConfig
	now        func() time.Time
}

// ProductView is a product with its status at the time it was read.
type ProductView struct {
	domain.Product
	Status domain.Status `json:"status"`
}

// New wires the components and loads the persisted inventory.
func New(ctx context.Context, deps Deps) *App {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}

	reminderCfg := deps.Reminder
	classifier := expiry.NewClassifier(reminderCfg.WarningDays, reminderCfg.Location)

	store := inventory.NewStore(deps.Storage)
	store.Load(ctx)

	delivery := notifier.NewDelivery(deps.Queue, deps.Storage, deps.Notification.PermissionDefault)

	schedulerOpts := []reminder.Option{reminder.WithClock(now)}
	if deps.Metrics != nil {
		schedulerOpts = append(schedulerOpts, reminder.WithMetrics(deps.Metrics))
	}
	scheduler := reminder.NewScheduler(delivery, store, classifier, reminderCfg.LeadDays, schedulerOpts...)

	sweepOpts := []sweep.Option{sweep.WithClock(now)}
	if deps.Metrics != nil {
		sweepOpts = append(sweepOpts, sweep.WithMetrics(deps.Metrics))
	}
	if deps.Recorder != nil {
		sweepOpts = append(sweepOpts, sweep.WithRecorder(deps.Recorder))
	}
	sweeper := sweep.NewSweeper(store, classifier, scheduler, sweep.Config{
		Interval:   reminderCfg.SweepInterval,
		WindowDays: reminderCfg.WindowDays,
		LeadDays:   reminderCfg.LeadDays,
	}, sweepOpts...)

	scanner := scan.NewService(scan.NewCatalogRecognizer(reminderCfg.Location, now), store, deps.Storage)

	// An in-process queue starts empty; put back the reminders the inventory still records.
	if _, err := scheduler.RestorePending(ctx); err != nil {
		slog.WarnContext(ctx, "some pending reminders could not be restored",
			slog.String("error", err.Error()),
		)
	}

	return &App{
		store:      store,
		classifier: classifier,
		scheduler:  scheduler,
		sweeper:    sweeper,
		scanner:    scanner,
		delivery:   delivery,
		reminder:   reminderCfg,
		now:        now,
	}
}

// Start begins the periodic sweep when it is enabled.
func (a *App) Start(ctx context.Context) {
	if !a.reminder.SweepEnabled {
		slog.InfoContext(ctx, "periodic sweep disabled")
		return
	}
	a.sweeper.Start(ctx)
}

// Close stops the sweep and closes the store. Delivery calls already in flight are
// left to finish on their own.
func (a *App) Close() {
	a.sweeper.Stop()
	a.store.Close()
}

// DurableDelivery reports whether scheduled reminders outlive this process.
func (a *App) DurableDelivery() bool {
	return a.delivery.Durable()
}

// Ready is the inventory readiness probe.
func (a *App) Ready(context.Context) error {
	return a.store.Ready()
}

func (a *App) Classify(expiryDate civil.Date) domain.Status {
	return a.classifier.Classify(expiryDate, a.now())
}

func (a *App) view(p domain.Product, ref time.Time) ProductView {
	return ProductView{Product: p, Status: a.classifier.Classify(p.ExpiryDate, ref)}
}

func (a *App) ListProducts() []ProductView {
	ref := a.now()
	products := a.store.Products()
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, a.view(p, ref))
	}
	return views
}

func (a *App) GetProduct(id string) (ProductView, error) {
	p, ok := a.store.Product(id)
	if !ok {
		return ProductView{}, domain.ErrProductNotFound
	}
	return a.view(p, a.now()), nil
}

// AddProduct stores a new product. An empty ID is filled with a fresh UUID and the
// scheduled flag always starts false.
func (a *App) AddProduct(ctx context.Context, product domain.Product) (ProductView, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.NotificationScheduled = false

	if err := a.store.AddProduct(ctx, product); err != nil {
		return ProductView{}, err
	}
	return a.view(product, a.now()), nil
}

// UpdateProduct edits a product. Changing the expiry date drops its reminders in the same
// write so the next sweep can schedule against the new date. Withdrawing them from delivery
// is best effort and never fails the edit.
func (a *App) UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (ProductView, error) {
	edit, err := a.store.UpdateProduct(ctx, id, update)
	if err != nil {
		return ProductView{}, err
	}

	if len(edit.Detached) > 0 {
		n := a.scheduler.Withdraw(ctx, edit.Detached, "product_edit")
		slog.InfoContext(ctx, "expiry date changed, reminders cancelled",
			slog.String("product_id", id),
			slog.String("old_expiry", edit.Before.ExpiryDate.String()),
			slog.String("new_expiry", edit.After.ExpiryDate.String()),
			slog.Int("detached_count", len(edit.Detached)),
			slog.Int("withdrawn_count", n),
		)
	}

	return a.view(edit.After, a.now()), nil
}

// RemoveProduct deletes a product. Its reminders stay scheduled and can be cancelled separately.
func (a *App) RemoveProduct(ctx context.Context, id string) error {
	removed, err := a.store.RemoveProduct(ctx, id)
	if err != nil {
		return err
	}
	if removed.NotificationScheduled {
		slog.InfoContext(ctx, "product removed with an active reminder",
			slog.String("product_id", id),
		)
	}
	return nil
}

// ScheduleReminder schedules a reminder for one product. A negative leadDays uses the configured lead time.
func (a *App) ScheduleReminder(ctx context.Context, id string, leadDays int) (*domain.NotificationRecord, error) {
	p, ok := a.store.Product(id)
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return a.scheduler.Schedule(ctx, p, leadDays)
}

func (a *App) Reminders() []domain.NotificationRecord {
	return a.store.Notifications()
}

func (a *App) CancelReminder(ctx context.Context, handle string) error {
	return a.scheduler.Cancel(ctx, handle)
}

func (a *App) CancelAllReminders(ctx context.Context) (int, error) {
	return a.scheduler.CancelAll(ctx)
}

func (a *App) RunSweep(ctx context.Context) (*sweep.Result, error) {
	return a.sweeper.RunOnce(ctx)
}

func (a *App) Expiring() []sweep.ExpiringProduct {
	return a.sweeper.Expiring(a.now())
}

func (a *App) Cart() []domain.CartItem {
	return a.store.Cart()
}

func (a *App) AddToCart(ctx context.Context, productID string) (domain.CartItem, error) {
	return a.store.AddToCart(ctx, productID)
}

func (a *App) RemoveFromCart(ctx context.Context, productID string) error {
	return a.store.RemoveFromCart(ctx, productID)
}

func (a *App) Scan(ctx context.Context, capture scan.Capture) (ProductView, error) {
	p, err := a.scanner.Intake(ctx, capture)
	if err != nil {
		return ProductView{}, err
	}
	return a.view(p, a.now()), nil
}

func (a *App) SetPendingScan(ctx context.Context, capture scan.Capture) error {
	return a.scanner.SetPending(ctx, capture)
}

// ConsumePendingScan scans the pending capture, if there is one, and clears it.
func (a *App) ConsumePendingScan(ctx context.Context) (*ProductView, error) {
	capture, found, err := a.scanner.ConsumePending(ctx)
	if err != nil || !found {
		return nil, err
	}
	view, err := a.Scan(ctx, capture)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (a *App) Permission(ctx context.Context) (domain.PermissionStatus, error) {
	return a.delivery.RequestPermission(ctx)
}

func (a *App) SetPermission(ctx context.Context, status domain.PermissionStatus) error {
	if _, ok := domain.ParsePermissionStatus(string(status)); !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidPermission, status)
	}
	return a.delivery.SetPermission(ctx, status)
}
