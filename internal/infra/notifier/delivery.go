package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/taskqueue"
)

// Delivery schedules reminders as task queue tasks and gates them on a persisted
// permission status.
type Delivery struct {
	queue             taskqueue.TaskQueue
	storage           domain.KeyValueStorage
	defaultPermission domain.PermissionStatus
}

var _ domain.NotificationDelivery = (*Delivery)(nil)

func NewDelivery(queue taskqueue.TaskQueue, storage domain.KeyValueStorage, defaultPermission domain.PermissionStatus) *Delivery {
	if _, ok := domain.ParsePermissionStatus(string(defaultPermission)); !ok {
		defaultPermission = domain.PermissionUndetermined
	}
	return &Delivery{
		queue:             queue,
		storage:           storage,
		defaultPermission: defaultPermission,
	}
}

// RequestPermission returns the stored permission. The first lookup answers with the
// configured default and stores it, the way a device keeps the user's first prompt answer.
func (d *Delivery) RequestPermission(ctx context.Context) (domain.PermissionStatus, error) {
	data, found, err := d.storage.Get(ctx, domain.StorageKeyPermission)
	if err != nil {
		return "", fmt.Errorf("%w: load permission: %w", domain.ErrStorageFailure, err)
	}
	if !found {
		if err := d.SetPermission(ctx, d.defaultPermission); err != nil {
			slog.WarnContext(ctx, "failed to store default notification permission",
				slog.String("permission", string(d.defaultPermission)),
				slog.String("error", err.Error()),
			)
		}
		return d.defaultPermission, nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.WarnContext(ctx, "unreadable notification permission, using default",
			slog.String("error", err.Error()),
		)
		return d.defaultPermission, nil
	}

	status, ok := domain.ParsePermissionStatus(raw)
	if !ok {
		slog.WarnContext(ctx, "unknown notification permission, using default",
			slog.String("permission", raw),
		)
		return d.defaultPermission, nil
	}

	return status, nil
}

func (d *Delivery) SetPermission(ctx context.Context, status domain.PermissionStatus) error {
	data, err := json.Marshal(string(status))
	if err != nil {
		return fmt.Errorf("%w: encode permission: %w", domain.ErrStorageFailure, err)
	}
	if err := d.storage.Set(ctx, domain.StorageKeyPermission, data); err != nil {
		return fmt.Errorf("%w: save permission: %w", domain.ErrStorageFailure, err)
	}

	slog.InfoContext(ctx, "notification permission updated",
		slog.String("permission", string(status)),
	)
	return nil
}

// Durable reports whether scheduled reminders survive a restart of this process.
func (d *Delivery) Durable() bool {
	_, volatile := d.queue.(taskqueue.VolatileQueue)
	return !volatile
}

// Restore re-registers a recorded reminder under its existing handle when the queue is
// in-process and no longer holds it. Durable queues keep their tasks, so it does nothing.
func (d *Delivery) Restore(ctx context.Context, handle string, at time.Time, payload *domain.NotificationPayload) (bool, error) {
	volatile, ok := d.queue.(taskqueue.VolatileQueue)
	if !ok || volatile.Has(handle) {
		return false, nil
	}

	if _, err := d.queue.RegisterNotification(ctx, newTask(handle, at, payload)); err != nil {
		if errors.Is(err, taskqueue.ErrTaskAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ScheduleAt registers a task for at and returns its ID as the reminder handle.
func (d *Delivery) ScheduleAt(ctx context.Context, at time.Time, payload *domain.NotificationPayload) (string, error) {
	task := newTask(uuid.NewString(), at, payload)

	if _, err := d.queue.RegisterNotification(ctx, task); err != nil {
		return "", err
	}

	return task.TaskID, nil
}

// Cancel deletes the task behind handle. Tasks that already fired or never existed
// are treated as cancelled.
func (d *Delivery) Cancel(ctx context.Context, handle string) error {
	return d.queue.DeleteTask(ctx, handle)
}

func newTask(id string, at time.Time, payload *domain.NotificationPayload) *taskqueue.NotificationTask {
	return &taskqueue.NotificationTask{
		TaskID:      id,
		ScheduleAt:  at,
		ProductID:   payload.ProductID,
		ProductName: payload.ProductName,
		Title:       payload.Title,
		Body:        payload.Body,
		Category:    payload.Category,
		Actions:     payload.Actions,
	}
}
