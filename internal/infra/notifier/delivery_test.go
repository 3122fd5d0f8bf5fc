package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/kvstore"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/taskqueue"
)

func TestRequestPermission(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		stored   []byte
		fallback domain.PermissionStatus
		want     domain.PermissionStatus
	}{
		{name: "nothing stored uses default", fallback: domain.PermissionGranted, want: domain.PermissionGranted},
		{name: "stored denial wins", stored: []byte(`"denied"`), fallback: domain.PermissionGranted, want: domain.PermissionDenied},
		{name: "unknown value uses default", stored: []byte(`"maybe"`), fallback: domain.PermissionDenied, want: domain.PermissionDenied},
		{name: "corrupt value uses default", stored: []byte(`{`), fallback: domain.PermissionGranted, want: domain.PermissionGranted},
		{name: "invalid default becomes undetermined", fallback: "bogus", want: domain.PermissionUndetermined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := kvstore.NewMemoryStorage()
			if tt.stored != nil {
				if err := storage.Set(ctx, domain.StorageKeyPermission, tt.stored); err != nil {
					t.Fatalf("failed to seed storage: %v", err)
				}
			}

			d := NewDelivery(taskqueue.NewLocalQueue(nil), storage, tt.fallback)

			got, err := d.RequestPermission(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestPermission_StoresDefaultOnFirstLookup(t *testing.T) {
	ctx := context.Background()
	storage := kvstore.NewMemoryStorage()

	first := NewDelivery(taskqueue.NewLocalQueue(nil), storage, domain.PermissionDenied)
	if got, err := first.RequestPermission(ctx); err != nil || got != domain.PermissionDenied {
		t.Fatalf("got (%q, %v), want denied", got, err)
	}

	data, found, err := storage.Get(ctx, domain.StorageKeyPermission)
	if err != nil || !found {
		t.Fatalf("expected the default to be stored, found=%v err=%v", found, err)
	}
	if string(data) != `"denied"` {
		t.Errorf("stored %s, want %q", data, `"denied"`)
	}

	// A later default does not override the stored answer.
	second := NewDelivery(taskqueue.NewLocalQueue(nil), storage, domain.PermissionGranted)
	if got, err := second.RequestPermission(ctx); err != nil || got != domain.PermissionDenied {
		t.Errorf("got (%q, %v), want denied", got, err)
	}
}

func TestRequestPermission_DefaultStoreFailureStillAnswers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := domain.NewMockKeyValueStorage(ctrl)
	storage.EXPECT().Get(gomock.Any(), domain.StorageKeyPermission).Return(nil, false, nil)
	storage.EXPECT().
		Set(gomock.Any(), domain.StorageKeyPermission, []byte(`"granted"`)).
		Return(errors.New("read-only replica"))

	d := NewDelivery(taskqueue.NewLocalQueue(nil), storage, domain.PermissionGranted)

	got, err := d.RequestPermission(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != domain.PermissionGranted {
		t.Errorf("got %q, want granted", got)
	}
}

func TestSetPermission(t *testing.T) {
	ctx := context.Background()
	storage := kvstore.NewMemoryStorage()
	d := NewDelivery(taskqueue.NewLocalQueue(nil), storage, domain.PermissionGranted)

	if err := d.SetPermission(ctx, domain.PermissionDenied); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := d.RequestPermission(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != domain.PermissionDenied {
		t.Errorf("got %q, want denied", got)
	}
}

func TestRequestPermission_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := domain.NewMockKeyValueStorage(ctrl)
	storage.EXPECT().
		Get(gomock.Any(), domain.StorageKeyPermission).
		Return(nil, false, errors.New("connection refused"))

	d := NewDelivery(taskqueue.NewLocalQueue(nil), storage, domain.PermissionGranted)

	if _, err := d.RequestPermission(context.Background()); !errors.Is(err, domain.ErrStorageFailure) {
		t.Errorf("expected ErrStorageFailure, got %v", err)
	}
}

func TestScheduleAt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queue := taskqueue.NewMockTaskQueue(ctrl)
	d := NewDelivery(queue, kvstore.NewMemoryStorage(), domain.PermissionGranted)

	at := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	payload := &domain.NotificationPayload{
		ProductID:   "1",
		ProductName: "Fresh Milk",
		Title:       "Product Expiring Soon!",
		Body:        "Fresh Milk will expire in 2 days",
		Category:    domain.NotificationCategoryExpiry,
		Actions:     []string{domain.NotificationActionMarkUsed, domain.NotificationActionRemindLater},
	}

	var registered *taskqueue.NotificationTask
	queue.EXPECT().
		RegisterNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, task *taskqueue.NotificationTask) (*taskqueue.TaskResponse, error) {
			registered = task
			return &taskqueue.TaskResponse{Name: task.TaskID, ScheduleTime: task.ScheduleAt}, nil
		})

	handle, err := d.ScheduleAt(context.Background(), at, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(handle); err != nil {
		t.Errorf("expected uuid handle, got %q", handle)
	}
	if registered.TaskID != handle || !registered.ScheduleAt.Equal(at) {
		t.Errorf("unexpected task: %+v", registered)
	}
	if registered.Body != payload.Body || registered.Category != payload.Category || len(registered.Actions) != 2 {
		t.Errorf("payload not carried over: %+v", registered)
	}
}

func TestScheduleAt_QueueFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queue := taskqueue.NewMockTaskQueue(ctrl)
	queue.EXPECT().
		RegisterNotification(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("queue unavailable"))

	d := NewDelivery(queue, kvstore.NewMemoryStorage(), domain.PermissionGranted)

	handle, err := d.ScheduleAt(context.Background(), time.Now(), &domain.NotificationPayload{ProductID: "1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if handle != "" {
		t.Errorf("expected empty handle, got %q", handle)
	}
}

func TestCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queue := taskqueue.NewMockTaskQueue(ctrl)
	queue.EXPECT().DeleteTask(gomock.Any(), "task-1").Return(nil)

	d := NewDelivery(queue, kvstore.NewMemoryStorage(), domain.PermissionGranted)

	if err := d.Cancel(context.Background(), "task-1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRestore_ReregistersOnLocalQueue(t *testing.T) {
	ctx := context.Background()
	q := taskqueue.NewLocalQueue(nil)
	defer q.Close()

	d := NewDelivery(q, kvstore.NewMemoryStorage(), domain.PermissionGranted)
	if d.Durable() {
		t.Fatal("a local queue must not be reported durable")
	}

	payload := &domain.NotificationPayload{ProductID: "1", ProductName: "Milk", Title: "t", Body: "b"}
	at := time.Now().Add(time.Hour)

	restored, err := d.Restore(ctx, "handle-1", at, payload)
	if err != nil || !restored {
		t.Fatalf("got (%v, %v), want (true, nil)", restored, err)
	}
	if !q.Has("handle-1") {
		t.Error("expected the task to be registered under the original handle")
	}

	restored, err = d.Restore(ctx, "handle-1", at, payload)
	if err != nil || restored {
		t.Errorf("second restore: got (%v, %v), want (false, nil)", restored, err)
	}
	if n := q.Pending(); n != 1 {
		t.Errorf("expected 1 pending task, got %d", n)
	}
}

func TestRestore_DurableQueueUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := taskqueue.NewMockTaskQueue(ctrl)

	d := NewDelivery(q, kvstore.NewMemoryStorage(), domain.PermissionGranted)
	if !d.Durable() {
		t.Fatal("a remote queue must be reported durable")
	}

	restored, err := d.Restore(context.Background(), "handle-1", time.Now().Add(time.Hour), &domain.NotificationPayload{})
	if err != nil || restored {
		t.Errorf("got (%v, %v), want (false, nil)", restored, err)
	}
}
