package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/kvstore"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/inventory"
)

var captureTime = time.Date(2026, time.October, 15, 18, 30, 0, 0, time.UTC)

func newRecognizer() *CatalogRecognizer {
	return NewCatalogRecognizer(time.UTC, func() time.Time { return captureTime })
}

func TestCatalogRecognizer_Deterministic(t *testing.T) {
	r := newRecognizer()
	ctx := context.Background()

	first, err := r.Recognize(ctx, Capture{ImageRef: "file:///photos/IMG_0042.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Recognize(ctx, Capture{ImageRef: "file:///photos/IMG_0042.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("expected identical recognitions, got %+v and %+v", first, second)
	}

	today := civil.Date{Year: 2026, Month: time.October, Day: 15}
	if !first.ExpiryDate.After(today) {
		t.Errorf("expiry %s should be after capture day", first.ExpiryDate)
	}
	if first.Name == "" || first.Price == "" {
		t.Errorf("incomplete recognition: %+v", first)
	}
}

func TestCatalogRecognizer_EmptyCapture(t *testing.T) {
	_, err := newRecognizer().Recognize(context.Background(), Capture{ImageRef: "  "})
	if !errors.Is(err, domain.ErrCaptureFailure) {
		t.Errorf("expected ErrCaptureFailure, got %v", err)
	}
}

type failingRecognizer struct{}

func (failingRecognizer) Recognize(context.Context, Capture) (Recognition, error) {
	return Recognition{}, errors.New("camera unavailable")
}

func TestIntake(t *testing.T) {
	storage := kvstore.NewMemoryStorage()
	store := inventory.NewStore(storage)
	svc := NewService(newRecognizer(), store, storage)
	ctx := context.Background()

	product, err := svc.Intake(ctx, Capture{ImageRef: "file:///photos/IMG_0001.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(product.ID); err != nil {
		t.Errorf("expected uuid product id, got %q", product.ID)
	}
	if product.NotificationScheduled {
		t.Error("new products start unscheduled")
	}

	stored, ok := store.Product(product.ID)
	if !ok || stored != product {
		t.Errorf("stored %+v, want %+v", stored, product)
	}
}

func TestIntake_CaptureFailure(t *testing.T) {
	storage := kvstore.NewMemoryStorage()
	store := inventory.NewStore(storage)
	svc := NewService(failingRecognizer{}, store, storage)

	_, err := svc.Intake(context.Background(), Capture{ImageRef: "file:///x.jpg"})
	if !errors.Is(err, domain.ErrCaptureFailure) {
		t.Fatalf("expected ErrCaptureFailure, got %v", err)
	}
	if n := len(store.Products()); n != 0 {
		t.Errorf("expected no products, got %d", n)
	}
}

func TestPendingScan(t *testing.T) {
	storage := kvstore.NewMemoryStorage()
	svc := NewService(newRecognizer(), inventory.NewStore(storage), storage)
	ctx := context.Background()

	if _, found, err := svc.ConsumePending(ctx); err != nil || found {
		t.Fatalf("expected nothing pending, found=%v err=%v", found, err)
	}

	if err := svc.SetPending(ctx, Capture{ImageRef: "file:///photos/later.jpg"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	capture, found, err := svc.ConsumePending(ctx)
	if err != nil || !found {
		t.Fatalf("expected pending capture, found=%v err=%v", found, err)
	}
	if capture.ImageRef != "file:///photos/later.jpg" {
		t.Errorf("got %q", capture.ImageRef)
	}

	if _, found, _ := svc.ConsumePending(ctx); found {
		t.Error("pending scan must be cleared after consume")
	}

	if err := svc.SetPending(ctx, Capture{}); !errors.Is(err, domain.ErrCaptureFailure) {
		t.Errorf("expected ErrCaptureFailure, got %v", err)
	}
}

func TestPendingScan_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := domain.NewMockKeyValueStorage(ctrl)
	storage.EXPECT().
		Get(gomock.Any(), domain.StorageKeyPendingScan).
		Return(nil, false, errors.New("connection refused"))

	svc := NewService(newRecognizer(), inventory.NewStore(storage), storage)

	if _, _, err := svc.ConsumePending(context.Background()); !errors.Is(err, domain.ErrStorageFailure) {
		t.Errorf("expected ErrStorageFailure, got %v", err)
	}
}
