package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/kvstore"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/expiry"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/inventory"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/reminder"
)

var (
	midnight = time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)
	today    = civil.DateOf(midnight)
)

type fakeScheduler struct {
	mu       sync.Mutex
	calls    []string
	leadDays []int
	errFor   func(domain.Product) error

	entered chan struct{}
	release chan struct{}
}

func (f *fakeScheduler) Schedule(_ context.Context, product domain.Product, leadDays int) (*domain.NotificationRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, product.ID)
	f.leadDays = append(f.leadDays, leadDays)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}

	if f.errFor != nil {
		if err := f.errFor(product); err != nil {
			return nil, err
		}
	}
	return &domain.NotificationRecord{ID: "n-" + product.ID, ProductID: product.ID}, nil
}

func (f *fakeScheduler) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeRecorder struct {
	records []domain.SweepResultRecord
	err     error
}

func (f *fakeRecorder) RecordSweepResult(_ context.Context, record domain.SweepResultRecord) error {
	f.records = append(f.records, record)
	return f.err
}

func (f *fakeRecorder) Close() error {
	return nil
}

type staticSource []domain.Product

func (s staticSource) Products() []domain.Product {
	return s
}

func product(id string, offset int, scheduled bool) domain.Product {
	return domain.Product{
		ID:                    id,
		Name:                  "Item " + id,
		ExpiryDate:            today.AddDays(offset),
		NotificationScheduled: scheduled,
	}
}

func newTestSweeper(source ProductSource, scheduler ReminderScheduler, opts ...Option) *Sweeper {
	classifier := expiry.NewClassifier(expiry.DefaultWarningDays, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return midnight })}, opts...)
	return NewSweeper(source, classifier, scheduler, Config{
		Interval:   time.Hour,
		WindowDays: DefaultWindowDays,
		LeadDays:   reminder.DefaultLeadDays,
	}, opts...)
}

func TestRunOnce_FreshMilkEndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := inventory.NewStore(kvstore.NewMemoryStorage())
	store.Load(ctx)

	milk := domain.Product{ID: "1", Name: "Fresh Milk", Price: "$3.49", ExpiryDate: today.AddDays(2)}
	if err := store.AddProduct(ctx, milk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	delivery := domain.NewMockNotificationDelivery(ctrl)
	delivery.EXPECT().RequestPermission(gomock.Any()).Return(domain.PermissionGranted, nil)
	delivery.EXPECT().
		ScheduleAt(gomock.Any(), midnight, gomock.Any()).
		Return("notif-1", nil)

	classifier := expiry.NewClassifier(expiry.DefaultWarningDays, time.UTC)
	clock := func() time.Time { return midnight }
	scheduler := reminder.NewScheduler(delivery, store, classifier, reminder.DefaultLeadDays, reminder.WithClock(clock))
	sweeper := NewSweeper(store, classifier, scheduler, Config{
		WindowDays: DefaultWindowDays,
		LeadDays:   reminder.DefaultLeadDays,
	}, WithClock(clock))

	result, err := sweeper.RunOnce(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scheduled != 1 || result.InWindow != 1 || result.Evaluated != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	stored, ok := store.Product("1")
	if !ok || !stored.NotificationScheduled {
		t.Fatalf("expected product 1 flagged, got %+v", stored)
	}
	records := store.Notifications()
	if len(records) != 1 || records[0].ProductID != "1" || records[0].ID != "notif-1" {
		t.Errorf("unexpected records: %+v", records)
	}
	if !records[0].TriggerAt.Equal(midnight) {
		t.Errorf("trigger: got %v, want %v", records[0].TriggerAt, midnight)
	}
}

func TestRunOnce_NeverReschedulesFlaggedProduct(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := inventory.NewStore(kvstore.NewMemoryStorage())
	if err := store.AddProduct(ctx, domain.Product{ID: "1", Name: "Fresh Milk", ExpiryDate: today.AddDays(1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	delivery := domain.NewMockNotificationDelivery(ctrl)
	delivery.EXPECT().RequestPermission(gomock.Any()).Return(domain.PermissionGranted, nil).Times(1)
	delivery.EXPECT().ScheduleAt(gomock.Any(), gomock.Any(), gomock.Any()).Return("notif-1", nil).Times(1)

	classifier := expiry.NewClassifier(expiry.DefaultWarningDays, time.UTC)
	clock := func() time.Time { return midnight }
	scheduler := reminder.NewScheduler(delivery, store, classifier, reminder.DefaultLeadDays, reminder.WithClock(clock))
	sweeper := NewSweeper(store, classifier, scheduler, Config{WindowDays: DefaultWindowDays, LeadDays: -1}, WithClock(clock))

	if _, err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := sweeper.RunOnce(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Scheduled != 0 || second.AlreadyScheduled != 1 {
		t.Errorf("unexpected second pass: %+v", second)
	}
}

func TestRunOnce_WindowSelection(t *testing.T) {
	scheduler := &fakeScheduler{}
	source := staticSource{
		product("expired", -1, false),
		product("today", 0, false),
		product("edge", 3, false),
		product("fresh", 4, false),
		product("flagged", 1, true),
	}
	sweeper := newTestSweeper(source, scheduler)

	result, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := scheduler.called()
	want := []string{"today", "edge"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("scheduled %v, want %v", got, want)
	}
	for _, lead := range scheduler.leadDays {
		if lead != reminder.DefaultLeadDays {
			t.Errorf("lead days: got %d, want %d", lead, reminder.DefaultLeadDays)
		}
	}

	if result.Evaluated != 5 || result.InWindow != 3 || result.Scheduled != 2 || result.AlreadyScheduled != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	wantTiers := map[domain.Tier]int{
		domain.TierExpired: 1,
		domain.TierWarning: 3,
		domain.TierFresh:   1,
	}
	for tier, n := range wantTiers {
		if result.TierCounts[tier] != n {
			t.Errorf("tier %s: got %d, want %d", tier, result.TierCounts[tier], n)
		}
	}
}

func TestRunOnce_PermissionDeniedStopsPass(t *testing.T) {
	scheduler := &fakeScheduler{
		errFor: func(domain.Product) error { return domain.ErrPermissionDenied },
	}
	source := staticSource{product("a", 0, false), product("b", 1, false), product("c", 2, false)}
	sweeper := newTestSweeper(source, scheduler)

	result, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := scheduler.called(); len(got) != 1 {
		t.Errorf("expected a single attempt, got %v", got)
	}
	if !result.PermissionDenied || result.Scheduled != 0 || result.InWindow != 3 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRunOnce_FailureDoesNotStopPass(t *testing.T) {
	scheduler := &fakeScheduler{
		errFor: func(p domain.Product) error {
			if p.ID == "a" {
				return domain.ErrSchedulingFailed
			}
			return nil
		},
	}
	source := staticSource{product("a", 0, false), product("b", 1, false)}
	recorder := &fakeRecorder{err: errors.New("influx down")}
	sweeper := newTestSweeper(source, scheduler, WithRecorder(recorder))

	result, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed != 1 || result.Scheduled != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	if len(recorder.records) != 1 {
		t.Fatalf("expected one recorded result, got %d", len(recorder.records))
	}
	rec := recorder.records[0]
	if rec.RunID != result.RunID || rec.FailedCount != 1 || rec.ScheduledCount != 1 || rec.EvaluatedCount != 2 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestRunOnce_OverlappingPassIsSkipped(t *testing.T) {
	scheduler := &fakeScheduler{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	sweeper := newTestSweeper(staticSource{product("a", 0, false)}, scheduler)

	done := make(chan error, 1)
	go func() {
		_, err := sweeper.RunOnce(context.Background())
		done <- err
	}()

	<-scheduler.entered

	if _, err := sweeper.RunOnce(context.Background()); !errors.Is(err, ErrSweepInProgress) {
		t.Errorf("expected ErrSweepInProgress, got %v", err)
	}

	close(scheduler.release)
	if err := <-done; err != nil {
		t.Fatalf("first pass failed: %v", err)
	}

	if _, err := sweeper.RunOnce(context.Background()); err != nil {
		t.Errorf("pass after completion must run, got %v", err)
	}
}

func TestStartStop(t *testing.T) {
	scheduler := &fakeScheduler{entered: make(chan struct{}, 1)}
	sweeper := newTestSweeper(staticSource{product("a", 0, false)}, scheduler)

	sweeper.Start(context.Background())
	// A second Start must not spawn another loop.
	sweeper.Start(context.Background())

	select {
	case <-scheduler.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("expected an immediate pass on start")
	}

	sweeper.Stop()
	sweeper.Stop()

	if got := scheduler.called(); len(got) != 1 {
		t.Errorf("expected exactly one pass, got %v", got)
	}
}

func TestExpiring(t *testing.T) {
	source := staticSource{
		product("expired", -1, false),
		product("soon", 2, true),
		product("fresh", 10, false),
	}
	sweeper := newTestSweeper(source, &fakeScheduler{})

	got := sweeper.Expiring(midnight)
	if len(got) != 1 || got[0].Product.ID != "soon" {
		t.Fatalf("unexpected expiring products: %+v", got)
	}
	if got[0].Status.Label != "Expires in 2 days" || got[0].Status.Tier != domain.TierWarning {
		t.Errorf("unexpected status: %+v", got[0].Status)
	}
}
