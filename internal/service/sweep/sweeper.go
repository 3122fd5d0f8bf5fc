package sweep

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/observability/tracing"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/expiry"
)

const (
	DefaultInterval   = time.Hour
	DefaultWindowDays = 3
)

type ProductSource interface {
	Products() []domain.Product
}

type ReminderScheduler interface {
	Schedule(ctx context.Context, product domain.Product, leadDays int) (*domain.NotificationRecord, error)
}

type Config struct {
	Interval   time.Duration
	WindowDays int
	// LeadDays is passed through to the scheduler. Negative selects the scheduler's default.
	LeadDays int
}

type Result struct {
	RunID            string              `json:"runId"`
	StartedAt        time.Time           `json:"startedAt"`
	Duration         time.Duration       `json:"duration"`
	Evaluated        int                 `json:"evaluated"`
	InWindow         int                 `json:"inWindow"`
	Scheduled        int                 `json:"scheduled"`
	AlreadyScheduled int                 `json:"alreadyScheduled"`
	Failed           int                 `json:"failed"`
	PermissionDenied bool                `json:"permissionDenied"`
	TierCounts       map[domain.Tier]int `json:"tierCounts"`
}

func (r *Result) record() domain.SweepResultRecord {
	return domain.SweepResultRecord{
		RunID:            r.RunID,
		StartedAt:        r.StartedAt,
		Duration:         r.Duration,
		EvaluatedCount:   r.Evaluated,
		InWindowCount:    r.InWindow,
		ScheduledCount:   r.Scheduled,
		AlreadyScheduled: r.AlreadyScheduled,
		FailedCount:      r.Failed,
		PermissionDenied: r.PermissionDenied,
		TierCounts:       r.TierCounts,
	}
}

// Sweeper periodically schedules reminders for products close to expiry.
// It keeps no state between passes beyond the ticker it owns.
type Sweeper struct {
	source     ProductSource
	classifier *expiry.Classifier
	scheduler  ReminderScheduler
	recorder   domain.SweepResultRecorder
	metrics    *metrics.ReminderMetrics
	cfg        Config
	now        func() time.Time

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Sweeper)

func WithRecorder(recorder domain.SweepResultRecorder) Option {
	return func(s *Sweeper) {
		s.recorder = recorder
	}
}

func WithMetrics(m *metrics.ReminderMetrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func NewSweeper(
	source ProductSource,
	classifier *expiry.Classifier,
	scheduler ReminderScheduler,
	cfg Config,
	opts ...Option,
) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.WindowDays < 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	s := &Sweeper{
		source:     source,
		classifier: classifier,
		scheduler:  scheduler,
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs one pass immediately and then one per interval until Stop or ctx is done.
// Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.loop(ctx, done)

	slog.InfoContext(ctx, "sweep started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Int("window_days", s.cfg.WindowDays),
	)
}

// Stop halts the ticker and waits for the loop to exit. A pass already in flight
// finishes first.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	slog.Info("sweep stopped")
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			slog.DebugContext(ctx, "sweep tick skipped, previous pass still running")
			return
		}
		slog.ErrorContext(ctx, "sweep pass failed",
			slog.String("error", err.Error()),
		)
	}
}

// RunOnce performs a single pass over a snapshot of the inventory. It returns
// ErrSweepInProgress when another pass is running.
func (s *Sweeper) RunOnce(ctx context.Context) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.running.Store(false)

	result := &Result{
		RunID:      uuid.NewString(),
		StartedAt:  s.now(),
		TierCounts: make(map[domain.Tier]int),
	}

	ctx, span := tracing.StartSweepSpan(ctx, result.RunID, s.cfg.WindowDays)
	defer span.End()

	products := s.source.Products()

	for _, product := range products {
		status := s.classifier.Classify(product.ExpiryDate, result.StartedAt)
		result.Evaluated++
		result.TierCounts[status.Tier]++

		if !expiry.InWindow(status.DaysUntilExpiry, s.cfg.WindowDays) {
			continue
		}
		result.InWindow++

		if product.NotificationScheduled {
			result.AlreadyScheduled++
			continue
		}
		if result.PermissionDenied {
			continue
		}

		_, err := s.scheduler.Schedule(ctx, product, s.cfg.LeadDays)
		switch {
		case err == nil:
			result.Scheduled++
		case errors.Is(err, domain.ErrPermissionDenied):
			result.PermissionDenied = true
			slog.WarnContext(ctx, "notification permission denied, skipping remaining products",
				slog.String("run_id", result.RunID),
			)
		case errors.Is(err, domain.ErrReminderAlreadyScheduled):
			result.AlreadyScheduled++
		default:
			result.Failed++
			slog.WarnContext(ctx, "failed to schedule reminder during sweep",
				slog.String("run_id", result.RunID),
				slog.String("product_id", product.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	result.Duration = s.now().Sub(result.StartedAt)

	tracing.RecordSweepResult(span, result.Evaluated, result.InWindow, result.Scheduled, result.Failed, result.PermissionDenied)
	s.report(ctx, result)

	return result, nil
}

func (s *Sweeper) report(ctx context.Context, result *Result) {
	slog.InfoContext(ctx, "sweep pass completed",
		slog.String("run_id", result.RunID),
		slog.Int("evaluated_count", result.Evaluated),
		slog.Int("in_window_count", result.InWindow),
		slog.Int("scheduled_count", result.Scheduled),
		slog.Int("already_scheduled_count", result.AlreadyScheduled),
		slog.Int("failed_count", result.Failed),
		slog.Bool("permission_denied", result.PermissionDenied),
		slog.Duration("duration", result.Duration),
	)

	if s.metrics != nil {
		outcome := "ok"
		switch {
		case result.PermissionDenied:
			outcome = "permission_denied"
		case result.Failed > 0:
			outcome = "partial"
		}
		s.metrics.RecordSweepRun(ctx, outcome, result.Duration)
		for tier, count := range result.TierCounts {
			s.metrics.RecordSweepTier(ctx, tier.String(), count)
		}
	}

	if s.recorder != nil {
		if err := s.recorder.RecordSweepResult(ctx, result.record()); err != nil {
			slog.WarnContext(ctx, "failed to record sweep result",
				slog.String("run_id", result.RunID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// ExpiringProduct is a product inside the sweep window with its status at the reference time.
type ExpiringProduct struct {
	Product domain.Product `json:"product"`
	Status  domain.Status  `json:"status"`
}

// Expiring returns the products whose days until expiry fall in [0, WindowDays] at ref.
func (s *Sweeper) Expiring(ref time.Time) []ExpiringProduct {
	expiring := make([]ExpiringProduct, 0)
	for _, product := range s.source.Products() {
		status := s.classifier.Classify(product.ExpiryDate, ref)
		if expiry.InWindow(status.DaysUntilExpiry, s.cfg.WindowDays) {
			expiring = append(expiring, ExpiringProduct{Product: product, Status: status})
		}
	}
	return expiring
}

func (s *Sweeper) WindowDays() int {
	return s.cfg.WindowDays
}
