package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/app"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/bootstrap"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/config"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/handler"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/health"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/sweeprecorder"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/observability/logging"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/observability/middleware"
)

// Version is set via ldflags at build time
var Version = "dev"

const serviceModule = logging.Module("expiry-reminder")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, cfg.LogLevel)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	reminderMetrics, err := metrics.NewReminderMetrics()
	if err != nil {
		slog.Error("failed to initialize reminder metrics", slog.String("error", err.Error()))
		return 1
	}

	// InfluxDB locally, BigQuery under gcloud
	recorder, err := sweeprecorder.NewRecorder(ctx, sweeprecorder.LoadConfig())
	if err != nil {
		slog.Error("failed to initialize sweep result recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			slog.Warn("failed to close sweep result recorder", slog.String("error", err.Error()))
		}
	}()

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage",
			slog.String("backend", string(cfg.Storage.Backend)),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		if err := storage.Close(); err != nil {
			slog.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	queue, closeQueue, err := bootstrap.OpenTaskQueue(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize task queue", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := closeQueue(); err != nil {
			slog.Error("task queue cleanup error", slog.String("error", err.Error()))
		}
	}()

	application := app.New(ctx, app.Deps{
		Storage:      storage.KV,
		Queue:        queue,
		Recorder:     recorder,
		Metrics:      reminderMetrics,
		Reminder:     cfg.Reminder,
		Notification: cfg.Notification,
	})
	// runs before the queue and storage are closed
	defer application.Close()

	application.Start(ctx)

	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready"},
		Module:      serviceModule,
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	healthChecker := health.NewChecker(Version)
	healthChecker.RegisterRedis(storage.Redis)
	healthChecker.Register("inventory", application.Ready)
	healthChecker.Mount(r)

	handler.NewHandler(application).Register(r.Group("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(r, "expiry-reminder"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.String("storage", string(cfg.Storage.Backend)),
			slog.Int("lead_days", cfg.Reminder.LeadDays),
			slog.Int("window_days", cfg.Reminder.WindowDays),
			slog.Duration("sweep_interval", cfg.Reminder.SweepInterval),
			slog.Bool("sweep_enabled", cfg.Reminder.SweepEnabled),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}
