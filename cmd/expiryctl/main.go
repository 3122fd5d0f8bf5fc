// Command expiryctl inspects and operates the inventory from a shell, against the same
// storage and task queue as the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/app"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/bootstrap"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/config"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/sweeprecorder"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/observability/logging"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/expiry"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

const (
	exitUsage    = 2
	exitSetup    = 3
	exitNotFound = 4
	exitFailed   = 5
)

func main() {
	root := newRootCmd(os.Stdout)

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "expiryctl",
		Short:         "Inspect the food inventory and manage expiry reminders",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(logging.NewLogger(logging.Config{
				Service:       logging.ServiceInfo{Name: "expiryctl", Version: version},
				Environment:   logging.EnvDev,
				Level:         level,
				DefaultModule: logging.Module("expiryctl"),
				Writer:        os.Stderr,
			}))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr at debug level")

	root.AddCommand(
		newClassifyCmd(out),
		newListCmd(out),
		newSweepCmd(out),
		newScheduleCmd(out),
		newCancelCmd(out),
	)

	return root
}

func newClassifyCmd(out io.Writer) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "classify <YYYY-MM-DD>",
		Short: "Print the expiry status of a date without touching storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := civil.ParseDate(args[0])
			if err != nil {
				return codeError(exitUsage, "invalid date %q: expected YYYY-MM-DD", args[0])
			}

			cfg, err := config.LoadReminderConfig()
			if err != nil {
				return codeError(exitSetup, "loading configuration: %s", err)
			}

			ref := time.Now()
			if at != "" {
				ref, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return codeError(exitUsage, "invalid --at %q: expected RFC 3339", at)
				}
			}

			status := expiry.NewClassifier(cfg.WarningDays, cfg.Location).Classify(date, ref)
			fmt.Fprintf(out, "%s\t%s\t%d\n", status.Label, status.Tier, status.DaysUntilExpiry)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Reference time in RFC 3339 (default now)")

	return cmd
}

func newListCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products with their current status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				return writeJSON(out, a.ListProducts())
			})
		},
	}
}

func newSweepCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweep pass and print its result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := requireDurable(a, "sweep"); err != nil {
					return err
				}
				result, err := a.RunSweep(cmd.Context())
				if err != nil {
					return codeError(exitFailed, "sweep: %s", err)
				}
				return writeJSON(out, result)
			})
		},
	}
}

func newScheduleCmd(out io.Writer) *cobra.Command {
	var leadDays int

	cmd := &cobra.Command{
		Use:   "schedule <product-id>",
		Short: "Schedule an expiry reminder for one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := requireDurable(a, "schedule"); err != nil {
					return err
				}
				record, err := a.ScheduleReminder(cmd.Context(), args[0], leadDays)
				if err != nil {
					return domainExit(err)
				}
				return writeJSON(out, record)
			})
		},
	}
	cmd.Flags().IntVar(&leadDays, "lead-days", -1, "Days before expiry to fire (default REMINDER_LEAD_DAYS)")

	return cmd
}

func newCancelCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <handle>",
		Short: "Cancel a scheduled reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := a.CancelReminder(cmd.Context(), args[0]); err != nil {
					return domainExit(err)
				}
				fmt.Fprintln(out, "cancelled", args[0])
				return nil
			})
		},
	}
}

// requireDurable refuses commands whose reminders would die with this process.
func requireDurable(a *app.App, command string) error {
	if a.DurableDelivery() {
		return nil
	}
	return codeError(exitSetup, "%s needs a durable task queue; set PRIMIND_TASKS_URL or build with -tags gcloud", command)
}

// withApp opens storage and the task queue, runs fn and releases everything. The
// periodic sweep is never started.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return codeError(exitSetup, "loading configuration: %s", err)
	}
	if err := config.ValidateForRun(cfg); err != nil {
		return codeError(exitSetup, "invalid configuration: %s", err)
	}

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		return codeError(exitSetup, "opening storage: %s", err)
	}
	defer func() { _ = storage.Close() }()

	queue, closeQueue, err := bootstrap.OpenTaskQueue(ctx, cfg)
	if err != nil {
		return codeError(exitSetup, "opening task queue: %s", err)
	}
	defer func() { _ = closeQueue() }()

	recorder, err := sweeprecorder.NewRecorder(ctx, sweeprecorder.LoadConfig())
	if err != nil {
		return codeError(exitSetup, "opening sweep recorder: %s", err)
	}
	defer func() { _ = recorder.Close() }()

	a := app.New(ctx, app.Deps{
		Storage:      storage.KV,
		Queue:        queue,
		Recorder:     recorder,
		Reminder:     cfg.Reminder,
		Notification: cfg.Notification,
	})
	defer a.Close()

	return fn(a)
}

func domainExit(err error) error {
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrNotificationNotFound):
		return codeError(exitNotFound, "%s", err)
	case errors.Is(err, domain.ErrPermissionDenied):
		return codeError(exitFailed, "notification permission is not granted; set it with PUT /api/v1/notifications/permission")
	default:
		return codeError(exitFailed, "%s", err)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
