//go:build !gcloud

package sweeprecorder

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

func TestNewRecorder_FallsBackToNoop(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "disabled", cfg: &Config{Disabled: true, InfluxDBToken: "t", InfluxDBOrg: "o"}},
		{name: "missing token", cfg: &Config{InfluxDBOrg: "o"}},
		{name: "missing org", cfg: &Config{InfluxDBToken: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, err := NewRecorder(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := recorder.(*noopRecorder); !ok {
				t.Errorf("expected noop recorder, got %T", recorder)
			}
		})
	}
}

func TestInfluxDBRecorder_RecordSweepResult(t *testing.T) {
	lines := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/write" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("bucket"); got != "sweep_results" {
			t.Errorf("bucket: got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		lines <- string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	recorder, err := NewRecorder(context.Background(), &Config{
		InfluxDBURL:    server.URL,
		InfluxDBToken:  "token",
		InfluxDBOrg:    "household",
		InfluxDBBucket: "sweep_results",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer recorder.Close()

	err = recorder.RecordSweepResult(context.Background(), domain.SweepResultRecord{
		RunID:          "run-1",
		StartedAt:      time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC),
		Duration:       15 * time.Millisecond,
		EvaluatedCount: 4,
		ScheduledCount: 1,
		TierCounts:     map[domain.Tier]int{domain.TierWarning: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := <-lines
	for _, want := range []string{"sweep_result,run_id=run-1", "evaluated_count=4i", "scheduled_count=1i", "tier_warning=2i"} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol %q missing %q", line, want)
		}
	}
}

func TestInfluxDBRecorder_WriteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid","message":"bad point"}`))
	}))
	defer server.Close()

	recorder, err := NewRecorder(context.Background(), &Config{
		InfluxDBURL:    server.URL,
		InfluxDBToken:  "token",
		InfluxDBOrg:    "household",
		InfluxDBBucket: "sweep_results",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer recorder.Close()

	if err := recorder.RecordSweepResult(context.Background(), domain.SweepResultRecord{RunID: "run-2"}); err == nil {
		t.Error("expected write error")
	}
}
