package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/app"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/config"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/kvstore"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/taskqueue"
)

var testNow = time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, permission domain.PermissionStatus) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	queue := taskqueue.NewLocalQueue(nil)
	t.Cleanup(func() { _ = queue.Close() })

	a := app.New(context.Background(), app.Deps{
		Storage: kvstore.NewMemoryStorage(),
		Queue:   queue,
		Reminder: &config.ReminderConfig{
			LeadDays:      2,
			WindowDays:    3,
			WarningDays:   3,
			SweepInterval: time.Hour,
			Location:      time.UTC,
		},
		Notification: &config.NotificationConfig{PermissionDefault: permission},
		Clock:        func() time.Time { return testNow },
	})
	t.Cleanup(a.Close)

	r := gin.New()
	NewHandler(a).Register(r.Group("/api/v1"))
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestProducts_CreateGetList(t *testing.T) {
	r := newTestRouter(t, domain.PermissionGranted)

	w := doRequest(t, r, http.MethodPost, "/api/v1/products",
		`{"id":"1","name":"Fresh Milk","price":"$3.49","expiryDate":"2026-10-17"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[app.ProductView](t, w)
	if created.Status.Label != "Expires in 2 days" {
		t.Errorf("expected label %q, got %q", "Expires in 2 days", created.Status.Label)
	}

	w = doRequest(t, r, http.MethodGet, "/api/v1/products/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodGet, "/api/v1/products", "")
	list := decode[struct {
		Products []app.ProductView `json:"products"`
	}](t, w)
	if len(list.Products) != 1 || list.Products[0].Name != "Fresh Milk" {
		t.Errorf("unexpected list: %+v", list.Products)
	}
}

func TestProducts_ErrorMapping(t *testing.T) {
	r := newTestRouter(t, domain.PermissionGranted)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed date",
			method:   http.MethodPost,
			path:     "/api/v1/products",
			body:     `{"name":"Milk","expiryDate":"17/10/2026"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "validation_error",
		},
		{
			name:     "missing name",
			method:   http.MethodPost,
			path:     "/api/v1/products",
			body:     `{"name":"","expiryDate":"2026-10-17"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "validation_error",
		},
		{
			name:     "unknown product",
			method:   http.MethodGet,
			path:     "/api/v1/products/missing",
			wantCode: http.StatusNotFound,
			wantErr:  "not_found",
		},
		{
			name:     "schedule unknown product",
			method:   http.MethodPost,
			path:     "/api/v1/products/missing/reminder",
			wantCode: http.StatusNotFound,
			wantErr:  "not_found",
		},
		{
			name:     "bad lead days",
			method:   http.MethodPost,
			path:     "/api/v1/products/missing/reminder?lead_days=-1",
			wantCode: http.StatusBadRequest,
			wantErr:  "validation_error",
		},
		{
			name:     "cancel unknown reminder is idempotent",
			method:   http.MethodDelete,
			path:     "/api/v1/reminders/nope",
			wantCode: http.StatusNoContent,
		},
		{
			name:     "empty capture",
			method:   http.MethodPost,
			path:     "/api/v1/scan",
			body:     `{"imageRef":""}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "capture_failed",
		},
		{
			name:     "invalid permission",
			method:   http.MethodPut,
			path:     "/api/v1/notifications/permission",
			body:     `{"status":"maybe"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, r, tt.method, tt.path, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantErr == "" {
				return
			}
			resp := decode[ErrorResponse](t, w)
			if resp.Error != tt.wantErr {
				t.Errorf("expected error %q, got %q", tt.wantErr, resp.Error)
			}
		})
	}
}

func TestReminder_ScheduleThenConflict(t *testing.T) {
	r := newTestRouter(t, domain.PermissionGranted)

	doRequest(t, r, http.MethodPost, "/api/v1/products",
		`{"id":"1","name":"Fresh Milk","expiryDate":"2026-10-20"}`)

	w := doRequest(t, r, http.MethodPost, "/api/v1/products/1/reminder", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	record := decode[domain.NotificationRecord](t, w)
	if record.ID == "" || record.ProductID != "1" {
		t.Errorf("unexpected record: %+v", record)
	}

	w = doRequest(t, r, http.MethodPost, "/api/v1/products/1/reminder", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodDelete, "/api/v1/reminders/"+record.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodGet, "/api/v1/reminders", "")
	list := decode[struct {
		Reminders []domain.NotificationRecord `json:"reminders"`
	}](t, w)
	if len(list.Reminders) != 0 {
		t.Errorf("expected no reminders, got %+v", list.Reminders)
	}
}

func TestReminder_PermissionDenied(t *testing.T) {
	r := newTestRouter(t, domain.PermissionDenied)

	doRequest(t, r, http.MethodPost, "/api/v1/products",
		`{"id":"1","name":"Fresh Milk","expiryDate":"2026-10-20"}`)

	w := doRequest(t, r, http.MethodPost, "/api/v1/products/1/reminder", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	resp := decode[ErrorResponse](t, w)
	if resp.Error != "permission_denied" || resp.Message != permissionExplanation {
		t.Errorf("unexpected response: %+v", resp)
	}

	w = doRequest(t, r, http.MethodPut, "/api/v1/notifications/permission", `{"status":"granted"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/v1/products/1/reminder", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 after granting permission, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSweep_SchedulesWindow(t *testing.T) {
	r := newTestRouter(t, domain.PermissionGranted)

	doRequest(t, r, http.MethodPost, "/api/v1/products",
		`{"id":"1","name":"Fresh Milk","expiryDate":"2026-10-17"}`)
	doRequest(t, r, http.MethodPost, "/api/v1/products",
		`{"id":"2","name":"Rice","expiryDate":"2027-01-01"}`)

	w := doRequest(t, r, http.MethodPost, "/api/v1/sweep", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	result := decode[struct {
		Evaluated int `json:"evaluated"`
		Scheduled int `json:"scheduled"`
	}](t, w)
	if result.Evaluated != 2 || result.Scheduled != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	w = doRequest(t, r, http.MethodGet, "/api/v1/products/expiring", "")
	expiring := decode[struct {
		Products []json.RawMessage `json:"products"`
	}](t, w)
	if len(expiring.Products) != 1 {
		t.Errorf("expected 1 expiring product, got %d", len(expiring.Products))
	}
}

func TestCartAndScan(t *testing.T) {
	r := newTestRouter(t, domain.PermissionGranted)

	w := doRequest(t, r, http.MethodPost, "/api/v1/scan", `{"imageRef":"photo-1.jpg"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	scanned := decode[app.ProductView](t, w)

	w = doRequest(t, r, http.MethodPost, "/api/v1/cart", `{"productId":"`+scanned.ID+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodDelete, "/api/v1/cart/"+scanned.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/v1/scan/pending/consume", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with nothing pending, got %d", w.Code)
	}

	doRequest(t, r, http.MethodPut, "/api/v1/scan/pending", `{"imageRef":"photo-2.jpg"}`)
	w = doRequest(t, r, http.MethodPost, "/api/v1/scan/pending/consume", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}
