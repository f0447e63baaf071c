package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"energyguard/internal/alerting/application"
	alerting "energyguard/internal/alerting/domain"
	alertmemory "energyguard/internal/alerting/infrastructure/memory"
	"energyguard/internal/auth"
)

func newAlertsFixture(t *testing.T) (*AlertsHandler, *alertmemory.AlertRepository) {
	t.Helper()
	repo := alertmemory.NewAlertRepository()
	service, err := application.NewAlertService(repo, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new alert service: %v", err)
	}
	handler, err := NewAlertsHandler(service, nil)
	if err != nil {
		t.Fatalf("new alerts handler: %v", err)
	}
	return handler, repo
}

func insertAlert(t *testing.T, repo *alertmemory.AlertRepository, id, engineID, severity string) {
	t.Helper()
	err := repo.Insert(context.Background(), &alerting.Alert{
		ID:        id,
		EngineID:  engineID,
		Severity:  severity,
		Status:    alerting.StatusActive,
		Title:     "Exhaust overheat",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert alert: %v", err)
	}
}

func asActor(r *http.Request, actor string) *http.Request {
	return r.WithContext(auth.WithActor(r.Context(), actor))
}

func TestAlertsListFiltering(t *testing.T) {
	handler, repo := newAlertsFixture(t)
	insertAlert(t, repo, "a-1", "gpu-2", alerting.SeverityCritical)
	insertAlert(t, repo, "a-2", "gpu-4", alerting.SeverityWarning)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?engine_id=gpu-2", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var alerts []alerting.Alert
	if err := json.Unmarshal(w.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(alerts) != 1 || alerts[0].ID != "a-1" {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestAlertsListRejectsBadHours(t *testing.T) {
	handler, _ := newAlertsFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?hours=9000", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAlertsListEmptyIsJSONArray(t *testing.T) {
	handler, _ := newAlertsFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if body := w.Body.String(); body != "[]\n" {
		t.Fatalf("empty list body = %q, want JSON array", body)
	}
}

func TestAcknowledgeEndpoint(t *testing.T) {
	handler, repo := newAlertsFixture(t)
	insertAlert(t, repo, "a-1", "gpu-2", alerting.SeverityCritical)

	r := asActor(httptest.NewRequest(http.MethodPost, "/api/v1/alerts/a-1/acknowledge", nil), "operator-7")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var alert alerting.Alert
	if err := json.Unmarshal(w.Body.Bytes(), &alert); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if alert.Status != alerting.StatusAcknowledged || alert.AcknowledgedBy != "operator-7" {
		t.Fatalf("unexpected alert: %+v", alert)
	}
}

func TestAcknowledgeRequiresActor(t *testing.T) {
	handler, repo := newAlertsFixture(t)
	insertAlert(t, repo, "a-1", "gpu-2", alerting.SeverityCritical)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/a-1/acknowledge", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAcknowledgeConflictAndNotFound(t *testing.T) {
	handler, repo := newAlertsFixture(t)
	insertAlert(t, repo, "a-1", "gpu-2", alerting.SeverityCritical)

	resolve := asActor(httptest.NewRequest(http.MethodPost, "/api/v1/alerts/a-1/resolve", nil), "op")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, resolve)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve status = %d", w.Code)
	}

	acknowledge := asActor(httptest.NewRequest(http.MethodPost, "/api/v1/alerts/a-1/acknowledge", nil), "op")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, acknowledge)
	if w.Code != http.StatusConflict {
		t.Fatalf("acknowledge-after-resolve status = %d, want 409", w.Code)
	}

	missing := asActor(httptest.NewRequest(http.MethodPost, "/api/v1/alerts/missing/acknowledge", nil), "op")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, missing)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing alert status = %d, want 404", w.Code)
	}
}

func TestAlertGetByID(t *testing.T) {
	handler, repo := newAlertsFixture(t)
	insertAlert(t, repo, "a-1", "gpu-2", alerting.SeverityCritical)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/a-1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/alerts/missing", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", w.Code)
	}
}

func TestAlertsUnknownRoute(t *testing.T) {
	handler, _ := newAlertsFixture(t)

	r := httptest.NewRequest(http.MethodDelete, "/api/v1/alerts/a-1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
