package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
)

func TestWorkflowCounters(t *testing.T) {
	m := New()
	m.PatientRegistered()
	m.PatientRegistered()
	m.TransitionCommitted(domain.StatusWaitingForTriage, domain.StatusWaitingForDoctor)
	m.WriteReverted("version_conflict")

	if got := testutil.ToFloat64(m.registered); got != 2 {
		t.Errorf("expected 2 registrations, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("Waiting for Triage", "Waiting for Doctor")); got != 1 {
		t.Errorf("expected 1 transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.reverted.WithLabelValues("version_conflict")); got != 1 {
		t.Errorf("expected 1 revert, got %v", got)
	}
}

func TestInstrumentAndHandler(t *testing.T) {
	m := New()
	h := m.Instrument("GET /patients", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/patients", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /patients", "404")); got != 1 {
		t.Errorf("expected 1 recorded request, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "patient_workflow_http_requests_total") {
		t.Error("metrics output is missing the request counter")
	}
}
