package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/toozej/sn2ssg/internal/models"
)

func get(t *testing.T, h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthLive(t *testing.T) {
	r := NewRouter(NewTracker(), nil, nil, false, "")

	w := get(t, r, "/health/live", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHealthReady_FollowsFirstCycle(t *testing.T) {
	tracker := NewTracker()
	r := NewRouter(tracker, nil, nil, false, "")

	if w := get(t, r, "/health/ready", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("before first cycle: status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	tracker.RecordStart()
	tracker.RecordSuccess(models.RunReport{ID: "run-1", Parsed: 2, Written: 2})

	if w := get(t, r, "/health/ready", nil); w.Code != http.StatusOK {
		t.Errorf("after first cycle: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestStatusEndpoint(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordStart()
	tracker.RecordSuccess(models.RunReport{ID: "run-1", Parsed: 3, Written: 3, Unchanged: 1})
	r := NewRouter(tracker, nil, func() int { return 2 }, false, "")

	w := get(t, r, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.State != "idle" {
		t.Errorf("state = %q, want %q", resp.State, "idle")
	}
	if !resp.Ready || resp.Cycles != 1 {
		t.Errorf("ready = %v cycles = %d, want true/1", resp.Ready, resp.Cycles)
	}
	if resp.LastRun == nil {
		t.Fatal("last_run missing")
	}
	if resp.LastRun.Outcome != OutcomeSucceeded {
		t.Errorf("outcome = %q, want %q", resp.LastRun.Outcome, OutcomeSucceeded)
	}
	if resp.LastRun.Report.Written != 3 {
		t.Errorf("written = %d, want 3", resp.LastRun.Report.Written)
	}
	if resp.SSEClients != 2 {
		t.Errorf("sse_clients = %d, want 2", resp.SSEClients)
	}
}

func TestStatusEndpoint_ReportsFailure(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordStart()
	tracker.RecordFailure(models.RunReport{ID: "run-1"}, errors.New("fetch: retry budget exhausted"))
	r := NewRouter(tracker, nil, nil, false, "")

	var resp StatusResponse
	w := get(t, r, "/api/status", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.LastRun == nil || resp.LastRun.Outcome != OutcomeFailed {
		t.Fatalf("last_run = %+v, want failed outcome", resp.LastRun)
	}
	if resp.LastRun.Error == "" {
		t.Error("failed run carries no error text")
	}
	if resp.Ready {
		t.Error("ready = true before any successful cycle")
	}
}

func TestAuthMiddleware_GuardsAPIRoutes(t *testing.T) {
	tracker := NewTracker()
	r := NewRouter(tracker, nil, nil, true, "sekrit")

	if w := get(t, r, "/api/status", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := get(t, r, "/api/status", map[string]string{"Authorization": "Bearer wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := get(t, r, "/api/status", map[string]string{"Authorization": "Bearer sekrit"}); w.Code != http.StatusOK {
		t.Errorf("good token: status = %d, want %d", w.Code, http.StatusOK)
	}

	// Health endpoints stay open.
	if w := get(t, r, "/health/live", nil); w.Code != http.StatusOK {
		t.Errorf("health behind auth: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestStatusEndpoint_RunningState(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordStart()
	r := NewRouter(tracker, nil, nil, false, "")

	var resp StatusResponse
	w := get(t, r, "/api/status", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.State != "running" {
		t.Errorf("state = %q, want %q", resp.State, "running")
	}
}
