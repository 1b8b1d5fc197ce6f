package pipeline

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpattn/finclose/internal/domain"
)

func TestHandleRun(t *testing.T) {
	loader := &stubLoader{frames: cleanFrames(), coa: cleanCOA()}
	repo := &stubRepo{}
	orchestrator, _ := newTestOrchestrator(t, loader, repo)
	handler := NewHTTPHandler(orchestrator, repo)

	req := httptest.NewRequest(http.MethodPost, "/close/run", strings.NewReader(`{"period":"2025-01","failOn":"ERROR"}`))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var resp runResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OverallStatus != string(domain.StatusPass) || resp.State != string(StateDone) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Summary) != 5 || resp.Curated == nil {
		t.Fatalf("expected a full summary and curated paths: %+v", resp)
	}
}

func TestHandleRunHalted(t *testing.T) {
	frames := cleanFrames()
	frames[domain.DatasetSales].Rows[0].Values["account_code"] = "9999"
	loader := &stubLoader{frames: frames, coa: cleanCOA()}
	orchestrator, _ := newTestOrchestrator(t, loader, nil)
	handler := NewHTTPHandler(orchestrator, nil)

	req := httptest.NewRequest(http.MethodPost, "/close/run", strings.NewReader(`{"period":"2025-01"}`))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a halted run, got %d", recorder.Code)
	}
	var resp runResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != string(StateHalted) || resp.Curated != nil {
		t.Fatalf("unexpected halted response: %+v", resp)
	}
	if resp.Audit.Exceptions == "" {
		t.Fatal("halted responses must still point at the audit trail")
	}
}

func TestHandleRunBadRequest(t *testing.T) {
	loader := &stubLoader{frames: cleanFrames(), coa: cleanCOA()}
	orchestrator, _ := newTestOrchestrator(t, loader, nil)
	handler := NewHTTPHandler(orchestrator, nil)

	for _, body := range []string{`{not json`, `{"period":"2025-01","failOn":"MAYBE"}`, `{"period":"bad"}`} {
		req := httptest.NewRequest(http.MethodPost, "/close/run", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", body, recorder.Code)
		}
	}
}

func TestHandleListRunsWithoutRepo(t *testing.T) {
	loader := &stubLoader{frames: cleanFrames(), coa: cleanCOA()}
	orchestrator, _ := newTestOrchestrator(t, loader, nil)
	handler := NewHTTPHandler(orchestrator, nil)

	req := httptest.NewRequest(http.MethodGet, "/close/runs", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a database, got %d", recorder.Code)
	}
}

func TestRunIDFromPath(t *testing.T) {
	id := "0b0f7f10-9df6-4bcd-9cdb-5f6d2f6f7a10"
	parsed, err := runIDFromPath("/close/runs/" + id + "/exceptions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.String() != id {
		t.Fatalf("unexpected id: %s", parsed)
	}
	if _, err := runIDFromPath("/close/runs/not-a-uuid/exceptions"); err == nil {
		t.Fatal("expected an invalid uuid to be rejected")
	}
	if _, err := runIDFromPath("/close/run"); err == nil {
		t.Fatal("expected a missing id to be rejected")
	}
}
