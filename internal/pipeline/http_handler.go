package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/finclose/internal/domain"
	"github.com/rpattn/finclose/internal/repository"
)

type Handler struct {
	orchestrator *Orchestrator
	repo         repository.CloseRunRepository
}

// NewHTTPHandler serves close runs over HTTP. The repository is optional;
// without it the list and exception endpoints report the feature as
// unavailable.
func NewHTTPHandler(orchestrator *Orchestrator, repo repository.CloseRunRepository) http.Handler {
	return &Handler{orchestrator: orchestrator, repo: repo}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/run"):
		h.handleRun(w, r)
		return
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/exceptions"):
		h.handleListExceptions(w, r)
		return
	case r.Method == http.MethodGet:
		h.handleListRuns(w, r)
		return
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
}

type runPayload struct {
	Period string `json:"period"`
	FailOn string `json:"failOn"`
}

type runResponse struct {
	RunID         string                `json:"runId"`
	Period        string                `json:"period"`
	FailOn        string                `json:"failOn"`
	State         string                `json:"state"`
	OverallStatus string                `json:"overallStatus"`
	Summary       []summaryRowResponse  `json:"summary"`
	Exceptions    int                   `json:"exceptionCount"`
	Audit         auditPathsResponse    `json:"audit"`
	Curated       *curatedPathsResponse `json:"curated,omitempty"`
}

type summaryRowResponse struct {
	Dataset    string `json:"dataset"`
	ErrorCount int    `json:"errorCount"`
	WarnCount  int    `json:"warnCount"`
	IssueCount int    `json:"issueCount"`
	Status     string `json:"status"`
}

type auditPathsResponse struct {
	Exceptions string `json:"exceptions"`
	Summary    string `json:"summary"`
	Workbook   string `json:"workbook"`
}

type curatedPathsResponse struct {
	Fact        string `json:"factTransactions"`
	DimAccounts string `json:"dimAccounts"`
	KPIMonthly  string `json:"kpiMonthly"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload runPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}

	outcome, err := h.orchestrator.Run(r.Context(), RunRequest{
		Period: strings.TrimSpace(payload.Period),
		FailOn: payload.FailOn,
	})
	if err != nil {
		var halt *HaltError
		if errors.As(err, &halt) {
			writeJSON(w, http.StatusUnprocessableEntity, toRunResponse(outcome))
			return
		}
		log.Printf("[HTTP] close run failed: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(outcome))
}

func toRunResponse(outcome Outcome) runResponse {
	resp := runResponse{
		RunID:         outcome.RunID.String(),
		Period:        outcome.Period,
		FailOn:        string(outcome.FailOn),
		State:         string(outcome.State),
		OverallStatus: string(outcome.OverallStatus),
		Exceptions:    len(outcome.Issues),
		Audit: auditPathsResponse{
			Exceptions: outcome.Audit.Exceptions,
			Summary:    outcome.Audit.Summary,
			Workbook:   outcome.Audit.Workbook,
		},
	}
	for _, row := range outcome.Summary {
		resp.Summary = append(resp.Summary, summaryRowResponse{
			Dataset:    string(row.Dataset),
			ErrorCount: row.ErrorCount,
			WarnCount:  row.WarnCount,
			IssueCount: row.IssueCount,
			Status:     string(row.Status),
		})
	}
	if outcome.Curated != nil {
		resp.Curated = &curatedPathsResponse{
			Fact:        outcome.Curated.Fact,
			DimAccounts: outcome.Curated.DimAccounts,
			KPIMonthly:  outcome.Curated.KPI,
		}
	}
	return resp
}

type closeRunResponse struct {
	ID            string `json:"id"`
	Period        string `json:"period"`
	FailOn        string `json:"failOn"`
	OverallStatus string `json:"overallStatus"`
	ErrorCount    int    `json:"errorCount"`
	WarnCount     int    `json:"warnCount"`
	IssueCount    int    `json:"issueCount"`
	StartedAt     string `json:"startedAt"`
	CompletedAt   string `json:"completedAt"`
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, "run history requires a database", http.StatusServiceUnavailable)
		return
	}
	limit := parseIntParam(r, "limit", 50)
	offset := parseIntParam(r, "offset", 0)

	runs, err := h.repo.ListRuns(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[HTTP] list close runs failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]closeRunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toCloseRunResponse(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toCloseRunResponse(run domain.CloseRun) closeRunResponse {
	return closeRunResponse{
		ID:            run.ID.String(),
		Period:        run.Period,
		FailOn:        string(run.FailOn),
		OverallStatus: string(run.OverallStatus),
		ErrorCount:    run.ErrorCount,
		WarnCount:     run.WarnCount,
		IssueCount:    run.IssueCount,
		StartedAt:     run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		CompletedAt:   run.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

type exceptionResponse struct {
	Dataset       string `json:"dataset"`
	RowIndex      *int   `json:"rowIndex"`
	Column        string `json:"column"`
	Check         string `json:"check"`
	FailureCase   string `json:"failureCase"`
	SchemaContext string `json:"schemaContext"`
	CheckNumber   *int   `json:"checkNumber"`
	Severity      string `json:"severity"`
}

func (h *Handler) handleListExceptions(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, "run history requires a database", http.StatusServiceUnavailable)
		return
	}
	runID, err := runIDFromPath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	issues, err := h.repo.ListIssues(r.Context(), runID)
	if err != nil {
		log.Printf("[HTTP] list exceptions failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]exceptionResponse, 0, len(issues))
	for _, issue := range issues {
		item := exceptionResponse{
			Dataset:       string(issue.Dataset),
			Column:        issue.Column,
			Check:         issue.Check,
			FailureCase:   issue.FailureCase,
			SchemaContext: string(issue.SchemaContext),
			CheckNumber:   issue.CheckNumber,
			Severity:      string(issue.Severity),
		}
		if issue.Index != domain.NoRowIndex {
			index := issue.Index
			item.RowIndex = &index
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// runIDFromPath extracts the run id from paths like /close/runs/{id}/exceptions.
func runIDFromPath(path string) (uuid.UUID, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if part == "runs" && i+1 < len(parts) {
			id, err := uuid.Parse(parts[i+1])
			if err != nil {
				return uuid.Nil, fmt.Errorf("invalid run id %q", parts[i+1])
			}
			return id, nil
		}
	}
	return uuid.Nil, fmt.Errorf("missing run id in path")
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}
