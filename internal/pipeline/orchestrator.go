package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/finclose/internal/aggregate"
	"github.com/rpattn/finclose/internal/domain"
	"github.com/rpattn/finclose/internal/export"
	"github.com/rpattn/finclose/internal/quality"
	"github.com/rpattn/finclose/internal/repository"
	"github.com/rpattn/finclose/internal/schema"
)

// State tracks orchestration progress through one close run.
type State string

const (
	StateValidating  State = "VALIDATING"
	StateClassifying State = "CLASSIFYING"
	StateSummarizing State = "SUMMARIZING"
	StateDeciding    State = "DECIDING"
	StateHalted      State = "HALTED"
	StateWindowing   State = "WINDOWING"
	StateAggregating State = "AGGREGATING"
	StateDone        State = "DONE"
)

// DatasetLoader supplies the raw extracts and reference master data.
type DatasetLoader interface {
	LoadDatasets() (map[domain.DatasetKind]domain.Frame, error)
	LoadChartOfAccounts() (domain.ChartOfAccounts, error)
}

// HaltError is the fatal outcome of a close run whose verdict is FAIL under an
// intolerant policy. The audit trail has already been written when it is
// returned; no curated output exists for the run.
type HaltError struct {
	Period string
	Audit  export.AuditPaths
}

func (e *HaltError) Error() string {
	return fmt.Sprintf(
		"close halted for period %s: data quality checks failed, see %s and %s",
		e.Period, e.Audit.Exceptions, e.Audit.Summary,
	)
}

// Outcome is the result of one close run. Curated paths and outputs are only
// present when the verdict allowed the run to proceed.
type Outcome struct {
	RunID         uuid.UUID
	State         State
	Period        string
	FailOn        domain.FailOn
	OverallStatus domain.Status
	Summary       []domain.DQSummaryRow
	Issues        []domain.ValidationIssue
	Audit         export.AuditPaths
	Curated       *export.CuratedPaths
	Outputs       *aggregate.CuratedOutputs
}

// Orchestrator coordinates validation, classification, summary, the gate
// decision, and aggregation for one target period. Each run is stateless and
// idempotent; nothing carries over between invocations.
type Orchestrator struct {
	loader       DatasetLoader
	schemas      map[domain.DatasetKind]schema.Schema
	repo         repository.CloseRunRepository
	curatedDir   string
	baseCurrency string
	now          func() time.Time
}

// Option customizes orchestrator construction.
type Option func(*Orchestrator)

// WithRepository attaches the audit repository. Without one, the file-based
// audit trail is the only persistence.
func WithRepository(repo repository.CloseRunRepository) Option {
	return func(o *Orchestrator) { o.repo = repo }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator wires a close orchestrator.
func NewOrchestrator(
	loader DatasetLoader,
	schemas map[domain.DatasetKind]schema.Schema,
	curatedDir string,
	baseCurrency string,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		loader:       loader,
		schemas:      schemas,
		curatedDir:   strings.TrimSpace(curatedDir),
		baseCurrency: baseCurrency,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunRequest describes one close invocation.
type RunRequest struct {
	Period string
	FailOn string
}

// Run executes the close for one period. The fail_on policy is validated
// before any dataset is read; the audit trail is written before the halt
// decision is evaluated, so it exists even for halted runs.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (Outcome, error) {
	failOn, err := domain.ParseFailOn(req.FailOn)
	if err != nil {
		return Outcome{}, err
	}
	policy := domain.ClosePolicy{FailOn: failOn}

	window, err := domain.NewPeriodWindow(req.Period)
	if err != nil {
		return Outcome{}, err
	}

	startedAt := o.now()
	runID := uuid.New()
	log.Printf("[close] run %s started (period=%s fail_on=%s)", runID, req.Period, failOn)

	frames, err := o.loader.LoadDatasets()
	if err != nil {
		return Outcome{}, fmt.Errorf("load raw datasets: %w", err)
	}
	coa, err := o.loader.LoadChartOfAccounts()
	if err != nil {
		return Outcome{}, fmt.Errorf("load chart of accounts: %w", err)
	}

	outcome := Outcome{
		RunID:  runID,
		Period: req.Period,
		FailOn: failOn,
	}

	// VALIDATING: the five kinds are independent; issues are concatenated in
	// canonical order so repeated runs produce identical audit trails.
	outcome.State = StateValidating
	working := make(map[domain.DatasetKind]domain.Frame, len(frames))
	var issues []domain.ValidationIssue
	for _, kind := range domain.DatasetKinds() {
		result := quality.Validate(frames[kind], o.schemas[kind])
		issues = append(issues, result.Issues()...)
		if clean, ok := result.Frame(); ok {
			working[kind] = clean
		} else {
			// No clean frame; carry the raw rows so a tolerant policy can
			// still close the period. Audit-then-proceed, by explicit choice.
			working[kind] = frames[kind]
		}
	}

	codes := coa.CodeSet()
	issues = append(issues, quality.CheckAccountMembership(working[domain.DatasetSales], codes)...)
	issues = append(issues, quality.CheckAccountMembership(working[domain.DatasetExpenses], codes)...)

	outcome.State = StateClassifying
	issues = quality.ClassifyAll(issues)
	outcome.Issues = issues

	outcome.State = StateSummarizing
	outcome.Summary = quality.Summarize(issues, policy)
	outcome.OverallStatus = quality.OverallStatus(outcome.Summary, policy)

	run := domain.CloseRun{
		ID:            runID,
		Period:        req.Period,
		FailOn:        failOn,
		OverallStatus: outcome.OverallStatus,
		StartedAt:     startedAt,
		CompletedAt:   o.now(),
	}
	for _, row := range outcome.Summary {
		run.ErrorCount += row.ErrorCount
		run.WarnCount += row.WarnCount
		run.IssueCount += row.IssueCount
	}

	// The audit trail is unconditional; it must exist before the gate fires.
	outcome.Audit, err = export.WriteAuditTrail(o.curatedDir, issues, outcome.Summary)
	if err != nil {
		return Outcome{}, fmt.Errorf("write audit trail: %w", err)
	}
	if o.repo != nil {
		if repoErr := o.repo.RecordRun(ctx, run, issues, outcome.Summary); repoErr != nil {
			log.Printf("[close] run %s: failed to persist audit record: %v", runID, repoErr)
		}
	}

	outcome.State = StateDeciding
	if outcome.OverallStatus == domain.StatusFail && failOn != domain.FailOnNever {
		outcome.State = StateHalted
		log.Printf("[close] run %s halted (errors=%d warns=%d)", runID, run.ErrorCount, run.WarnCount)
		return outcome, &HaltError{Period: req.Period, Audit: outcome.Audit}
	}

	outcome.State = StateWindowing
	windowed := map[domain.DatasetKind]domain.Frame{
		domain.DatasetSales:     filterToWindow(working[domain.DatasetSales], window),
		domain.DatasetExpenses:  filterToWindow(working[domain.DatasetExpenses], window),
		domain.DatasetPayroll:   filterToMonth(working[domain.DatasetPayroll], window.Month),
		domain.DatasetInventory: filterToWindow(working[domain.DatasetInventory], window),
		// FX rates are not windowed: conversions may need rates quoted before
		// the period started.
		domain.DatasetFXRates: working[domain.DatasetFXRates],
	}

	outcome.State = StateAggregating
	outputs := aggregate.BuildCuratedOutputs(windowed, coa, window, o.baseCurrency)
	curated, err := export.WriteCuratedOutputs(o.curatedDir, outputs)
	if err != nil {
		return Outcome{}, fmt.Errorf("write curated outputs: %w", err)
	}
	outcome.Curated = &curated
	outcome.Outputs = &outputs

	outcome.State = StateDone
	log.Printf("[close] run %s done (status=%s issues=%d fact_rows=%d)",
		runID, outcome.OverallStatus, run.IssueCount, len(outputs.Fact))
	return outcome, nil
}

// filterToWindow keeps rows whose date falls inside [start, end). Rows with an
// unparseable date are dropped, mirroring a failed date comparison.
func filterToWindow(frame domain.Frame, window domain.PeriodWindow) domain.Frame {
	filtered := domain.Frame{Dataset: frame.Dataset, Columns: frame.Columns}
	for _, row := range frame.Rows {
		date, ok := row.Time("date")
		if !ok || !window.Contains(date) {
			continue
		}
		filtered.Rows = append(filtered.Rows, row)
	}
	return filtered
}

// filterToMonth keeps rows whose month token matches exactly; payroll carries
// no transaction date.
func filterToMonth(frame domain.Frame, month string) domain.Frame {
	filtered := domain.Frame{Dataset: frame.Dataset, Columns: frame.Columns}
	for _, row := range frame.Rows {
		if strings.TrimSpace(row.String("month")) != month {
			continue
		}
		filtered.Rows = append(filtered.Rows, row)
	}
	return filtered
}
