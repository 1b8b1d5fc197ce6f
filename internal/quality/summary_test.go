package quality

import (
	"testing"

	"github.com/rpattn/finclose/internal/domain"
)

func summaryInput() []domain.ValidationIssue {
	return []domain.ValidationIssue{
		{Dataset: domain.DatasetSales, Severity: domain.SeverityError},
		{Dataset: domain.DatasetSales, Severity: domain.SeverityWarn},
		{Dataset: domain.DatasetPayroll, Severity: domain.SeverityWarn},
	}
}

func TestSummarizeAlwaysFiveRows(t *testing.T) {
	rows := Summarize(nil, domain.ClosePolicy{FailOn: domain.FailOnError})
	if len(rows) != 5 {
		t.Fatalf("expected 5 summary rows for an empty issue list, got %d", len(rows))
	}
	for i, kind := range domain.DatasetKinds() {
		if rows[i].Dataset != kind {
			t.Fatalf("row %d out of canonical order: got %s, want %s", i, rows[i].Dataset, kind)
		}
		if rows[i].Status != domain.StatusPass || rows[i].IssueCount != 0 {
			t.Fatalf("expected a clean PASS row, got %+v", rows[i])
		}
	}
}

func TestSummarizeCounts(t *testing.T) {
	rows := Summarize(summaryInput(), domain.ClosePolicy{FailOn: domain.FailOnError})

	byKind := make(map[domain.DatasetKind]domain.DQSummaryRow)
	for _, row := range rows {
		byKind[row.Dataset] = row
	}

	sales := byKind[domain.DatasetSales]
	if sales.ErrorCount != 1 || sales.WarnCount != 1 || sales.IssueCount != 2 {
		t.Fatalf("unexpected sales counts: %+v", sales)
	}
	if sales.Status != domain.StatusFail {
		t.Fatalf("sales with an ERROR should FAIL under fail_on=ERROR, got %s", sales.Status)
	}

	payroll := byKind[domain.DatasetPayroll]
	if payroll.ErrorCount != 0 || payroll.WarnCount != 1 {
		t.Fatalf("unexpected payroll counts: %+v", payroll)
	}
	if payroll.Status != domain.StatusPass {
		t.Fatalf("payroll with only WARNs should PASS under fail_on=ERROR, got %s", payroll.Status)
	}
}

func TestSummarizePolicyVariants(t *testing.T) {
	issues := summaryInput()

	warn := Summarize(issues, domain.ClosePolicy{FailOn: domain.FailOnWarn})
	for _, row := range warn {
		if row.Dataset == domain.DatasetPayroll && row.Status != domain.StatusFail {
			t.Fatalf("payroll WARN should FAIL under fail_on=WARN, got %s", row.Status)
		}
	}
	if OverallStatus(warn, domain.ClosePolicy{FailOn: domain.FailOnWarn}) != domain.StatusFail {
		t.Fatal("expected overall FAIL under fail_on=WARN")
	}

	never := Summarize(issues, domain.ClosePolicy{FailOn: domain.FailOnNever})
	for _, row := range never {
		if row.Status != domain.StatusPass {
			t.Fatalf("fail_on=NEVER must never FAIL a row, got %+v", row)
		}
	}
	if OverallStatus(never, domain.ClosePolicy{FailOn: domain.FailOnNever}) != domain.StatusPass {
		t.Fatal("expected overall PASS under fail_on=NEVER")
	}
}

func TestOverallStatusFailsOnAnyRow(t *testing.T) {
	policy := domain.ClosePolicy{FailOn: domain.FailOnError}
	rows := Summarize([]domain.ValidationIssue{
		{Dataset: domain.DatasetFXRates, Severity: domain.SeverityError},
	}, policy)

	if OverallStatus(rows, policy) != domain.StatusFail {
		t.Fatal("one failing dataset must fail the whole run")
	}
}
