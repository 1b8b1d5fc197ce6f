package quality

import (
	"github.com/rpattn/finclose/internal/domain"
)

// Summarize aggregates classified issues into one row per dataset kind, in
// canonical order, including kinds with zero issues. Row status follows the
// policy: NEVER never fails, WARN fails on any issue, ERROR fails only on
// ERROR-severity issues.
func Summarize(issues []domain.ValidationIssue, policy domain.ClosePolicy) []domain.DQSummaryRow {
	errorCounts := make(map[domain.DatasetKind]int)
	warnCounts := make(map[domain.DatasetKind]int)
	for _, issue := range issues {
		if issue.Severity == domain.SeverityError {
			errorCounts[issue.Dataset]++
		} else {
			warnCounts[issue.Dataset]++
		}
	}

	rows := make([]domain.DQSummaryRow, 0, len(domain.DatasetKinds()))
	for _, kind := range domain.DatasetKinds() {
		row := domain.DQSummaryRow{
			Dataset:    kind,
			ErrorCount: errorCounts[kind],
			WarnCount:  warnCounts[kind],
		}
		row.IssueCount = row.ErrorCount + row.WarnCount
		row.Status = rowStatus(row, policy)
		rows = append(rows, row)
	}
	return rows
}

func rowStatus(row domain.DQSummaryRow, policy domain.ClosePolicy) domain.Status {
	switch policy.FailOn {
	case domain.FailOnNever:
		return domain.StatusPass
	case domain.FailOnWarn:
		if row.IssueCount > 0 {
			return domain.StatusFail
		}
	default: // ERROR
		if row.ErrorCount > 0 {
			return domain.StatusFail
		}
	}
	return domain.StatusPass
}

// OverallStatus is FAIL iff any summary row failed; fail_on=NEVER forces PASS
// unconditionally.
func OverallStatus(rows []domain.DQSummaryRow, policy domain.ClosePolicy) domain.Status {
	if policy.FailOn == domain.FailOnNever {
		return domain.StatusPass
	}
	for _, row := range rows {
		if row.Status == domain.StatusFail {
			return domain.StatusFail
		}
	}
	return domain.StatusPass
}
