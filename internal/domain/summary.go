package domain

// Status is a per-dataset or overall pass/fail verdict.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// DQSummaryRow aggregates classified issues for one dataset kind. Exactly one
// row exists per kind in every summary, including kinds with zero issues.
// IssueCount is always ErrorCount+WarnCount.
type DQSummaryRow struct {
	Dataset    DatasetKind
	ErrorCount int
	WarnCount  int
	IssueCount int
	Status     Status
}
