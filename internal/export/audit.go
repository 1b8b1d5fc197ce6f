package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rpattn/finclose/internal/domain"
)

// AuditPaths are the on-disk locations of one run's audit trail.
type AuditPaths struct {
	Exceptions string
	Summary    string
	Workbook   string
}

var exceptionHeaders = []string{
	"dataset", "index", "column", "check", "failure_case", "schema_context", "check_number", "severity",
}

var summaryHeaders = []string{
	"dataset", "error_count", "warn_count", "issue_count", "status",
}

// WriteAuditTrail persists the full exception list and the per-dataset summary
// to the curated directory. It is written for every run, halted or not, and an
// empty issue list still produces files with the expected headers.
func WriteAuditTrail(curatedDir string, issues []domain.ValidationIssue, summary []domain.DQSummaryRow) (AuditPaths, error) {
	if err := os.MkdirAll(curatedDir, 0o755); err != nil {
		return AuditPaths{}, fmt.Errorf("ensure curated directory: %w", err)
	}

	paths := AuditPaths{
		Exceptions: filepath.Join(curatedDir, "dq_exceptions.csv"),
		Summary:    filepath.Join(curatedDir, "dq_summary.csv"),
		Workbook:   filepath.Join(curatedDir, "dq_audit.xlsx"),
	}

	if err := writeCSV(paths.Exceptions, exceptionHeaders, exceptionRecords(issues)); err != nil {
		return AuditPaths{}, err
	}
	if err := writeCSV(paths.Summary, summaryHeaders, summaryRecords(summary)); err != nil {
		return AuditPaths{}, err
	}
	if err := writeAuditWorkbook(paths.Workbook, issues, summary); err != nil {
		return AuditPaths{}, err
	}
	return paths, nil
}

func exceptionRecords(issues []domain.ValidationIssue) [][]string {
	records := make([][]string, 0, len(issues))
	for _, issue := range issues {
		records = append(records, exceptionRecord(issue))
	}
	return records
}

func exceptionRecord(issue domain.ValidationIssue) []string {
	index := ""
	if issue.Index != domain.NoRowIndex {
		index = strconv.Itoa(issue.Index)
	}
	checkNumber := ""
	if issue.CheckNumber != nil {
		checkNumber = strconv.Itoa(*issue.CheckNumber)
	}
	return []string{
		string(issue.Dataset),
		index,
		issue.Column,
		issue.Check,
		issue.FailureCase,
		string(issue.SchemaContext),
		checkNumber,
		string(issue.Severity),
	}
}

func summaryRecords(rows []domain.DQSummaryRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			string(row.Dataset),
			strconv.Itoa(row.ErrorCount),
			strconv.Itoa(row.WarnCount),
			strconv.Itoa(row.IssueCount),
			string(row.Status),
		})
	}
	return records
}

func writeCSV(path string, headers []string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	buffered := bufio.NewWriter(file)
	writer := csv.NewWriter(buffered)

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("flush buffered %s: %w", path, err)
	}
	return file.Close()
}
