package export

import (
	"encoding/csv"
	"os"
	"testing"

	"github.com/rpattn/finclose/internal/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}

func TestWriteAuditTrail(t *testing.T) {
	dir := t.TempDir()
	checkNumber := 1
	issues := []domain.ValidationIssue{
		{
			Dataset:       domain.DatasetSales,
			Index:         3,
			Column:        "amount",
			Check:         "greater_than(0)",
			FailureCase:   "-5",
			SchemaContext: domain.ContextColumn,
			CheckNumber:   &checkNumber,
			Severity:      domain.SeverityWarn,
		},
		{
			Dataset:       domain.DatasetSales,
			Index:         domain.NoRowIndex,
			Check:         "unique_keys(entity,invoice_id)",
			FailureCase:   "entity=E1,invoice_id=INV-1 (2 rows)",
			SchemaContext: domain.ContextDataFrame,
			Severity:      domain.SeverityWarn,
		},
	}
	summary := []domain.DQSummaryRow{
		{Dataset: domain.DatasetSales, WarnCount: 2, IssueCount: 2, Status: domain.StatusPass},
	}

	paths, err := WriteAuditTrail(dir, issues, summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records := readCSV(t, paths.Exceptions)
	if len(records) != 3 {
		t.Fatalf("expected header plus two exception rows, got %d", len(records))
	}
	header := records[0]
	want := []string{"dataset", "index", "column", "check", "failure_case", "schema_context", "check_number", "severity"}
	for i, column := range want {
		if header[i] != column {
			t.Fatalf("unexpected exception header: %v", header)
		}
	}
	if records[1][1] != "3" || records[1][6] != "1" {
		t.Fatalf("unexpected row-level record: %v", records[1])
	}
	// Dataset-level issues leave index and check_number blank.
	if records[2][1] != "" || records[2][6] != "" {
		t.Fatalf("unexpected dataset-level record: %v", records[2])
	}

	summaryRecords := readCSV(t, paths.Summary)
	if len(summaryRecords) != 2 || summaryRecords[1][0] != "sales" || summaryRecords[1][3] != "2" {
		t.Fatalf("unexpected summary records: %v", summaryRecords)
	}

	if _, err := os.Stat(paths.Workbook); err != nil {
		t.Fatalf("workbook missing: %v", err)
	}
}

func TestWriteAuditTrailEmptyIssues(t *testing.T) {
	dir := t.TempDir()

	paths, err := WriteAuditTrail(dir, nil, []domain.DQSummaryRow{
		{Dataset: domain.DatasetSales, Status: domain.StatusPass},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records := readCSV(t, paths.Exceptions)
	if len(records) != 1 {
		t.Fatalf("expected a header-only exception file, got %v", records)
	}
}
