package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/finclose/internal/domain"
)

// writeAuditWorkbook renders the exception and summary tables as a two-sheet
// XLSX workbook for reviewers who work outside the curated CSVs.
func writeAuditWorkbook(path string, issues []domain.ValidationIssue, summary []domain.DQSummaryRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const exceptionsSheet = "dq_exceptions"
	const summarySheet = "dq_summary"

	index, err := f.NewSheet(exceptionsSheet)
	if err != nil {
		return fmt.Errorf("create exceptions sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := writeSheet(f, exceptionsSheet, exceptionHeaders, exceptionRecords(issues)); err != nil {
		return err
	}
	if err := writeSheet(f, summarySheet, summaryHeaders, summaryRecords(summary)); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, records [][]string) error {
	rows := append([][]string{headers}, records...)
	for i, record := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		values := make([]any, len(record))
		for j, v := range record {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
