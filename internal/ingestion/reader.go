package ingestion

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rpattn/finclose/internal/domain"
	"github.com/rpattn/finclose/pkg/tabular"
)

// Loader reads the raw monthly extracts and the reference master data from
// disk. Files may be CSV or XLSX; the dataset kind doubles as the file stem.
type Loader struct {
	rawDir       string
	referenceDir string
}

// NewLoader creates a loader over the configured data directories.
func NewLoader(rawDir, referenceDir string) *Loader {
	return &Loader{rawDir: rawDir, referenceDir: referenceDir}
}

// LoadDatasets reads all five raw extracts. A missing or unreadable file is an
// I/O error, not a data-quality issue.
func (l *Loader) LoadDatasets() (map[domain.DatasetKind]domain.Frame, error) {
	frames := make(map[domain.DatasetKind]domain.Frame, len(domain.DatasetKinds()))
	for _, kind := range domain.DatasetKinds() {
		frame, err := l.loadFrame(l.rawDir, string(kind), kind)
		if err != nil {
			return nil, err
		}
		frames[kind] = frame
	}
	return frames, nil
}

// LoadChartOfAccounts reads the chart of accounts reference master. Account
// codes are kept as strings verbatim.
func (l *Loader) LoadChartOfAccounts() (domain.ChartOfAccounts, error) {
	frame, err := l.loadFrame(l.referenceDir, "chart_of_accounts", "")
	if err != nil {
		return domain.ChartOfAccounts{}, err
	}

	coa := domain.ChartOfAccounts{Accounts: make([]domain.Account, 0, len(frame.Rows))}
	for _, row := range frame.Rows {
		coa.Accounts = append(coa.Accounts, domain.Account{
			Code: row.String("account_code"),
			Name: row.String("account_name"),
			Type: row.String("account_type"),
		})
	}
	return coa, nil
}

func (l *Loader) loadFrame(dir, stem string, kind domain.DatasetKind) (domain.Frame, error) {
	fileName, payload, err := readFirstMatch(dir, stem)
	if err != nil {
		return domain.Frame{}, err
	}

	table, err := tabular.ParseFile(fileName, payload)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("parse %s: %w", fileName, err)
	}

	log.Printf("[ingest] loaded %s (%d rows)", fileName, len(table.Rows))
	return frameFromTable(kind, table), nil
}

func readFirstMatch(dir, stem string) (string, []byte, error) {
	var lastErr error
	for _, ext := range []string{".csv", ".xlsx"} {
		path := filepath.Join(dir, stem+ext)
		payload, err := os.ReadFile(path)
		if err == nil {
			return path, payload, nil
		}
		lastErr = err
	}
	return "", nil, fmt.Errorf("no %s.csv or %s.xlsx under %s: %w", stem, stem, dir, lastErr)
}

func frameFromTable(kind domain.DatasetKind, table tabular.Table) domain.Frame {
	rows := make([]domain.Row, len(table.Rows))
	for i, record := range table.Rows {
		values := make(map[string]any, len(table.Headers))
		for col, header := range table.Headers {
			if col < len(record) {
				values[header] = record[col]
			}
		}
		rows[i] = domain.Row{Index: i, Values: values}
	}
	return domain.Frame{
		Dataset: kind,
		Columns: append([]string(nil), table.Headers...),
		Rows:    rows,
	}
}
