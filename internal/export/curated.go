package export

import (
	"path/filepath"

	"github.com/rpattn/finclose/internal/aggregate"
	"github.com/rpattn/finclose/internal/domain"
)

// CuratedPaths are the on-disk locations of one run's curated datasets.
type CuratedPaths struct {
	Fact        string
	DimAccounts string
	KPI         string
}

var factHeaders = []string{
	"tx_date", "month", "entity", "source", "account_code", "currency", "amount", "amount_base", "description",
}

var dimHeaders = []string{"account_code", "account_name", "account_type"}

var kpiHeaders = []string{
	"entity", "month", "Asset", "COGS", "Expense", "Revenue",
	"gross_profit", "operating_profit", "gross_margin_pct", "operating_margin_pct",
}

// WriteCuratedOutputs writes the fact, dimension, and KPI datasets as
// BI-friendly CSVs. Only called for runs allowed to proceed past the gate.
func WriteCuratedOutputs(curatedDir string, outputs aggregate.CuratedOutputs) (CuratedPaths, error) {
	paths := CuratedPaths{
		Fact:        filepath.Join(curatedDir, "fact_transactions.csv"),
		DimAccounts: filepath.Join(curatedDir, "dim_accounts.csv"),
		KPI:         filepath.Join(curatedDir, "kpi_monthly.csv"),
	}

	if err := writeCSV(paths.Fact, factHeaders, factRecords(outputs.Fact)); err != nil {
		return CuratedPaths{}, err
	}
	if err := writeCSV(paths.DimAccounts, dimHeaders, dimRecords(outputs.DimAccounts)); err != nil {
		return CuratedPaths{}, err
	}
	if err := writeCSV(paths.KPI, kpiHeaders, kpiRecords(outputs.KPI)); err != nil {
		return CuratedPaths{}, err
	}
	return paths, nil
}

func factRecords(rows []aggregate.FactRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.TxDate.Format("2006-01-02"),
			row.Month,
			row.Entity,
			string(row.Source),
			row.AccountCode,
			row.Currency,
			row.Amount.String(),
			row.AmountBase.String(),
			row.Description,
		})
	}
	return records
}

func dimRecords(accounts []domain.Account) [][]string {
	records := make([][]string, 0, len(accounts))
	for _, account := range accounts {
		records = append(records, []string{account.Code, account.Name, account.Type})
	}
	return records
}

func kpiRecords(rows []aggregate.KPIRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Entity,
			row.Month,
			row.Asset.String(),
			row.COGS.String(),
			row.Expense.String(),
			row.Revenue.String(),
			row.GrossProfit.String(),
			row.OperatingProfit.String(),
			row.GrossMarginPct.String(),
			row.OperatingMarginPct.String(),
		})
	}
	return records
}
