package aggregate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpattn/finclose/internal/domain"
)

// FactRow is one curated transaction, amounts carried both in the source
// currency and converted to the base currency.
type FactRow struct {
	TxDate      time.Time
	Month       string
	Entity      string
	Source      domain.DatasetKind
	AccountCode string
	Currency    string
	Amount      decimal.Decimal
	AmountBase  decimal.Decimal
	Description string
}

// CuratedOutputs bundles the fact/dimension/KPI datasets of one close run.
type CuratedOutputs struct {
	Fact        []FactRow
	DimAccounts []domain.Account
	KPI         []KPIRow
}

// BuildCuratedOutputs turns the windowed, best-effort-validated frames into
// curated datasets. Rows whose amounts cannot be read are skipped here; their
// violations were already collected during validation.
func BuildCuratedOutputs(
	frames map[domain.DatasetKind]domain.Frame,
	coa domain.ChartOfAccounts,
	window domain.PeriodWindow,
	baseCurrency string,
) CuratedOutputs {
	rates := BuildRateTable(frames[domain.DatasetFXRates], baseCurrency)

	var fact []FactRow
	fact = append(fact, salesAndExpenseFacts(frames[domain.DatasetSales], "invoice_id", rates, window)...)
	fact = append(fact, salesAndExpenseFacts(frames[domain.DatasetExpenses], "bill_id", rates, window)...)
	fact = append(fact, payrollFacts(frames[domain.DatasetPayroll], rates, window)...)
	fact = append(fact, inventoryFacts(frames[domain.DatasetInventory], rates, window)...)

	return CuratedOutputs{
		Fact:        fact,
		DimAccounts: append([]domain.Account(nil), coa.Accounts...),
		KPI:         buildKPI(fact, coa, window.Month),
	}
}

func salesAndExpenseFacts(frame domain.Frame, idColumn string, rates RateTable, window domain.PeriodWindow) []FactRow {
	var rows []FactRow
	for _, row := range frame.Rows {
		date, ok := row.Time("date")
		if !ok {
			continue
		}
		amount, ok := row.Float("amount")
		if !ok {
			continue
		}
		currency := row.String("currency")
		value := decimal.NewFromFloat(amount)
		rows = append(rows, FactRow{
			TxDate:      date,
			Month:       window.Month,
			Entity:      row.String("entity"),
			Source:      frame.Dataset,
			AccountCode: row.String("account_code"),
			Currency:    currency,
			Amount:      value,
			AmountBase:  toBase(value, currency, date, rates),
			Description: row.String("description"),
		})
	}
	return rows
}

// payrollFacts books the employer cost (gross) at the window start; payroll is
// declared monthly and carries no transaction date.
func payrollFacts(frame domain.Frame, rates RateTable, window domain.PeriodWindow) []FactRow {
	var rows []FactRow
	for _, row := range frame.Rows {
		gross, ok := row.Float("gross")
		if !ok {
			continue
		}
		currency := row.String("currency")
		value := decimal.NewFromFloat(gross)
		rows = append(rows, FactRow{
			TxDate:      window.Start,
			Month:       window.Month,
			Entity:      row.String("entity"),
			Source:      domain.DatasetPayroll,
			Currency:    currency,
			Amount:      value,
			AmountBase:  toBase(value, currency, window.Start, rates),
			Description: fmt.Sprintf("payroll %s", row.String("employee_id")),
		})
	}
	return rows
}

func inventoryFacts(frame domain.Frame, rates RateTable, window domain.PeriodWindow) []FactRow {
	var rows []FactRow
	for _, row := range frame.Rows {
		date, ok := row.Time("date")
		if !ok {
			continue
		}
		qty, ok := row.Float("qty")
		if !ok {
			continue
		}
		unitCost, ok := row.Float("unit_cost")
		if !ok {
			continue
		}
		currency := row.String("currency")
		value := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(unitCost))
		rows = append(rows, FactRow{
			TxDate:      date,
			Month:       window.Month,
			Entity:      row.String("entity"),
			Source:      domain.DatasetInventory,
			Currency:    currency,
			Amount:      value,
			AmountBase:  toBase(value, currency, date, rates),
			Description: fmt.Sprintf("%s %s", row.String("movement_type"), row.String("sku")),
		})
	}
	return rows
}

// toBase converts an amount, rounding to cents. Amounts in currencies with no
// usable rate are carried through unconverted rather than dropped.
func toBase(amount decimal.Decimal, currency string, on time.Time, rates RateTable) decimal.Decimal {
	rate, ok := rates.Lookup(currency, on)
	if !ok {
		return amount.Round(2)
	}
	return amount.Mul(rate).Round(2)
}
