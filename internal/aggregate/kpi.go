package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rpattn/finclose/internal/domain"
)

// KPIRow is the monthly performance summary for one entity: base-currency sums
// pivoted by account type plus derived profit and margin figures.
type KPIRow struct {
	Entity             string
	Month              string
	Asset              decimal.Decimal
	COGS               decimal.Decimal
	Expense            decimal.Decimal
	Revenue            decimal.Decimal
	GrossProfit        decimal.Decimal
	OperatingProfit    decimal.Decimal
	GrossMarginPct     decimal.Decimal
	OperatingMarginPct decimal.Decimal
}

// buildKPI pivots account-mapped fact rows by (entity, account type). Rows
// without an account code (payroll, inventory) do not contribute; they have no
// account-type mapping.
func buildKPI(fact []FactRow, coa domain.ChartOfAccounts, month string) []KPIRow {
	typeByCode := make(map[string]string, len(coa.Accounts))
	for _, account := range coa.Accounts {
		typeByCode[account.Code] = account.Type
	}

	sums := make(map[string]map[string]decimal.Decimal)
	for _, row := range fact {
		accountType, ok := typeByCode[row.AccountCode]
		if !ok {
			continue
		}
		if sums[row.Entity] == nil {
			sums[row.Entity] = make(map[string]decimal.Decimal)
		}
		sums[row.Entity][accountType] = sums[row.Entity][accountType].Add(row.AmountBase)
	}

	entities := make([]string, 0, len(sums))
	for entity := range sums {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	hundred := decimal.NewFromInt(100)
	rows := make([]KPIRow, 0, len(entities))
	for _, entity := range entities {
		byType := sums[entity]
		row := KPIRow{
			Entity:  entity,
			Month:   month,
			Asset:   byType["Asset"],
			COGS:    byType["COGS"],
			Expense: byType["Expense"],
			Revenue: byType["Revenue"],
		}
		row.GrossProfit = row.Revenue.Sub(row.COGS)
		row.OperatingProfit = row.GrossProfit.Sub(row.Expense)
		if !row.Revenue.IsZero() {
			row.GrossMarginPct = row.GrossProfit.Div(row.Revenue).Mul(hundred).Round(2)
			row.OperatingMarginPct = row.OperatingProfit.Div(row.Revenue).Mul(hundred).Round(2)
		}
		rows = append(rows, row)
	}
	return rows
}
