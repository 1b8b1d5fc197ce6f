package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpattn/finclose/internal/domain"
)

type datedRate struct {
	date time.Time
	rate decimal.Decimal
}

// RateTable resolves conversion rates into the base currency by transaction
// date: the latest rate at or before the date wins, falling back to the
// earliest later rate when none precedes it.
type RateTable struct {
	base  string
	rates map[string][]datedRate
}

// BuildRateTable indexes the fx_rates frame. Rows quoting a target other than
// the base currency are ignored (they are flagged by validation already).
func BuildRateTable(fx domain.Frame, baseCurrency string) RateTable {
	table := RateTable{base: baseCurrency, rates: make(map[string][]datedRate)}
	for _, row := range fx.Rows {
		if row.String("to_currency") != baseCurrency {
			continue
		}
		date, ok := row.Time("date")
		if !ok {
			continue
		}
		rate, ok := row.Float("rate")
		if !ok || rate <= 0 {
			continue
		}
		from := row.String("from_currency")
		table.rates[from] = append(table.rates[from], datedRate{date: date, rate: decimal.NewFromFloat(rate)})
	}
	for from := range table.rates {
		entries := table.rates[from]
		sort.Slice(entries, func(i, j int) bool { return entries[i].date.Before(entries[j].date) })
		table.rates[from] = entries
	}
	return table
}

// Lookup returns the conversion rate for one currency on one date. The base
// currency always converts at 1.
func (t RateTable) Lookup(currency string, on time.Time) (decimal.Decimal, bool) {
	if currency == t.base {
		return decimal.NewFromInt(1), true
	}
	entries := t.rates[currency]
	if len(entries) == 0 {
		return decimal.Decimal{}, false
	}

	chosen := entries[0]
	found := false
	for _, entry := range entries {
		if entry.date.After(on) {
			break
		}
		chosen = entry
		found = true
	}
	if !found {
		// No rate at or before the date; use the earliest one after it.
		chosen = entries[0]
	}
	return chosen.rate, true
}
