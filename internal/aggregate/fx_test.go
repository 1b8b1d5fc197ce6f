package aggregate

import (
	"testing"
	"time"

	"github.com/rpattn/finclose/internal/domain"
)

func fxFrame(rows [][]string) domain.Frame {
	columns := []string{"date", "from_currency", "to_currency", "rate"}
	frame := domain.Frame{Dataset: domain.DatasetFXRates, Columns: columns}
	for i, cells := range rows {
		values := make(map[string]any, len(columns))
		for j, column := range columns {
			values[column] = cells[j]
		}
		frame.Rows = append(frame.Rows, domain.Row{Index: i, Values: values})
	}
	return frame
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRateTableLookup(t *testing.T) {
	table := BuildRateTable(fxFrame([][]string{
		{"2025-01-10", "USD", "GBP", "0.80"},
		{"2025-01-01", "USD", "GBP", "0.78"},
		{"2025-01-20", "USD", "GBP", "0.82"},
	}), "GBP")

	// Latest rate at or before the date wins.
	rate, ok := table.Lookup("USD", day(2025, time.January, 15))
	if !ok || rate.String() != "0.8" {
		t.Fatalf("expected 0.8 on Jan 15, got %s (ok=%v)", rate, ok)
	}
	rate, ok = table.Lookup("USD", day(2025, time.January, 10))
	if !ok || rate.String() != "0.8" {
		t.Fatalf("expected the same-day rate on Jan 10, got %s (ok=%v)", rate, ok)
	}
	// Nothing precedes the date; fall back to the earliest later rate.
	rate, ok = table.Lookup("USD", day(2024, time.December, 31))
	if !ok || rate.String() != "0.78" {
		t.Fatalf("expected fallback to earliest rate, got %s (ok=%v)", rate, ok)
	}
}

func TestRateTableBaseCurrency(t *testing.T) {
	table := BuildRateTable(fxFrame(nil), "GBP")
	rate, ok := table.Lookup("GBP", day(2025, time.January, 1))
	if !ok || rate.String() != "1" {
		t.Fatalf("base currency must convert at 1, got %s (ok=%v)", rate, ok)
	}
	if _, ok := table.Lookup("JPY", day(2025, time.January, 1)); ok {
		t.Fatal("expected no rate for an unquoted currency")
	}
}

func TestBuildRateTableSkipsBadRows(t *testing.T) {
	table := BuildRateTable(fxFrame([][]string{
		{"2025-01-01", "USD", "EUR", "1.10"},
		{"not-a-date", "USD", "GBP", "0.80"},
		{"2025-01-01", "USD", "GBP", "-1"},
	}), "GBP")

	if _, ok := table.Lookup("USD", day(2025, time.January, 2)); ok {
		t.Fatal("rows with a wrong target, bad date or non-positive rate must be ignored")
	}
}
