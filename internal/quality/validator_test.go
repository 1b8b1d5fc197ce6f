package quality

import (
	"testing"
	"time"

	"github.com/rpattn/finclose/internal/domain"
	"github.com/rpattn/finclose/internal/schema"
)

var testCurrencies = []string{"GBP", "USD", "EUR"}

func rawFrame(kind domain.DatasetKind, columns []string, rows [][]string) domain.Frame {
	frame := domain.Frame{Dataset: kind, Columns: columns}
	for i, cells := range rows {
		values := make(map[string]any, len(columns))
		for j, column := range columns {
			values[column] = cells[j]
		}
		frame.Rows = append(frame.Rows, domain.Row{Index: i, Values: values})
	}
	return frame
}

func salesColumns() []string {
	return []string{"date", "entity", "invoice_id", "account_code", "currency", "amount", "description"}
}

func TestValidateCleanSales(t *testing.T) {
	frame := rawFrame(domain.DatasetSales, salesColumns(), [][]string{
		{"2025-01-05", "E1", "INV-1", "4000", "GBP", "120.50", "widgets"},
		{"2025-01-06", "E1", "INV-2", "4000", "USD", "89.99", ""},
	})

	result := Validate(frame, schema.Sales(testCurrencies))
	if !result.Valid() {
		t.Fatalf("expected clean sales to pass, got issues: %+v", result.Issues())
	}
	typed, ok := result.Frame()
	if !ok {
		t.Fatal("expected a typed frame")
	}
	if amount, ok := typed.Rows[0].Values["amount"].(float64); !ok || amount != 120.50 {
		t.Fatalf("expected amount coerced to 120.50, got %v", typed.Rows[0].Values["amount"])
	}
	if date, ok := typed.Rows[0].Values["date"].(time.Time); !ok || date.Month() != time.January {
		t.Fatalf("expected date coerced to January timestamp, got %v", typed.Rows[0].Values["date"])
	}
	if typed.Rows[1].Values["description"] != nil {
		t.Fatalf("expected empty nullable cell to stay nil, got %v", typed.Rows[1].Values["description"])
	}
}

func TestValidateStrictColumns(t *testing.T) {
	// invoice_id missing, region undeclared.
	frame := rawFrame(domain.DatasetSales,
		[]string{"date", "entity", "account_code", "currency", "amount", "description", "region"},
		[][]string{{"2025-01-05", "E1", "4000", "GBP", "120.50", "", "north"}},
	)

	result := Validate(frame, schema.Sales(testCurrencies))
	if result.Valid() {
		t.Fatal("expected column mismatch to fail validation")
	}

	var missing, unexpected bool
	for _, issue := range result.Issues() {
		switch issue.Check {
		case "required_column":
			if issue.Column != "invoice_id" || issue.Index != domain.NoRowIndex {
				t.Fatalf("unexpected required_column issue: %+v", issue)
			}
			missing = true
		case "column_in_schema":
			if issue.Column != "region" || issue.SchemaContext != domain.ContextDataFrame {
				t.Fatalf("unexpected column_in_schema issue: %+v", issue)
			}
			unexpected = true
		}
	}
	if !missing || !unexpected {
		t.Fatalf("expected both missing and unexpected column issues, got %+v", result.Issues())
	}
}

func TestValidateCoercionAndNullability(t *testing.T) {
	frame := rawFrame(domain.DatasetSales, salesColumns(), [][]string{
		{"not-a-date", "E1", "INV-1", "4000", "GBP", "abc", ""},
		{"2025-01-10", "", "INV-2", "4000", "GBP", "50", "ok"},
	})

	result := Validate(frame, schema.Sales(testCurrencies))

	checks := make(map[string]int)
	for _, issue := range result.Issues() {
		checks[issue.Check]++
	}
	if checks["coerce_dtype(datetime)"] != 1 {
		t.Fatalf("expected one datetime coercion failure, got %+v", checks)
	}
	if checks["coerce_dtype(float)"] != 1 {
		t.Fatalf("expected one float coercion failure, got %+v", checks)
	}
	if checks["not_nullable"] != 1 {
		t.Fatalf("expected one not_nullable failure for empty entity, got %+v", checks)
	}
}

func TestValidateDuplicateKeysSingleIssue(t *testing.T) {
	frame := rawFrame(domain.DatasetSales, salesColumns(), [][]string{
		{"2025-01-05", "E1", "INV-1", "4000", "GBP", "10", ""},
		{"2025-01-06", "E1", "INV-1", "4000", "GBP", "20", ""},
		{"2025-01-07", "E2", "INV-1", "4000", "GBP", "30", ""},
	})

	result := Validate(frame, schema.Sales(testCurrencies))

	var duplicates []domain.ValidationIssue
	for _, issue := range result.Issues() {
		if issue.Check == "unique_keys(entity,invoice_id)" {
			duplicates = append(duplicates, issue)
		}
	}
	if len(duplicates) != 1 {
		t.Fatalf("expected exactly one duplicate-key issue, got %d: %+v", len(duplicates), duplicates)
	}
	if duplicates[0].FailureCase != "entity=E1,invoice_id=INV-1 (2 rows)" {
		t.Fatalf("unexpected failure case: %q", duplicates[0].FailureCase)
	}
	if duplicates[0].Index != domain.NoRowIndex {
		t.Fatalf("duplicate-key issue should be dataset level, got index %d", duplicates[0].Index)
	}
}

func TestValidatePayrollIdentity(t *testing.T) {
	columns := []string{"month", "entity", "employee_id", "currency", "gross", "deductions", "net"}
	frame := rawFrame(domain.DatasetPayroll, columns, [][]string{
		{"2025-01", "E1", "EMP-1", "GBP", "100", "20", "80"},
		{"2025-01", "E1", "EMP-2", "GBP", "100", "20", "79.90"},
	})

	result := Validate(frame, schema.Payroll(testCurrencies))

	var identity []domain.ValidationIssue
	for _, issue := range result.Issues() {
		if issue.Check == "gross_deductions_net_identity" {
			identity = append(identity, issue)
		}
	}
	if len(identity) != 1 {
		t.Fatalf("expected one identity violation, got %d: %+v", len(identity), result.Issues())
	}
	if identity[0].Index != 1 {
		t.Fatalf("expected the violation on row 1, got %d", identity[0].Index)
	}
	if identity[0].FailureCase != "residual=0.1000" {
		t.Fatalf("unexpected failure case: %q", identity[0].FailureCase)
	}
}

func TestValidateDomainCheckNumbers(t *testing.T) {
	frame := rawFrame(domain.DatasetSales, salesColumns(), [][]string{
		{"2025-01-05", "E1", "INV-1", "4000", "JPY", "-5", ""},
	})

	result := Validate(frame, schema.Sales(testCurrencies))

	numbers := make(map[string]*int)
	for _, issue := range result.Issues() {
		numbers[issue.Column] = issue.CheckNumber
	}
	// Domain-bearing columns are numbered in declaration order: currency then amount.
	if numbers["currency"] == nil || *numbers["currency"] != 0 {
		t.Fatalf("expected currency check number 0, got %v", numbers["currency"])
	}
	if numbers["amount"] == nil || *numbers["amount"] != 1 {
		t.Fatalf("expected amount check number 1, got %v", numbers["amount"])
	}
}

func TestValidateIdempotent(t *testing.T) {
	frame := rawFrame(domain.DatasetSales, salesColumns(), [][]string{
		{"2025-01-05", "E1", "INV-1", "4000", "JPY", "0", ""},
		{"2025-01-05", "E1", "INV-1", "4000", "GBP", "10", ""},
	})

	first := Validate(frame, schema.Sales(testCurrencies)).Issues()
	second := Validate(frame, schema.Sales(testCurrencies)).Issues()

	if len(first) != len(second) {
		t.Fatalf("issue counts differ between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Check != second[i].Check || first[i].Index != second[i].Index ||
			first[i].Column != second[i].Column || first[i].FailureCase != second[i].FailureCase {
			t.Fatalf("issue %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestValidateFXRates(t *testing.T) {
	columns := []string{"date", "from_currency", "to_currency", "rate"}
	frame := rawFrame(domain.DatasetFXRates, columns, [][]string{
		{"2025-01-01", "USD", "GBP", "0.79"},
		{"2025-01-01", "USD", "GBP", "0.80"},
		{"2025-01-02", "EUR", "USD", "1.05"},
		{"2025-01-03", "EUR", "GBP", "0"},
	})

	result := Validate(frame, schema.FXRates(testCurrencies, "GBP"))

	checks := make(map[string]int)
	for _, issue := range result.Issues() {
		checks[issue.Check]++
	}
	if checks["unique_keys(date,from_currency,to_currency)"] != 1 {
		t.Fatalf("expected one duplicate rate issue, got %+v", checks)
	}
	if checks["isin({GBP})"] != 1 {
		t.Fatalf("expected one to_currency violation, got %+v", checks)
	}
	if checks["greater_than(0)"] != 1 {
		t.Fatalf("expected one non-positive rate violation, got %+v", checks)
	}
}
