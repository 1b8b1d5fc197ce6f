package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rpattn/finclose/internal/domain"
)

// ColumnType is the coercion target for a column.
type ColumnType string

const (
	TypeString   ColumnType = "string"
	TypeFloat    ColumnType = "float"
	TypeDatetime ColumnType = "datetime"
)

// DomainRule is a value-level constraint on a coerced cell. Check is the rule
// name recorded on violations.
type DomainRule struct {
	Check string
	Test  func(value any) bool
}

// ColumnRule describes one required column: its coercion target, nullability,
// and optional domain constraint.
type ColumnRule struct {
	Name     string
	Type     ColumnType
	Nullable bool
	Domain   *DomainRule
}

// UniqueRule requires the named key tuple to have exactly one row per distinct
// value. Any group with more rows yields one dataset-level violation.
type UniqueRule struct {
	Keys []string
}

// Check is the rule name recorded on uniqueness violations.
func (r UniqueRule) Check() string {
	return fmt.Sprintf("unique_keys(%s)", strings.Join(r.Keys, ","))
}

// IdentityRule requires sum(Positive) - sum(Negative) to stay within Tolerance
// for every row.
type IdentityRule struct {
	Name      string
	Positive  []string
	Negative  []string
	Tolerance float64
}

// Schema is the declarative rule composition for one dataset kind: ordered
// column rules plus dataset-level rules. Column matching is strict: missing
// and unexpected columns are both violations.
type Schema struct {
	Dataset    domain.DatasetKind
	Columns    []ColumnRule
	Unique     []UniqueRule
	Identities []IdentityRule
}

// HasColumn reports whether the schema declares the named column.
func (s Schema) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// In builds a value-set membership constraint.
func In(allowed ...string) *DomainRule {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return &DomainRule{
		Check: fmt.Sprintf("isin({%s})", strings.Join(sorted, ",")),
		Test: func(value any) bool {
			s, ok := value.(string)
			if !ok {
				return false
			}
			_, member := set[s]
			return member
		},
	}
}

// Gt builds a strictly-greater-than constraint on float columns.
func Gt(bound float64) *DomainRule {
	return &DomainRule{
		Check: fmt.Sprintf("greater_than(%g)", bound),
		Test: func(value any) bool {
			f, ok := value.(float64)
			return ok && f > bound
		},
	}
}

// Ge builds a greater-than-or-equal constraint on float columns.
func Ge(bound float64) *DomainRule {
	return &DomainRule{
		Check: fmt.Sprintf("greater_than_or_equal_to(%g)", bound),
		Test: func(value any) bool {
			f, ok := value.(float64)
			return ok && f >= bound
		},
	}
}

// Ne builds a not-equal constraint on float columns.
func Ne(excluded float64) *DomainRule {
	return &DomainRule{
		Check: fmt.Sprintf("not_equal_to(%g)", excluded),
		Test: func(value any) bool {
			f, ok := value.(float64)
			return ok && f != excluded
		},
	}
}

// Sales returns the sales schema: key (entity, invoice_id) unique.
func Sales(allowedCurrencies []string) Schema {
	return Schema{
		Dataset: domain.DatasetSales,
		Columns: []ColumnRule{
			{Name: "date", Type: TypeDatetime},
			{Name: "entity", Type: TypeString},
			{Name: "invoice_id", Type: TypeString},
			{Name: "account_code", Type: TypeString},
			{Name: "currency", Type: TypeString, Domain: In(allowedCurrencies...)},
			{Name: "amount", Type: TypeFloat, Domain: Gt(0)},
			{Name: "description", Type: TypeString, Nullable: true},
		},
		Unique: []UniqueRule{{Keys: []string{"entity", "invoice_id"}}},
	}
}

// Expenses returns the expenses schema: same shape as sales with bill_id.
func Expenses(allowedCurrencies []string) Schema {
	return Schema{
		Dataset: domain.DatasetExpenses,
		Columns: []ColumnRule{
			{Name: "date", Type: TypeDatetime},
			{Name: "entity", Type: TypeString},
			{Name: "bill_id", Type: TypeString},
			{Name: "account_code", Type: TypeString},
			{Name: "currency", Type: TypeString, Domain: In(allowedCurrencies...)},
			{Name: "amount", Type: TypeFloat, Domain: Gt(0)},
			{Name: "description", Type: TypeString, Nullable: true},
		},
		Unique: []UniqueRule{{Keys: []string{"entity", "bill_id"}}},
	}
}

// Payroll returns the payroll schema, including the per-row numeric identity
// |gross - deductions - net| < 0.01.
func Payroll(allowedCurrencies []string) Schema {
	return Schema{
		Dataset: domain.DatasetPayroll,
		Columns: []ColumnRule{
			{Name: "month", Type: TypeString},
			{Name: "entity", Type: TypeString},
			{Name: "employee_id", Type: TypeString},
			{Name: "currency", Type: TypeString, Domain: In(allowedCurrencies...)},
			{Name: "gross", Type: TypeFloat, Domain: Ge(0)},
			{Name: "deductions", Type: TypeFloat, Domain: Ge(0)},
			{Name: "net", Type: TypeFloat, Domain: Ge(0)},
		},
		Identities: []IdentityRule{{
			Name:      "gross_deductions_net_identity",
			Positive:  []string{"gross"},
			Negative:  []string{"deductions", "net"},
			Tolerance: 0.01,
		}},
	}
}

// Inventory returns the inventory_movements schema.
func Inventory(allowedCurrencies []string) Schema {
	return Schema{
		Dataset: domain.DatasetInventory,
		Columns: []ColumnRule{
			{Name: "date", Type: TypeDatetime},
			{Name: "entity", Type: TypeString},
			{Name: "sku", Type: TypeString},
			{Name: "movement_type", Type: TypeString, Domain: In("receipt", "issue", "adjustment")},
			{Name: "qty", Type: TypeFloat, Domain: Ne(0)},
			{Name: "unit_cost", Type: TypeFloat, Domain: Ge(0)},
			{Name: "currency", Type: TypeString, Domain: In(allowedCurrencies...)},
		},
	}
}

// FXRates returns the fx_rates schema: to_currency must equal the configured
// base currency, key (date, from_currency, to_currency) unique.
func FXRates(allowedCurrencies []string, baseCurrency string) Schema {
	return Schema{
		Dataset: domain.DatasetFXRates,
		Columns: []ColumnRule{
			{Name: "date", Type: TypeDatetime},
			{Name: "from_currency", Type: TypeString, Domain: In(allowedCurrencies...)},
			{Name: "to_currency", Type: TypeString, Domain: In(baseCurrency)},
			{Name: "rate", Type: TypeFloat, Domain: Gt(0)},
		},
		Unique: []UniqueRule{{Keys: []string{"date", "from_currency", "to_currency"}}},
	}
}

// ForKinds builds the full schema table for one close run.
func ForKinds(allowedCurrencies []string, baseCurrency string) map[domain.DatasetKind]Schema {
	return map[domain.DatasetKind]Schema{
		domain.DatasetSales:     Sales(allowedCurrencies),
		domain.DatasetExpenses:  Expenses(allowedCurrencies),
		domain.DatasetPayroll:   Payroll(allowedCurrencies),
		domain.DatasetInventory: Inventory(allowedCurrencies),
		domain.DatasetFXRates:   FXRates(allowedCurrencies, baseCurrency),
	}
}
