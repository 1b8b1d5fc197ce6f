package domain

import (
	"time"

	"github.com/rpattn/finclose/pkg/tabular"
)

// DatasetKind enumerates the raw extracts that participate in a monthly close.
// The set is closed; every close run touches all five.
type DatasetKind string

const (
	DatasetSales     DatasetKind = "sales"
	DatasetExpenses  DatasetKind = "expenses"
	DatasetPayroll   DatasetKind = "payroll"
	DatasetInventory DatasetKind = "inventory_movements"
	DatasetFXRates   DatasetKind = "fx_rates"
)

// DatasetKinds returns every kind in canonical order.
func DatasetKinds() []DatasetKind {
	return []DatasetKind{
		DatasetSales,
		DatasetExpenses,
		DatasetPayroll,
		DatasetInventory,
		DatasetFXRates,
	}
}

// Valid reports whether the kind belongs to the closed set.
func (k DatasetKind) Valid() bool {
	switch k {
	case DatasetSales, DatasetExpenses, DatasetPayroll, DatasetInventory, DatasetFXRates:
		return true
	}
	return false
}

// Row is one record of a tabular extract. Raw frames hold string cells;
// validated frames hold coerced values (string, float64, time.Time or nil).
type Row struct {
	Index  int
	Values map[string]any
}

// String returns the cell rendered as a string, empty when absent or null.
func (r Row) String(column string) string {
	return tabular.AsString(r.Values[column])
}

// Float returns the cell as float64, coercing raw strings best effort.
func (r Row) Float(column string) (float64, bool) {
	return tabular.AsFloat(r.Values[column])
}

// Time returns the cell as a timestamp, coercing raw strings best effort.
func (r Row) Time(column string) (time.Time, bool) {
	return tabular.AsTime(r.Values[column])
}

// Frame is an in-memory dataset: ordered columns and rows keyed by column name.
type Frame struct {
	Dataset DatasetKind
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the frame carries the named column.
func (f Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Empty reports whether the frame has no rows.
func (f Frame) Empty() bool {
	return len(f.Rows) == 0
}
