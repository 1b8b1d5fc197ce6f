package quality

import (
	"fmt"
	"math"
	"strings"

	"github.com/rpattn/finclose/internal/domain"
	"github.com/rpattn/finclose/internal/schema"
	"github.com/rpattn/finclose/pkg/tabular"
)

// ValidationResult is the outcome of validating one dataset: either a clean
// typed frame, or the full set of violations found. A result with issues does
// not carry a clean frame; callers fall back to the raw rows when policy lets
// the close proceed anyway.
type ValidationResult struct {
	dataset domain.DatasetKind
	frame   domain.Frame
	valid   bool
	issues  []domain.ValidationIssue
}

// Frame returns the validated, typed frame when validation passed.
func (r ValidationResult) Frame() (domain.Frame, bool) {
	return r.frame, r.valid
}

// Issues returns every violation collected during validation.
func (r ValidationResult) Issues() []domain.ValidationIssue {
	return r.issues
}

// Valid reports whether the dataset passed all rules.
func (r ValidationResult) Valid() bool {
	return r.valid
}

// Validate evaluates one rule schema against one raw frame. Evaluation is
// collect-all: every rule runs and every violation is recorded, so a single
// pass surfaces the complete issue set. Data problems never become errors.
func Validate(frame domain.Frame, s schema.Schema) ValidationResult {
	result := ValidationResult{dataset: s.Dataset}

	result.issues = append(result.issues, checkColumnSet(frame, s)...)

	typedRows := make([]domain.Row, len(frame.Rows))
	for i, row := range frame.Rows {
		typedRows[i] = domain.Row{Index: row.Index, Values: make(map[string]any, len(s.Columns))}
	}

	checkNumber := 0
	for _, column := range s.Columns {
		var domainNumber *int
		if column.Domain != nil {
			n := checkNumber
			domainNumber = &n
			checkNumber++
		}
		if !frame.HasColumn(column.Name) {
			continue
		}
		for i, row := range frame.Rows {
			issue, typed := evaluateCell(s.Dataset, column, row, domainNumber)
			if issue != nil {
				result.issues = append(result.issues, *issue)
				continue
			}
			typedRows[i].Values[column.Name] = typed
		}
	}

	for _, rule := range s.Unique {
		result.issues = append(result.issues, checkUnique(frame, s.Dataset, rule)...)
	}
	for _, rule := range s.Identities {
		result.issues = append(result.issues, checkIdentity(frame, s.Dataset, rule)...)
	}

	if len(result.issues) > 0 {
		return result
	}

	columns := make([]string, len(s.Columns))
	for i, column := range s.Columns {
		columns[i] = column.Name
	}
	result.valid = true
	result.frame = domain.Frame{Dataset: s.Dataset, Columns: columns, Rows: typedRows}
	return result
}

// checkColumnSet enforces strict column matching: every declared column must be
// present and no undeclared column may appear.
func checkColumnSet(frame domain.Frame, s schema.Schema) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	for _, column := range s.Columns {
		if frame.HasColumn(column.Name) {
			continue
		}
		issues = append(issues, domain.ValidationIssue{
			Dataset:       s.Dataset,
			Index:         domain.NoRowIndex,
			Column:        column.Name,
			Check:         "required_column",
			FailureCase:   fmt.Sprintf("column %q missing", column.Name),
			SchemaContext: domain.ContextDataFrame,
		})
	}
	for _, name := range frame.Columns {
		if s.HasColumn(name) {
			continue
		}
		issues = append(issues, domain.ValidationIssue{
			Dataset:       s.Dataset,
			Index:         domain.NoRowIndex,
			Column:        name,
			Check:         "column_in_schema",
			FailureCase:   fmt.Sprintf("unexpected column %q", name),
			SchemaContext: domain.ContextDataFrame,
		})
	}
	return issues
}

func evaluateCell(dataset domain.DatasetKind, column schema.ColumnRule, row domain.Row, domainNumber *int) (*domain.ValidationIssue, any) {
	raw := strings.TrimSpace(row.String(column.Name))
	if raw == "" {
		if column.Nullable {
			return nil, nil
		}
		return &domain.ValidationIssue{
			Dataset:       dataset,
			Index:         row.Index,
			Column:        column.Name,
			Check:         "not_nullable",
			FailureCase:   "null value in non-nullable column",
			SchemaContext: domain.ContextColumn,
		}, nil
	}

	typed, err := coerce(column.Type, raw)
	if err != nil {
		return &domain.ValidationIssue{
			Dataset:       dataset,
			Index:         row.Index,
			Column:        column.Name,
			Check:         fmt.Sprintf("coerce_dtype(%s)", column.Type),
			FailureCase:   raw,
			SchemaContext: domain.ContextColumn,
		}, nil
	}

	if column.Domain != nil && !column.Domain.Test(typed) {
		return &domain.ValidationIssue{
			Dataset:       dataset,
			Index:         row.Index,
			Column:        column.Name,
			Check:         column.Domain.Check,
			FailureCase:   raw,
			SchemaContext: domain.ContextColumn,
			CheckNumber:   domainNumber,
		}, nil
	}

	return nil, typed
}

func coerce(columnType schema.ColumnType, raw string) (any, error) {
	switch columnType {
	case schema.TypeFloat:
		return tabular.ParseFloat(raw)
	case schema.TypeDatetime:
		return tabular.ParseTime(raw)
	default:
		return raw, nil
	}
}

// checkUnique emits one dataset-level violation per duplicated key tuple.
func checkUnique(frame domain.Frame, dataset domain.DatasetKind, rule schema.UniqueRule) []domain.ValidationIssue {
	for _, key := range rule.Keys {
		if !frame.HasColumn(key) {
			// Missing key columns are already flagged as required_column.
			return nil
		}
	}

	groups := make(map[string]int)
	var order []string
	for _, row := range frame.Rows {
		parts := make([]string, len(rule.Keys))
		for i, key := range rule.Keys {
			parts[i] = fmt.Sprintf("%s=%s", key, strings.TrimSpace(row.String(key)))
		}
		tuple := strings.Join(parts, ",")
		if groups[tuple] == 0 {
			order = append(order, tuple)
		}
		groups[tuple]++
	}

	var issues []domain.ValidationIssue
	for _, tuple := range order {
		count := groups[tuple]
		if count <= 1 {
			continue
		}
		issues = append(issues, domain.ValidationIssue{
			Dataset:       dataset,
			Index:         domain.NoRowIndex,
			Check:         rule.Check(),
			FailureCase:   fmt.Sprintf("%s (%d rows)", tuple, count),
			SchemaContext: domain.ContextDataFrame,
		})
	}
	return issues
}

// checkIdentity flags every row whose signed term sum falls outside tolerance.
// Rows whose terms cannot be parsed are skipped; their coercion failures are
// reported separately.
func checkIdentity(frame domain.Frame, dataset domain.DatasetKind, rule schema.IdentityRule) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	for _, row := range frame.Rows {
		residual := 0.0
		parsed := true
		for _, term := range rule.Positive {
			v, ok := row.Float(term)
			if !ok {
				parsed = false
				break
			}
			residual += v
		}
		if parsed {
			for _, term := range rule.Negative {
				v, ok := row.Float(term)
				if !ok {
					parsed = false
					break
				}
				residual -= v
			}
		}
		if !parsed {
			continue
		}
		if math.Abs(residual) < rule.Tolerance {
			continue
		}
		issues = append(issues, domain.ValidationIssue{
			Dataset:       dataset,
			Index:         row.Index,
			Check:         rule.Name,
			FailureCase:   fmt.Sprintf("residual=%.4f", residual),
			SchemaContext: domain.ContextDataFrame,
		})
	}
	return issues
}
