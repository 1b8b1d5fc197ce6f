package domain

// Severity classifies how a validation issue affects the close verdict.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
)

// SchemaContext records whether a rule was evaluated per column or against the
// whole dataset.
type SchemaContext string

const (
	ContextColumn    SchemaContext = "Column"
	ContextDataFrame SchemaContext = "DataFrameSchema"
)

// NoRowIndex marks dataset-level issues that do not point at a single row.
const NoRowIndex = -1

// ValidationIssue is one recorded data-quality violation. Issues are collected,
// never raised; severity is stamped by the classifier after collection.
type ValidationIssue struct {
	Dataset       DatasetKind
	Index         int
	Column        string
	Check         string
	FailureCase   string
	SchemaContext SchemaContext
	CheckNumber   *int
	Severity      Severity
}
