package quality

import (
	"strings"

	"github.com/rpattn/finclose/internal/domain"
)

// keyColumns are the identity/key fields whose violations always block the
// close under the default policy.
var keyColumns = map[string]struct{}{
	"account_code":  {},
	"date":          {},
	"invoice_id":    {},
	"bill_id":       {},
	"employee_id":   {},
	"sku":           {},
	"currency":      {},
	"from_currency": {},
	"to_currency":   {},
	"rate":          {},
}

// Classify maps one issue to a severity. The rules form an ordered override
// chain; each later rule overwrites the outcome of earlier ones when it
// matches:
//  1. default WARN
//  2. ERROR for key/identity columns
//  3. ERROR for anything in fx_rates
//  4. ERROR for required/dtype (structural) checks
//  5. ERROR for account_in_coa
func Classify(issue domain.ValidationIssue) domain.Severity {
	severity := domain.SeverityWarn

	if _, ok := keyColumns[issue.Column]; ok {
		severity = domain.SeverityError
	}
	if issue.Dataset == domain.DatasetFXRates {
		severity = domain.SeverityError
	}
	check := strings.ToLower(issue.Check)
	if strings.Contains(check, "required") || strings.Contains(check, "dtype") {
		severity = domain.SeverityError
	}
	if strings.Contains(check, AccountMembershipCheck) {
		severity = domain.SeverityError
	}

	return severity
}

// ClassifyAll stamps a severity on every issue and returns the stamped list.
// After this, no issue holds an unassigned severity.
func ClassifyAll(issues []domain.ValidationIssue) []domain.ValidationIssue {
	classified := make([]domain.ValidationIssue, len(issues))
	for i, issue := range issues {
		issue.Severity = Classify(issue)
		classified[i] = issue
	}
	return classified
}
