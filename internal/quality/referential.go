package quality

import (
	"strings"

	"github.com/rpattn/finclose/internal/domain"
)

// AccountMembershipCheck is the rule name recorded on chart-of-accounts
// membership violations.
const AccountMembershipCheck = "account_in_coa"

// CheckAccountMembership emits one issue per row whose account_code is not in
// the reference set. Datasets without an account_code column (and empty
// frames) produce no issues. Applied to sales and expenses only.
func CheckAccountMembership(frame domain.Frame, validCodes map[string]struct{}) []domain.ValidationIssue {
	if frame.Empty() || !frame.HasColumn("account_code") {
		return nil
	}

	var issues []domain.ValidationIssue
	for _, row := range frame.Rows {
		code := strings.TrimSpace(row.String("account_code"))
		if _, ok := validCodes[code]; ok {
			continue
		}
		issues = append(issues, domain.ValidationIssue{
			Dataset:       frame.Dataset,
			Index:         row.Index,
			Column:        "account_code",
			Check:         AccountMembershipCheck,
			FailureCase:   code,
			SchemaContext: domain.ContextColumn,
		})
	}
	return issues
}
