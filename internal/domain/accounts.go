package domain

// Account is one chart-of-accounts entry. All fields are string-typed.
type Account struct {
	Code string
	Name string
	Type string
}

// ChartOfAccounts is the reference master list of valid accounts.
type ChartOfAccounts struct {
	Accounts []Account
}

// CodeSet returns the set of valid account codes for membership checks.
func (c ChartOfAccounts) CodeSet() map[string]struct{} {
	codes := make(map[string]struct{}, len(c.Accounts))
	for _, account := range c.Accounts {
		codes[account.Code] = struct{}{}
	}
	return codes
}
