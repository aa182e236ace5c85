package domain

import "time"

// AccountType classifies an account in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// ValidAccountType reports whether t is one of the five account classes.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	default:
		return false
	}
}

// Account is a chart-of-accounts entry referenced by ledger lines.
type Account struct {
	ID        string
	Code      string
	Name      string
	Type      AccountType
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks account-level invariants.
func (a *Account) Validate() error {
	if err := ValidateAccountCode(a.Code); err != nil {
		return err
	}

	if err := ValidateAccountName(a.Name); err != nil {
		return err
	}

	if !ValidAccountType(a.Type) {
		return ErrInvalidAccountType
	}

	return nil
}
