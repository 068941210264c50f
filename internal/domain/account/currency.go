package account

import (
	"context"
)

// CurrencyLookup answers the ledger's account currency checks from the
// account repository
type CurrencyLookup struct {
	repo Repository
}

// NewCurrencyLookup creates a lookup over the repository
func NewCurrencyLookup(repo Repository) CurrencyLookup {
	return CurrencyLookup{repo: repo}
}

// AccountCurrency returns the currency the account is kept in
func (c CurrencyLookup) AccountCurrency(ctx context.Context, path string) (string, error) {
	acct, err := c.repo.GetAccount(ctx, path)
	if err != nil {
		return "", err
	}
	return acct.Currency, nil
}
