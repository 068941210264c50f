package account

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType represents the type of an account
type AccountType string

const (
	Assets      AccountType = "ASSETS"
	Liabilities AccountType = "LIABILITIES"
	Income      AccountType = "INCOME"
	Expenses    AccountType = "EXPENSES"
	Equity      AccountType = "EQUITY"
)

// PathSeparator joins the segments of an account path
const PathSeparator = ":"

// Equity accounts the ledger posts against on its own
const (
	OpeningBalancesPath = "Equity:OpeningBalances"
	AdjustmentsPath     = "Equity:Adjustments"
)

// Valid reports whether t is one of the five account types
func (t AccountType) Valid() bool {
	switch t {
	case Assets, Liabilities, Income, Expenses, Equity:
		return true
	}
	return false
}

// ParseAccountType accepts the type in any letter case
func ParseAccountType(s string) AccountType {
	return AccountType(strings.ToUpper(strings.TrimSpace(s)))
}

// Account represents an account in the chart of accounts
type Account struct {
	Path       string      `json:"path"`
	Name       string      `json:"name"`
	Type       AccountType `json:"accountType"`
	ParentPath string      `json:"parentPath,omitempty"`
	Currency   string      `json:"currency"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// IsDescendantOf reports whether the account sits strictly below ancestorPath
func (a *Account) IsDescendantOf(ancestorPath string) bool {
	return strings.HasPrefix(a.Path, ancestorPath+PathSeparator)
}

// Depth is the number of ancestors above the account
func (a *Account) Depth() int {
	return strings.Count(a.Path, PathSeparator)
}

// CreateAccountRequest represents the request to create a new account
type CreateAccountRequest struct {
	Name           string           `json:"name"`
	AccountType    AccountType      `json:"accountType"`
	ParentPath     string           `json:"parentPath,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	OpeningBalance *decimal.Decimal `json:"openingBalance,omitempty"`
}

// Filter narrows account listings. Empty fields match everything.
type Filter struct {
	Type AccountType
	// Under restricts the listing to the account and its descendants
	Under string
}

// Matches reports whether the account passes the filter
func (f Filter) Matches(a *Account) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Under != "" && a.Path != f.Under && !a.IsDescendantOf(f.Under) {
		return false
	}
	return true
}

// BalanceResponse reports the balance of an account
type BalanceResponse struct {
	Path     string          `json:"path"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Subtree  bool            `json:"subtree"`
}

// Node is an account together with its children, used for tree rendering
type Node struct {
	Account  *Account `json:"account"`
	Children []*Node  `json:"children,omitempty"`
}
