package account

import (
	"context"
)

// Repository defines the interface for account data operations
type Repository interface {
	// Create a new account. Fails with CONFLICT when the path is taken.
	CreateAccount(ctx context.Context, account *Account) (*Account, error)

	// Get an account by path
	GetAccount(ctx context.Context, path string) (*Account, error)

	// List accounts passing the filter, in path order
	ListAccounts(ctx context.Context, filter Filter) ([]*Account, error)

	// Check if account exists
	AccountExists(ctx context.Context, path string) (bool, error)
}
