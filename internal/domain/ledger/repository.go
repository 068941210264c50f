package ledger

import (
	"context"

	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
)

// Repository defines the interface for ledger data operations
type Repository interface {
	// Persist a transaction, its postings and its raw links in one atomic
	// write. Fails with CONFLICT when a linked raw transaction already
	// carries a link.
	CreateTransaction(ctx context.Context, tx *Transaction, links []importer.RawLink) error

	// Get a transaction by ID with its postings
	GetTransaction(ctx context.Context, transactionID string) (*Transaction, error)

	// List every posting made directly on an account
	ListPostings(ctx context.Context, accountPath string) ([]Posting, error)
}

// AccountCurrencies resolves the currency an account is kept in. Unknown
// accounts fail with NOT_FOUND.
type AccountCurrencies interface {
	AccountCurrency(ctx context.Context, accountPath string) (string, error)
}
