package importer

import (
	"context"
)

// Repository defines the interface for raw transaction data operations
type Repository interface {
	// Create a raw transaction; fails with a CONFLICT error when the
	// (source, transactionNo) key is already taken
	CreateRawTransaction(ctx context.Context, raw *RawTransaction) error

	// Get a raw transaction by its dedup key
	GetRawTransaction(ctx context.Context, key RawKey) (*RawTransaction, error)

	// List raw transactions matching the filter
	ListRawTransactions(ctx context.Context, filter RawFilter) ([]*RawTransaction, error)
}
