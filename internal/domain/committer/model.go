package committer

import (
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
)

// CommitResult reports what happened to one record.
// Exactly one of Created, Duplicate and Parked is true.
type CommitResult struct {
	Created   bool `json:"created"`
	Duplicate bool `json:"duplicate"`
	// Parked records have an unlinked raw transaction awaiting classification
	Parked bool `json:"parked"`

	Transaction    *ledger.Transaction      `json:"transaction,omitempty"`
	RawTransaction *importer.RawTransaction `json:"rawTransaction,omitempty"`
}

// FailedRecord names a record that could not be committed
type FailedRecord struct {
	TransactionNo string `json:"transactionNo"`
	Code          string `json:"code"`
	Reason        string `json:"reason"`
}

// BatchResult summarizes a committed batch
type BatchResult struct {
	SourceID       string         `json:"sourceId"`
	Total          int            `json:"total"`
	Committed      int            `json:"committed"`
	Duplicates     int            `json:"duplicates"`
	Parked         int            `json:"parked"`
	Failed         []FailedRecord `json:"failed"`
	TransactionIDs []string       `json:"transactionIds"`
}
