package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
)

// Kind tells how a transaction entered the ledger
type Kind string

const (
	KindImport     Kind = "import"
	KindManual     Kind = "manual"
	KindOpening    Kind = "opening"
	KindAdjustment Kind = "adjustment"
)

// Tolerance is the largest absolute posting sum accepted as balanced
var Tolerance = decimal.New(1, -3)

// Transaction is an immutable double-entry transaction. Corrections are
// new transactions, never edits.
type Transaction struct {
	TransactionID string    `json:"transactionId"`
	Kind          Kind      `json:"kind"`
	Date          time.Time `json:"date"`
	Payee         string    `json:"payee,omitempty"`
	Narration     string    `json:"narration,omitempty"`
	Postings      []Posting `json:"postings"`
	Tags          []string  `json:"tags,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`

	// RawTransactionKeys links imported rows; manual entries have none
	RawTransactionKeys []importer.RawKey `json:"rawTransactionKeys,omitempty"`
}

// Posting is one signed leg of a transaction against a single account
type Posting struct {
	PostingID     string          `json:"postingId"`
	TransactionID string          `json:"transactionId"`
	Account       string          `json:"account"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

// PostingInput is a posting before it is assigned IDs
type PostingInput struct {
	Account  string          `json:"account"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// CreateTransactionRequest represents the data needed to record a transaction
type CreateTransactionRequest struct {
	Kind      Kind           `json:"kind"`
	Date      time.Time      `json:"date"`
	Payee     string         `json:"payee,omitempty"`
	Narration string         `json:"narration,omitempty"`
	Postings  []PostingInput `json:"postings"`
	Tags      []string       `json:"tags,omitempty"`

	// Links are attached atomically with the transaction; a link on an
	// already linked raw transaction makes the whole write fail
	Links []importer.RawLink `json:"-"`
}

// Sum adds up posting amounts
func Sum(postings []PostingInput) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range postings {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// IsBalanced reports whether postings sum to zero within Tolerance
func IsBalanced(postings []PostingInput) bool {
	return Sum(postings).Abs().LessThanOrEqual(Tolerance)
}
