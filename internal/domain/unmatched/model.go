package unmatched

import (
	"time"

	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
)

// Page size bounds for ListUnmatched
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Filter narrows the unmatched queue. An empty SourceID lists every source.
type Filter struct {
	SourceID string `json:"sourceId,omitempty"`
}

// Item is one parked raw transaction with its decoded record
type Item struct {
	SourceID        string                `json:"sourceId"`
	TransactionNo   string                `json:"transactionNo"`
	TransactionTime time.Time             `json:"transactionTime"`
	ImportedAt      time.Time             `json:"importedAt"`
	Record          importer.ImportRecord `json:"record"`
}

// Page is one page of the unmatched queue
type Page struct {
	Items      []Item `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
}

// Suggestion is a candidate target account for a parked record
type Suggestion struct {
	Account     string  `json:"account"`
	Probability float64 `json:"probability"`
}
