package importer

import (
	"strings"
	"time"
)

// Direction tells which way money moved for an import record
type Direction string

const (
	// Outgoing money left the payment method (expense-like)
	Outgoing Direction = "outgoing"
	// Incoming money arrived at the payment method
	Incoming Direction = "incoming"
	// Neutral records neither count as income nor expense (transfers, refunds in transit)
	Neutral Direction = "neutral"
)

// Record type labels as exported by the mobile-payment providers.
const (
	TypeExpense = "支出"
	TypeIncome  = "收入"
	TypeNeutral = "不计收支"
)

// ImportRecord is the canonical, provider-agnostic representation of one
// imported transaction line. It is produced by the record normalizer.
type ImportRecord struct {
	TransactionTime     time.Time `json:"transactionTime"`
	Category            string    `json:"category,omitempty"`
	Counterparty        string    `json:"counterparty,omitempty"`
	CounterpartyAccount string    `json:"counterpartyAccount,omitempty"`
	Description         string    `json:"description,omitempty"`
	Type                string    `json:"type"`
	Amount              string    `json:"amount"`
	PaymentMethod       string    `json:"paymentMethod,omitempty"`
	Status              string    `json:"status,omitempty"`
	TransactionNo       string    `json:"transactionNo"`
	MerchantOrderNo     string    `json:"merchantOrderNo,omitempty"`
	Remarks             string    `json:"remarks,omitempty"`
	ProviderTag         string    `json:"providerTag,omitempty"`

	// RawTransactionID is set once the record has been persisted
	RawTransactionID string `json:"rawTransactionId,omitempty"`
}

// Key returns the dedup identifier of the record
func (r ImportRecord) Key() string {
	return strings.TrimSpace(r.TransactionNo)
}

// Direction classifies the record type label
func (r ImportRecord) Direction() Direction {
	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case TypeIncome, "income", "in":
		return Incoming
	case TypeNeutral, "neutral":
		return Neutral
	default:
		return Outgoing
	}
}

// RawTransaction is the persisted verbatim copy of an ImportRecord.
// (SourceID, TransactionNo) is unique.
type RawTransaction struct {
	SourceID        string    `json:"sourceId"`
	TransactionNo   string    `json:"transactionNo"`
	Payload         string    `json:"payload"`
	TransactionTime time.Time `json:"transactionTime"`
	ImportedAt      time.Time `json:"importedAt"`

	// Link fields, set exactly once when the raw transaction is classified
	TransactionID string     `json:"transactionId,omitempty"`
	TargetAccount string     `json:"targetAccount,omitempty"`
	MethodAccount string     `json:"methodAccount,omitempty"`
	LinkedAt      *time.Time `json:"linkedAt,omitempty"`
}

// ID returns the composite identifier used as RawTransactionID
func (r *RawTransaction) ID() string {
	return r.SourceID + "/" + r.TransactionNo
}

// Linked reports whether a transaction is attached
func (r *RawTransaction) Linked() bool {
	return r.TransactionID != ""
}

// RawKey addresses a raw transaction
type RawKey struct {
	SourceID      string `json:"sourceId"`
	TransactionNo string `json:"transactionNo"`
}

// NewRawKey trims the identifier so it is usable as a dedup key
func NewRawKey(sourceID, transactionNo string) RawKey {
	return RawKey{SourceID: sourceID, TransactionNo: strings.TrimSpace(transactionNo)}
}

// RawLink is the classification attached to a raw transaction on commit
type RawLink struct {
	Key           RawKey
	TransactionID string
	TargetAccount string
	MethodAccount string
	LinkedAt      time.Time
}

// RawFilter narrows raw transaction listings
type RawFilter struct {
	SourceID string
	// Linked selects linked (true) or unlinked (false) rows; nil selects both
	Linked *bool
}
