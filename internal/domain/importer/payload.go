package importer

import (
	"encoding/json"
	"time"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

// NewRawTransaction builds the verbatim raw copy of a record for a source
func NewRawTransaction(sourceID string, record ImportRecord, now time.Time) (*RawTransaction, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode import record", err)
	}

	key := NewRawKey(sourceID, record.TransactionNo)
	return &RawTransaction{
		SourceID:        key.SourceID,
		TransactionNo:   key.TransactionNo,
		Payload:         string(payload),
		TransactionTime: record.TransactionTime,
		ImportedAt:      now,
	}, nil
}

// Record decodes the stored payload back into an ImportRecord
func (r *RawTransaction) Record() (ImportRecord, error) {
	var record ImportRecord
	if err := json.Unmarshal([]byte(r.Payload), &record); err != nil {
		return ImportRecord{}, errors.NewInternalError("failed to decode raw transaction payload", err)
	}
	record.RawTransactionID = r.ID()
	return record, nil
}

// Validate checks the fields the ledger relies on
func (r ImportRecord) Validate() error {
	if r.Key() == "" {
		return errors.NewValidationError("transaction number is required")
	}
	if _, err := ParseAmount(r.Amount); err != nil {
		return err
	}
	return nil
}
