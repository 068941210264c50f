package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
)

const rawColumns = `source_id, transaction_no, payload, transaction_time, imported_at,
	transaction_id, target_account, method_account, linked_at`

func scanRaw(row rowScanner) (*importer.RawTransaction, error) {
	var (
		raw           importer.RawTransaction
		transactionID sql.NullString
		targetAccount sql.NullString
		methodAccount sql.NullString
		linkedAt      sql.NullTime
	)
	err := row.Scan(&raw.SourceID, &raw.TransactionNo, &raw.Payload, &raw.TransactionTime, &raw.ImportedAt,
		&transactionID, &targetAccount, &methodAccount, &linkedAt)
	if err != nil {
		return nil, err
	}
	raw.TransactionID = transactionID.String
	raw.TargetAccount = targetAccount.String
	raw.MethodAccount = methodAccount.String
	if linkedAt.Valid {
		t := linkedAt.Time
		raw.LinkedAt = &t
	}
	return &raw, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateRawTransaction stores a raw transaction unless its dedup key is taken
func (s *Store) CreateRawTransaction(ctx context.Context, raw *importer.RawTransaction) error {
	var linkedAt sql.NullTime
	if raw.LinkedAt != nil {
		linkedAt = sql.NullTime{Time: *raw.LinkedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO raw_transactions (`+rawColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		raw.SourceID, raw.TransactionNo, raw.Payload, raw.TransactionTime, raw.ImportedAt,
		nullString(raw.TransactionID), nullString(raw.TargetAccount), nullString(raw.MethodAccount), linkedAt)
	return translate(err, "insert raw transaction", fmt.Sprintf("raw transaction %s already exists", raw.ID()))
}

// GetRawTransaction retrieves a raw transaction by its dedup key
func (s *Store) GetRawTransaction(ctx context.Context, key importer.RawKey) (*importer.RawTransaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+rawColumns+` FROM raw_transactions WHERE source_id = ? AND transaction_no = ?`,
		key.SourceID, key.TransactionNo)
	raw, err := scanRaw(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("raw transaction %s/%s not found", key.SourceID, key.TransactionNo))
	}
	if err != nil {
		return nil, storageError("get raw transaction", err)
	}
	return raw, nil
}

// rawQuery builds the listing query for a filter
func rawQuery(filter importer.RawFilter) (string, []interface{}) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 1)
	if filter.SourceID != "" {
		conditions = append(conditions, "source_id = ?")
		args = append(args, filter.SourceID)
	}
	if filter.Linked != nil {
		if *filter.Linked {
			conditions = append(conditions, "transaction_id IS NOT NULL")
		} else {
			conditions = append(conditions, "transaction_id IS NULL")
		}
	}

	query := `SELECT ` + rawColumns + ` FROM raw_transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY transaction_time, source_id, transaction_no"
	return query, args
}

// ListRawTransactions lists raw transactions matching the filter
func (s *Store) ListRawTransactions(ctx context.Context, filter importer.RawFilter) ([]*importer.RawTransaction, error) {
	query, args := rawQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("list raw transactions", err)
	}
	defer rows.Close()

	raws := make([]*importer.RawTransaction, 0)
	for rows.Next() {
		raw, err := scanRaw(rows)
		if err != nil {
			return nil, storageError("scan raw transaction", err)
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list raw transactions", err)
	}
	return raws, nil
}
