package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
)

// CreateTransaction writes the transaction, its postings and the raw links
// in one database transaction. A link only applies to an unlinked raw
// transaction; otherwise everything rolls back with a CONFLICT.
func (s *Store) CreateTransaction(ctx context.Context, t *ledger.Transaction, links []importer.RawLink) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (transaction_id, kind, tx_date, payee, narration, tags, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.TransactionID, string(t.Kind), t.Date, t.Payee, t.Narration, tags, t.CreatedAt)
		if err != nil {
			return translate(err, "insert transaction", fmt.Sprintf("transaction %s already exists", t.TransactionID))
		}

		for i, p := range t.Postings {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO postings (posting_id, transaction_id, seq, account_path, amount, currency) VALUES (?, ?, ?, ?, ?, ?)`,
				p.PostingID, t.TransactionID, i, p.Account, p.Amount, p.Currency)
			if err != nil {
				return translate(err, "insert posting", fmt.Sprintf("posting %s already exists", p.PostingID))
			}
		}

		for _, link := range links {
			res, err := tx.ExecContext(ctx,
				`UPDATE raw_transactions SET transaction_id = ?, target_account = ?, method_account = ?, linked_at = ?
				WHERE source_id = ? AND transaction_no = ? AND transaction_id IS NULL`,
				link.TransactionID, link.TargetAccount, link.MethodAccount, link.LinkedAt,
				link.Key.SourceID, link.Key.TransactionNo)
			if err != nil {
				return storageError("link raw transaction", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return storageError("link raw transaction", err)
			}
			if n != 1 {
				return commonErrors.NewConflictError(fmt.Sprintf("raw transaction %s/%s is missing or already linked",
					link.Key.SourceID, link.Key.TransactionNo))
			}
		}
		return nil
	})
}

// GetTransaction retrieves a transaction with its postings and raw keys
func (s *Store) GetTransaction(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	var (
		t    ledger.Transaction
		kind string
		tags string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT transaction_id, kind, tx_date, payee, narration, tags, created_at FROM transactions WHERE transaction_id = ?`,
		transactionID).Scan(&t.TransactionID, &kind, &t.Date, &t.Payee, &t.Narration, &tags, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("transaction %s not found", transactionID))
	}
	if err != nil {
		return nil, storageError("get transaction", err)
	}
	t.Kind = ledger.Kind(kind)
	if t.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}

	if t.Postings, err = s.queryPostings(ctx,
		`SELECT posting_id, transaction_id, account_path, amount, currency FROM postings WHERE transaction_id = ? ORDER BY seq`,
		transactionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, transaction_no FROM raw_transactions WHERE transaction_id = ? ORDER BY source_id, transaction_no`,
		transactionID)
	if err != nil {
		return nil, storageError("list raw keys", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key importer.RawKey
		if err := rows.Scan(&key.SourceID, &key.TransactionNo); err != nil {
			return nil, storageError("scan raw key", err)
		}
		t.RawTransactionKeys = append(t.RawTransactionKeys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list raw keys", err)
	}
	return &t, nil
}

// ListPostings lists the postings made directly on an account
func (s *Store) ListPostings(ctx context.Context, accountPath string) ([]ledger.Posting, error) {
	return s.queryPostings(ctx,
		`SELECT posting_id, transaction_id, account_path, amount, currency FROM postings WHERE account_path = ? ORDER BY posting_id`,
		accountPath)
}

func (s *Store) queryPostings(ctx context.Context, query string, arg interface{}) ([]ledger.Posting, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, storageError("list postings", err)
	}
	defer rows.Close()

	postings := make([]ledger.Posting, 0)
	for rows.Next() {
		var p ledger.Posting
		if err := rows.Scan(&p.PostingID, &p.TransactionID, &p.Account, &p.Amount, &p.Currency); err != nil {
			return nil, storageError("scan posting", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list postings", err)
	}
	return postings, nil
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", commonErrors.NewInternalError("failed to encode tags", err)
	}
	return string(b), nil
}

func decodeTags(raw string) ([]string, error) {
	var tags []string
	if raw == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, commonErrors.NewInternalError("stored tags are not a JSON array", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}
