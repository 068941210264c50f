package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
	"github.com/hirosato/go-bill-ledger/internal/platform/memory"
)

func setup(t *testing.T) (*ledger.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	for _, path := range []string{"Assets", "Assets:Bank", "Expenses", "Expenses:Food"} {
		_, err := store.CreateAccount(context.Background(), &account.Account{Path: path, Currency: "CNY"})
		require.NoError(t, err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ledger.NewService(store, account.NewCurrencyLookup(store), logger), store
}

func postings(method, target string) []ledger.PostingInput {
	return []ledger.PostingInput{
		{Account: method, Amount: decimal.RequireFromString("-1234.56"), Currency: "CNY"},
		{Account: target, Amount: decimal.RequireFromString("1234.56"), Currency: "CNY"},
	}
}

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("records balanced postings", func(t *testing.T) {
		svc, _ := setup(t)
		tx, err := svc.CreateTransaction(ctx, &ledger.CreateTransactionRequest{
			Payee:    "Canteen",
			Postings: postings("Assets:Bank", "Expenses:Food"),
			Tags:     []string{"lunch"},
		})
		require.NoError(t, err)

		assert.NotEmpty(t, tx.TransactionID)
		assert.Equal(t, ledger.KindManual, tx.Kind)
		require.Len(t, tx.Postings, 2)
		for _, p := range tx.Postings {
			assert.Equal(t, tx.TransactionID, p.TransactionID)
			assert.NotEmpty(t, p.PostingID)
		}

		stored, err := svc.GetTransaction(ctx, tx.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, []string{"lunch"}, stored.Tags)

		sum, err := svc.SumPostings(ctx, "Assets:Bank", "Expenses:Food")
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("rejected before any write", func(t *testing.T) {
		tests := []struct {
			name     string
			postings []ledger.PostingInput
			want     error
		}{
			{
				name:     "single posting",
				postings: postings("Assets:Bank", "Expenses:Food")[:1],
				want:     errors.ErrValidation,
			},
			{
				name: "unbalanced",
				postings: []ledger.PostingInput{
					{Account: "Assets:Bank", Amount: decimal.RequireFromString("-10"), Currency: "CNY"},
					{Account: "Expenses:Food", Amount: decimal.RequireFromString("9.9"), Currency: "CNY"},
				},
				want: errors.ErrValidation,
			},
			{
				name: "mixed currencies",
				postings: []ledger.PostingInput{
					{Account: "Assets:Bank", Amount: decimal.RequireFromString("-10"), Currency: "CNY"},
					{Account: "Expenses:Food", Amount: decimal.RequireFromString("10"), Currency: "USD"},
				},
				want: errors.ErrValidation,
			},
			{
				name: "currency differs from the account",
				postings: []ledger.PostingInput{
					{Account: "Assets:Bank", Amount: decimal.RequireFromString("-10"), Currency: "USD"},
					{Account: "Expenses:Food", Amount: decimal.RequireFromString("10"), Currency: "USD"},
				},
				want: errors.ErrValidation,
			},
			{
				name:     "unknown account",
				postings: postings("Assets:Bank", "Expenses:Travel"),
				want:     errors.ErrNotFound,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, store := setup(t)
				_, err := svc.CreateTransaction(ctx, &ledger.CreateTransactionRequest{Postings: tt.postings})
				assert.ErrorIs(t, err, tt.want)

				written, err := store.ListPostings(ctx, "Assets:Bank")
				require.NoError(t, err)
				assert.Empty(t, written)
			})
		}
	})

	t.Run("links raw transactions atomically", func(t *testing.T) {
		svc, store := setup(t)
		raw, err := importer.NewRawTransaction("alipay", importer.ImportRecord{TransactionNo: "T1", Amount: "1"}, time.Now())
		require.NoError(t, err)
		require.NoError(t, store.CreateRawTransaction(ctx, raw))
		key := importer.NewRawKey("alipay", "T1")

		tx, err := svc.CreateTransaction(ctx, &ledger.CreateTransactionRequest{
			Kind:     ledger.KindImport,
			Postings: postings("Assets:Bank", "Expenses:Food"),
			Links:    []importer.RawLink{{Key: key, TargetAccount: "Expenses:Food", MethodAccount: "Assets:Bank"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []importer.RawKey{key}, tx.RawTransactionKeys)

		linked, err := store.GetRawTransaction(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, tx.TransactionID, linked.TransactionID)
		assert.NotNil(t, linked.LinkedAt)

		_, err = svc.CreateTransaction(ctx, &ledger.CreateTransactionRequest{
			Kind:     ledger.KindImport,
			Postings: postings("Assets:Bank", "Expenses:Food"),
			Links:    []importer.RawLink{{Key: key}},
		})
		assert.ErrorIs(t, err, errors.ErrConflict)

		written, err := store.ListPostings(ctx, "Assets:Bank")
		require.NoError(t, err)
		assert.Len(t, written, 1)
	})
}
