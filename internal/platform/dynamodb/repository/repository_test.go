package repository

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
	"github.com/hirosato/go-bill-ledger/internal/domain/source"
	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

func newFactory() (*Factory, *TestClient) {
	tc := NewTestClient()
	return NewFactory(tc, "test-table", slog.Default()), tc
}

func boolPtr(b bool) *bool { return &b }

func TestSourceRepository(t *testing.T) {
	ctx := context.Background()
	f, _ := newFactory()
	repo := f.SourceRepository()

	for _, id := range []string{"wechat", "alipay"} {
		_, err := repo.CreateSource(ctx, &source.ImportSource{SourceID: id, Name: id, CreatedAt: time.Now().UTC()})
		require.NoError(t, err)
	}

	_, err := repo.CreateSource(ctx, &source.ImportSource{SourceID: "wechat", Name: "again"})
	assert.Equal(t, commonErrors.CodeConflict, commonErrors.CodeOf(err))

	got, err := repo.GetSource(ctx, "wechat")
	require.NoError(t, err)
	assert.Equal(t, "wechat", got.Name)

	_, err = repo.GetSource(ctx, "bank")
	assert.True(t, commonErrors.Is(err, commonErrors.ErrNotFound))

	sources, err := repo.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "alipay", sources[0].SourceID)

	exists, err := repo.SourceExists(ctx, "bank")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRuleRepository(t *testing.T) {
	ctx := context.Background()
	f, _ := newFactory()
	repo := f.RuleRepository()

	minAmount := decimal.RequireFromString("10.005")
	stored := &rule.ImportRule{
		RuleID:              "01A",
		SourceID:            "wechat",
		Priority:            5,
		Enabled:             true,
		CounterpartyPattern: "Starbucks",
		MinAmount:           &minAmount,
		TargetAccount:       "Expenses:Food",
	}
	_, err := repo.CreateRule(ctx, stored)
	require.NoError(t, err)

	t.Run("amount bounds keep full precision", func(t *testing.T) {
		got, err := repo.GetRule(ctx, "wechat", "01A")
		require.NoError(t, err)
		require.NotNil(t, got.MinAmount)
		assert.True(t, got.MinAmount.Equal(minAmount))
		assert.Nil(t, got.MaxAmount)
		assert.Equal(t, "Starbucks", got.CounterpartyPattern)
	})

	t.Run("update replaces the rule", func(t *testing.T) {
		updated := *stored
		updated.Enabled = false
		updated.MinAmount = nil
		_, err := repo.UpdateRule(ctx, &updated)
		require.NoError(t, err)

		got, err := repo.GetRule(ctx, "wechat", "01A")
		require.NoError(t, err)
		assert.False(t, got.Enabled)
		assert.Nil(t, got.MinAmount)
	})

	t.Run("update of a missing rule", func(t *testing.T) {
		missing := *stored
		missing.RuleID = "01Z"
		_, err := repo.UpdateRule(ctx, &missing)
		assert.True(t, commonErrors.Is(err, commonErrors.ErrNotFound))
	})

	t.Run("rules stay in their source partition", func(t *testing.T) {
		_, err := repo.CreateRule(ctx, &rule.ImportRule{RuleID: "01B", SourceID: "alipay", Enabled: true})
		require.NoError(t, err)

		rules, err := repo.ListRules(ctx, "wechat")
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "01A", rules[0].RuleID)
	})
}

func TestRawAndLedgerRepositories(t *testing.T) {
	ctx := context.Background()
	f, _ := newFactory()
	raws := f.RawRepository()
	ledgerRepo := f.LedgerRepository()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, no := range []string{"T2", "T1"} {
		err := raws.CreateRawTransaction(ctx, &importer.RawTransaction{
			SourceID:        "wechat",
			TransactionNo:   no,
			Payload:         `{"transactionNo":"` + no + `"}`,
			TransactionTime: base.Add(time.Duration(i) * time.Hour),
			ImportedAt:      base,
		})
		require.NoError(t, err)
	}

	t.Run("dedup key is unique", func(t *testing.T) {
		err := raws.CreateRawTransaction(ctx, &importer.RawTransaction{SourceID: "wechat", TransactionNo: "T1"})
		assert.True(t, commonErrors.Is(err, commonErrors.ErrConflict))
	})

	t.Run("unlinked raws are read from the index in time order", func(t *testing.T) {
		unlinked, err := raws.ListRawTransactions(ctx, importer.RawFilter{SourceID: "wechat", Linked: boolPtr(false)})
		require.NoError(t, err)
		require.Len(t, unlinked, 2)
		assert.Equal(t, "T2", unlinked[0].TransactionNo)
	})

	tx := &ledger.Transaction{
		TransactionID: "TX1",
		Kind:          ledger.KindImport,
		Date:          base,
		Narration:     "coffee",
		CreatedAt:     base,
		Postings: []ledger.Posting{
			{PostingID: "P1", TransactionID: "TX1", Account: "Assets:Bank", Amount: decimal.RequireFromString("-12.50"), Currency: "CNY"},
			{PostingID: "P2", TransactionID: "TX1", Account: "Expenses:Food", Amount: decimal.RequireFromString("12.50"), Currency: "CNY"},
		},
		RawTransactionKeys: []importer.RawKey{{SourceID: "wechat", TransactionNo: "T1"}},
	}
	link := importer.RawLink{
		Key:           importer.RawKey{SourceID: "wechat", TransactionNo: "T1"},
		TransactionID: "TX1",
		TargetAccount: "Expenses:Food",
		MethodAccount: "Assets:Bank",
		LinkedAt:      base,
	}

	t.Run("transaction links its raw atomically", func(t *testing.T) {
		require.NoError(t, ledgerRepo.CreateTransaction(ctx, tx, []importer.RawLink{link}))

		raw, err := raws.GetRawTransaction(ctx, link.Key)
		require.NoError(t, err)
		assert.Equal(t, "TX1", raw.TransactionID)
		assert.Equal(t, "Expenses:Food", raw.TargetAccount)
		require.NotNil(t, raw.LinkedAt)
		assert.True(t, raw.LinkedAt.Equal(base))

		unlinked, err := raws.ListRawTransactions(ctx, importer.RawFilter{Linked: boolPtr(false)})
		require.NoError(t, err)
		require.Len(t, unlinked, 1)
		assert.Equal(t, "T2", unlinked[0].TransactionNo)

		linked, err := raws.ListRawTransactions(ctx, importer.RawFilter{SourceID: "wechat", Linked: boolPtr(true)})
		require.NoError(t, err)
		require.Len(t, linked, 1)
		assert.Equal(t, "T1", linked[0].TransactionNo)
	})

	t.Run("transaction round trips", func(t *testing.T) {
		got, err := ledgerRepo.GetTransaction(ctx, "TX1")
		require.NoError(t, err)
		assert.Equal(t, ledger.KindImport, got.Kind)
		require.Len(t, got.Postings, 2)
		assert.True(t, got.Postings[0].Amount.Equal(decimal.RequireFromString("-12.50")))
		assert.Equal(t, tx.RawTransactionKeys, got.RawTransactionKeys)

		_, err = ledgerRepo.GetTransaction(ctx, "TX9")
		assert.True(t, commonErrors.Is(err, commonErrors.ErrNotFound))
	})

	t.Run("second link on a raw writes nothing", func(t *testing.T) {
		second := *tx
		second.TransactionID = "TX2"
		second.Postings = []ledger.Posting{
			{PostingID: "P3", TransactionID: "TX2", Account: "Assets:Bank", Amount: decimal.RequireFromString("-12.50"), Currency: "CNY"},
			{PostingID: "P4", TransactionID: "TX2", Account: "Expenses:Food", Amount: decimal.RequireFromString("12.50"), Currency: "CNY"},
		}
		relink := link
		relink.TransactionID = "TX2"

		err := ledgerRepo.CreateTransaction(ctx, &second, []importer.RawLink{relink})
		assert.True(t, commonErrors.Is(err, commonErrors.ErrConflict))

		postings, err := ledgerRepo.ListPostings(ctx, "Assets:Bank")
		require.NoError(t, err)
		assert.Len(t, postings, 1)

		_, err = ledgerRepo.GetTransaction(ctx, "TX2")
		assert.True(t, commonErrors.Is(err, commonErrors.ErrNotFound))
	})

	t.Run("link to a missing raw fails", func(t *testing.T) {
		manual := *tx
		manual.TransactionID = "TX3"
		missing := link
		missing.Key = importer.RawKey{SourceID: "wechat", TransactionNo: "T9"}

		err := ledgerRepo.CreateTransaction(ctx, &manual, []importer.RawLink{missing})
		assert.True(t, commonErrors.Is(err, commonErrors.ErrConflict))
	})
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	f, _ := newFactory()
	repo := f.AccountRepository()

	for _, acct := range []*account.Account{
		{Path: "Assets", Name: "Assets", Type: account.Assets, Currency: "CNY"},
		{Path: "Assets:Bank", Name: "Bank", Type: account.Assets, ParentPath: "Assets", Currency: "CNY"},
		{Path: "Assets:BankCard", Name: "BankCard", Type: account.Assets, ParentPath: "Assets", Currency: "CNY"},
		{Path: "Assets:Bank:Checking", Name: "Checking", Type: account.Assets, ParentPath: "Assets:Bank", Currency: "CNY"},
		{Path: "Expenses", Name: "Expenses", Type: account.Expenses, Currency: "CNY"},
	} {
		_, err := repo.CreateAccount(ctx, acct)
		require.NoError(t, err)
	}

	_, err := repo.CreateAccount(ctx, &account.Account{Path: "Assets:Bank", Name: "Bank", Type: account.Assets})
	assert.True(t, commonErrors.Is(err, commonErrors.ErrConflict))

	subtree, err := repo.ListAccounts(ctx, account.Filter{Under: "Assets:Bank"})
	require.NoError(t, err)
	paths := make([]string, 0, len(subtree))
	for _, a := range subtree {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{"Assets:Bank", "Assets:Bank:Checking"}, paths)

	expenses, err := repo.ListAccounts(ctx, account.Filter{Type: account.Expenses})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Expenses", expenses[0].Path)

	got, err := repo.GetAccount(ctx, "Assets:Bank:Checking")
	require.NoError(t, err)
	assert.Equal(t, "Assets:Bank", got.ParentPath)
	assert.Equal(t, account.Assets, got.Type)
}

func TestQueryFollowsPages(t *testing.T) {
	ctx := context.Background()
	f, tc := newFactory()
	tc.PageSize = 2
	repo := f.SourceRepository()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, err := repo.CreateSource(ctx, &source.ImportSource{SourceID: id, Name: id})
		require.NoError(t, err)
	}

	sources, err := repo.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 5)
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	mock := client.NewMockDynamoDBClient()
	mock.QueryFn = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
		return nil, errors.New("throttled")
	}
	mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
		return nil, errors.New("connection reset")
	}
	f := NewFactory(mock, "test-table", slog.Default())

	_, err := f.AccountRepository().ListAccounts(ctx, account.Filter{})
	assert.Equal(t, commonErrors.CodeStorage, commonErrors.CodeOf(err))

	err = f.LedgerRepository().CreateTransaction(ctx, &ledger.Transaction{TransactionID: "TX1"}, nil)
	assert.Equal(t, commonErrors.CodeStorage, commonErrors.CodeOf(err))
}
