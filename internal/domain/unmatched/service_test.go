package unmatched_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	"github.com/hirosato/go-bill-ledger/internal/domain/committer"
	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
	"github.com/hirosato/go-bill-ledger/internal/domain/matcher"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
	"github.com/hirosato/go-bill-ledger/internal/domain/source"
	"github.com/hirosato/go-bill-ledger/internal/domain/unmatched"
	"github.com/hirosato/go-bill-ledger/internal/platform/memory"
)

type fixture struct {
	store     *memory.Store
	rules     *rule.Service
	committer *committer.Service
	queue     *unmatched.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	_, err := source.NewService(store).CreateSource(ctx, &source.CreateSourceRequest{SourceID: "alipay", Name: "Alipay"})
	require.NoError(t, err)
	_, err = source.NewService(store).CreateSource(ctx, &source.CreateSourceRequest{SourceID: "wechat", Name: "WeChat Pay"})
	require.NoError(t, err)

	ledgerService := ledger.NewService(store, account.NewCurrencyLookup(store), logger)
	accounts := account.NewService(store, ledgerService, "CNY", logger)
	for _, a := range []struct {
		name   string
		typ    account.AccountType
		parent string
	}{
		{"Assets", account.Assets, ""},
		{"Alipay", account.Assets, "Assets"},
		{"Expenses", account.Expenses, ""},
		{"Food", account.Expenses, "Expenses"},
		{"Transport", account.Expenses, "Expenses"},
	} {
		_, err := accounts.CreateAccount(ctx, &account.CreateAccountRequest{Name: a.name, AccountType: a.typ, ParentPath: a.parent})
		require.NoError(t, err)
	}

	rules := rule.NewService(store, store, store)
	match := matcher.NewService(rules, logger)
	commit := committer.NewService(store, ledgerService, store, store, match, logger)
	return &fixture{
		store:     store,
		rules:     rules,
		committer: commit,
		queue:     unmatched.NewService(store, match, commit, logger),
	}
}

func record(no string, minute int, counterparty string, category string) importer.ImportRecord {
	return importer.ImportRecord{
		TransactionTime: time.Date(2024, 3, 1, 9, minute, 0, 0, time.UTC),
		Counterparty:    counterparty,
		Category:        category,
		Type:            "支出",
		Amount:          "10.00",
		PaymentMethod:   "余额",
		TransactionNo:   no,
	}
}

func TestListUnmatched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	records := make([]importer.ImportRecord, 0)
	for i := 25; i > 0; i-- {
		records = append(records, record(fmt.Sprintf("A%02d", i), i, "shop", "misc"))
	}
	_, err := f.committer.ImportRecords(ctx, "alipay", records)
	require.NoError(t, err)
	_, err = f.committer.ImportRecords(ctx, "wechat", []importer.ImportRecord{record("W1", 0, "shop", "misc")})
	require.NoError(t, err)

	page, err := f.queue.ListUnmatched(ctx, unmatched.Filter{SourceID: "alipay"}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, unmatched.DefaultPageSize, page.PageSize)
	require.Len(t, page.Items, 20)
	assert.Equal(t, "A01", page.Items[0].TransactionNo)
	assert.Equal(t, "A01", page.Items[0].Record.TransactionNo)
	assert.Equal(t, "alipay/A01", page.Items[0].Record.RawTransactionID)

	second, err := f.queue.ListUnmatched(ctx, unmatched.Filter{SourceID: "alipay"}, 2, 20)
	require.NoError(t, err)
	require.Len(t, second.Items, 5)
	assert.Equal(t, "A25", second.Items[4].TransactionNo)

	beyond, err := f.queue.ListUnmatched(ctx, unmatched.Filter{SourceID: "alipay"}, 9, 20)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)

	all, err := f.queue.ListUnmatched(ctx, unmatched.Filter{}, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, unmatched.MaxPageSize, all.PageSize)
	assert.Equal(t, 26, all.Total)
	assert.Equal(t, "W1", all.Items[0].TransactionNo)
}

func TestRematch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.committer.ImportRecords(ctx, "alipay", []importer.ImportRecord{
		record("T1", 1, "Campus Canteen", "餐饮美食"),
		record("T2", 2, "Metro", "交通出行"),
	})
	require.NoError(t, err)

	_, err = f.rules.CreateRule(ctx, &rule.CreateRuleRequest{
		SourceID: "alipay", Priority: 1, CategoryPattern: "餐饮", TargetAccount: "Expenses:Food", MethodAccount: "Assets:Alipay",
	})
	require.NoError(t, err)

	result, err := f.queue.Rematch(ctx, "alipay")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Committed)
	assert.Equal(t, 1, result.Parked)

	page, err := f.queue.ListUnmatched(ctx, unmatched.Filter{SourceID: "alipay"}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "T2", page.Items[0].TransactionNo)

	_, err = f.queue.Rematch(ctx, "unknown")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSuggest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.committer.ImportRecords(ctx, "alipay", []importer.ImportRecord{
		record("P1", 1, "Campus Canteen", "餐饮美食"),
		record("P2", 2, "Noodle House", "餐饮美食"),
		record("P3", 3, "Metro Line 2", "交通出行"),
		record("N1", 4, "Campus Canteen", "餐饮美食"),
	})
	require.NoError(t, err)

	t.Run("no history", func(t *testing.T) {
		suggestions, err := f.queue.Suggest(ctx, "alipay", "N1", 0)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})

	for no, target := range map[string]string{"P1": "Expenses:Food", "P2": "Expenses:Food", "P3": "Expenses:Transport"} {
		_, err := f.committer.ClassifyRaw(ctx, "alipay", no, target, "Assets:Alipay")
		require.NoError(t, err)
	}

	suggestions, err := f.queue.Suggest(ctx, "alipay", "N1", 1)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Expenses:Food", suggestions[0].Account)
	assert.Greater(t, suggestions[0].Probability, 0.5)

	_, err = f.queue.Suggest(ctx, "alipay", "missing", 3)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.queue.Suggest(ctx, "alipay", "P1", 3)
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestWords(t *testing.T) {
	words := unmatched.Words(importer.ImportRecord{Counterparty: "Campus  Canteen", Category: "餐饮美食", Description: ""})
	assert.Equal(t, []string{"campus", "canteen", "餐饮美食"}, words)
}
