package resources

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/go-bill-ledger/internal/app"
	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/source"
	"github.com/hirosato/go-bill-ledger/internal/domain/unmatched"
	"github.com/hirosato/go-bill-ledger/internal/platform/memory"
)

func newServices(t *testing.T) *app.Services {
	t.Helper()
	ctx := context.Background()
	svc := app.NewServices(app.FromStore(memory.NewStore()), "CNY", slog.Default())

	_, err := svc.Sources.CreateSource(ctx, &source.CreateSourceRequest{SourceID: "alipay", Name: "Alipay"})
	require.NoError(t, err)
	for _, req := range []*account.CreateAccountRequest{
		{Name: "Assets", AccountType: account.Assets},
		{Name: "Alipay", AccountType: account.Assets, ParentPath: "Assets"},
	} {
		_, err := svc.Accounts.CreateAccount(ctx, req)
		require.NoError(t, err)
	}

	// no rules, so the record is parked
	_, err = svc.Committer.ImportRecords(ctx, "alipay", []importer.ImportRecord{
		{TransactionNo: "A1", TransactionTime: time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC), Type: "支出", Amount: "12.50", Counterparty: "Hema"},
	})
	require.NoError(t, err)
	return svc
}

func TestAccountResources(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	t.Run("tree", func(t *testing.T) {
		result, err := NewAccountTreeResource(svc.Accounts).Read(ctx)
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, AccountsURI, result.Contents[0].URI)
		assert.Equal(t, jsonMimeType, result.Contents[0].MimeType)
		assert.Contains(t, result.Contents[0].Text, "Assets:Alipay")
	})

	t.Run("single account", func(t *testing.T) {
		handler, err := NewAccountResourceFactory(svc.Accounts).CreateResource("ledger://accounts/Assets:Alipay")
		require.NoError(t, err)
		assert.Equal(t, "ledger://accounts/Assets:Alipay", handler.GetURI())

		result, err := handler.Read(ctx)
		require.NoError(t, err)
		var body struct {
			Account account.Account         `json:"account"`
			Balance account.BalanceResponse `json:"balance"`
		}
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &body))
		assert.Equal(t, "Assets:Alipay", body.Account.Path)
		assert.True(t, body.Balance.Balance.IsZero())
	})

	t.Run("missing account", func(t *testing.T) {
		handler, err := NewAccountResourceFactory(svc.Accounts).CreateResource("ledger://accounts/Assets:Nowhere")
		require.NoError(t, err)
		_, err = handler.Read(ctx)
		assert.Error(t, err)
	})

	t.Run("bad path", func(t *testing.T) {
		_, err := NewAccountResourceFactory(svc.Accounts).CreateResource("ledger://accounts/Assets:")
		assert.Error(t, err)
	})
}

func TestUnmatchedResources(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	factory := NewUnmatchedResourceFactory(svc.Unmatched)

	for _, uri := range []string{UnmatchedURI, "ledger://unmatched/alipay"} {
		t.Run(uri, func(t *testing.T) {
			var r *UnmatchedResource
			if uri == UnmatchedURI {
				r = NewUnmatchedResource(svc.Unmatched, "")
			} else {
				h, err := factory.CreateResource(uri)
				require.NoError(t, err)
				r = h.(*UnmatchedResource)
			}
			assert.Equal(t, uri, r.GetURI())

			result, err := r.Read(ctx)
			require.NoError(t, err)
			var page unmatched.Page
			require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &page))
			require.Len(t, page.Items, 1)
			assert.Equal(t, "A1", page.Items[0].TransactionNo)
		})
	}

	_, err := factory.CreateResource("ledger://unmatched/alipay/extra")
	assert.Error(t, err)
}
