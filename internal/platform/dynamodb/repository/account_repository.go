package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

// DynamoDBAccountRepository implements the account.Repository interface.
// All accounts share one partition sorted by path, so a subtree is a
// begins_with query.
type DynamoDBAccountRepository struct {
	table
}

// NewDynamoDBAccountRepository creates a new DynamoDBAccountRepository
func NewDynamoDBAccountRepository(client client.Client, tableName string, logger *slog.Logger) *DynamoDBAccountRepository {
	return &DynamoDBAccountRepository{table{client: client, name: tableName, logger: logger}}
}

type accountItem struct {
	PK         string
	SK         string
	Type       string
	Path       string
	Name       string
	AcctType   string
	ParentPath string `dynamodbav:",omitempty"`
	Currency   string
	CreatedAt  time.Time
}

func (i accountItem) toDomain() *account.Account {
	return &account.Account{
		Path:       i.Path,
		Name:       i.Name,
		Type:       account.AccountType(i.AcctType),
		ParentPath: i.ParentPath,
		Currency:   i.Currency,
		CreatedAt:  i.CreatedAt,
	}
}

// CreateAccount stores an account unless its path is taken
func (r *DynamoDBAccountRepository) CreateAccount(ctx context.Context, acct *account.Account) (*account.Account, error) {
	item, err := marshalItem(accountItem{
		PK:         accountsPK,
		SK:         accountSK(acct.Path),
		Type:       itemTypeAcct,
		Path:       acct.Path,
		Name:       acct.Name,
		AcctType:   string(acct.Type),
		ParentPath: acct.ParentPath,
		Currency:   acct.Currency,
		CreatedAt:  acct.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	if err := r.putNew(ctx, item, fmt.Sprintf("account %s already exists", acct.Path)); err != nil {
		return nil, err
	}
	return acct, nil
}

// GetAccount retrieves an account by path
func (r *DynamoDBAccountRepository) GetAccount(ctx context.Context, path string) (*account.Account, error) {
	item, err := r.getItem(ctx, accountsPK, accountSK(path))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("account %s not found", path))
	}

	var ai accountItem
	if err := unmarshalItem(item, &ai); err != nil {
		return nil, err
	}
	return ai.toDomain(), nil
}

// ListAccounts lists accounts passing the filter in path order
func (r *DynamoDBAccountRepository) ListAccounts(ctx context.Context, filter account.Filter) ([]*account.Account, error) {
	items, err := r.queryPrefix(ctx, accountsPK, accountSK(filter.Under))
	if err != nil {
		return nil, err
	}

	accounts := make([]*account.Account, 0, len(items))
	for _, item := range items {
		var ai accountItem
		if err := unmarshalItem(item, &ai); err != nil {
			return nil, err
		}
		acct := ai.toDomain()
		if filter.Matches(acct) {
			accounts = append(accounts, acct)
		}
	}
	return accounts, nil
}

// AccountExists reports whether an account with the path exists
func (r *DynamoDBAccountRepository) AccountExists(ctx context.Context, path string) (bool, error) {
	item, err := r.getItem(ctx, accountsPK, accountSK(path))
	if err != nil {
		return false, err
	}
	return item != nil, nil
}
