package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirosato/go-bill-ledger/internal/common/utils"
	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
)

// AccountsURI is the account hierarchy; AccountsURI/{path} is one account
const AccountsURI = "ledger://accounts"

type AccountTreeResource struct {
	accountService *account.Service
}

func NewAccountTreeResource(accountService *account.Service) *AccountTreeResource {
	return &AccountTreeResource{
		accountService: accountService,
	}
}

func (r *AccountTreeResource) GetURI() string {
	return AccountsURI
}

func (r *AccountTreeResource) GetName() string {
	return "Account Hierarchy"
}

func (r *AccountTreeResource) GetDescription() string {
	return "Every account as a tree of parents and children. Use ledger://accounts/{path} for a single account, e.g. ledger://accounts/Assets:Bank"
}

func (r *AccountTreeResource) GetMimeType() string {
	return jsonMimeType
}

func (r *AccountTreeResource) Read(ctx context.Context) (*mcp.ReadResourceResult, error) {
	tree, err := r.accountService.GetAccountHierarchy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build account hierarchy: %w", err)
	}
	return jsonContent(r.GetURI(), tree)
}

// AccountResource is one account with its subtree balance
type AccountResource struct {
	accountService *account.Service
	path           string
}

func NewAccountResource(accountService *account.Service, path string) *AccountResource {
	return &AccountResource{
		accountService: accountService,
		path:           path,
	}
}

func (r *AccountResource) GetURI() string {
	return AccountsURI + "/" + r.path
}

func (r *AccountResource) GetName() string {
	return fmt.Sprintf("Account %s", r.path)
}

func (r *AccountResource) GetDescription() string {
	return fmt.Sprintf("Account %s with its balance including descendants", r.path)
}

func (r *AccountResource) GetMimeType() string {
	return jsonMimeType
}

func (r *AccountResource) Read(ctx context.Context) (*mcp.ReadResourceResult, error) {
	acct, err := r.accountService.GetAccount(ctx, r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", r.path, err)
	}
	balance, err := r.accountService.SubtreeBalance(ctx, r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", r.path, err)
	}

	return jsonContent(r.GetURI(), struct {
		Account *account.Account         `json:"account"`
		Balance *account.BalanceResponse `json:"balance"`
	}{acct, balance})
}

// AccountResourceFactory serves ledger://accounts/{path}
type AccountResourceFactory struct {
	accountService *account.Service
}

func NewAccountResourceFactory(accountService *account.Service) *AccountResourceFactory {
	return &AccountResourceFactory{
		accountService: accountService,
	}
}

func (f *AccountResourceFactory) Template() mcp.ResourceTemplate {
	return mcp.ResourceTemplate{
		URITemplate: AccountsURI + "/{path}",
		Name:        "Account",
		Description: "One account with its subtree balance, addressed by colon-separated path.",
		MimeType:    jsonMimeType,
	}
}

func (f *AccountResourceFactory) CreateResource(uri string) (mcp.ResourceHandler, error) {
	path := strings.TrimPrefix(uri, AccountsURI+"/")
	if path == uri {
		return nil, fmt.Errorf("invalid URI pattern: %s", uri)
	}
	if err := utils.ValidateAccountPath(path); err != nil {
		return nil, err
	}
	return NewAccountResource(f.accountService, path), nil
}
