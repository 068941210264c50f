package tools

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/hirosato/go-bill-ledger/internal/common/utils"
	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
)

// CreateAccountTool adds an account to the hierarchy
type CreateAccountTool struct {
	accountService *account.Service
}

func NewCreateAccountTool(accountService *account.Service) *CreateAccountTool {
	return &CreateAccountTool{
		accountService: accountService,
	}
}

func (t *CreateAccountTool) GetName() string {
	return "create-account"
}

func (t *CreateAccountTool) GetDescription() string {
	return "Creates an account under an optional parent of the same type, optionally with an opening balance offset against Equity:OpeningBalances"
}

func (t *CreateAccountTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"name": stringProp("Account name, a single path segment"),
			"accountType": map[string]interface{}{
				"type":        "string",
				"description": "Account type",
				"enum":        []account.AccountType{account.Assets, account.Liabilities, account.Income, account.Expenses, account.Equity},
			},
			"parentPath":     stringProp("Path of the parent account, e.g. Assets:Bank"),
			"currency":       stringProp("Currency code; defaults to the parent's or the ledger default"),
			"openingBalance": stringProp("Opening balance as a decimal string"),
		},
		Required: []string{"name", "accountType"},
	}
}

func (t *CreateAccountTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args account.CreateAccountRequest
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	created, err := t.accountService.CreateAccount(ctx, &args)
	if err != nil {
		return errorResult("Error creating account", err), nil
	}
	return jsonResult("Account created", created)
}

// GetAccountBalanceTool reports a direct or subtree balance
type GetAccountBalanceTool struct {
	accountService *account.Service
}

func NewGetAccountBalanceTool(accountService *account.Service) *GetAccountBalanceTool {
	return &GetAccountBalanceTool{
		accountService: accountService,
	}
}

func (t *GetAccountBalanceTool) GetName() string {
	return "get-account-balance"
}

func (t *GetAccountBalanceTool) GetDescription() string {
	return "Returns the balance of an account; with subtree set, the balance includes every descendant account"
}

func (t *GetAccountBalanceTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"path": stringProp("Account path, e.g. Assets:Bank"),
			"subtree": map[string]interface{}{
				"type":        "boolean",
				"description": "Include descendant accounts",
				"default":     false,
			},
		},
		Required: []string{"path"},
	}
}

func (t *GetAccountBalanceTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Path    string `json:"path"`
		Subtree bool   `json:"subtree"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}
	if err := utils.ValidateAccountPath(args.Path); err != nil {
		return errorResult("Error reading balance", err), nil
	}

	var (
		balance *account.BalanceResponse
		err     error
	)
	if args.Subtree {
		balance, err = t.accountService.SubtreeBalance(ctx, args.Path)
	} else {
		balance, err = t.accountService.Balance(ctx, args.Path)
	}
	if err != nil {
		return errorResult("Error reading balance", err), nil
	}
	return jsonResult("Balance", balance)
}

// AdjustBalanceTool books the difference to a target balance
type AdjustBalanceTool struct {
	accountService *account.Service
}

func NewAdjustBalanceTool(accountService *account.Service) *AdjustBalanceTool {
	return &AdjustBalanceTool{
		accountService: accountService,
	}
}

func (t *AdjustBalanceTool) GetName() string {
	return "adjust-balance"
}

func (t *AdjustBalanceTool) GetDescription() string {
	return "Brings an account to the given balance by recording the difference against Equity:Adjustments"
}

func (t *AdjustBalanceTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"path":       stringProp("Account path"),
			"newBalance": stringProp("Target balance as a decimal string"),
		},
		Required: []string{"path", "newBalance"},
	}
}

func (t *AdjustBalanceTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Path       string          `json:"path"`
		NewBalance decimal.Decimal `json:"newBalance"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	tx, err := t.accountService.AdjustBalance(ctx, args.Path, args.NewBalance)
	if err != nil {
		return errorResult("Error adjusting balance", err), nil
	}
	if tx == nil {
		return jsonResult("Balance already matches, nothing recorded", map[string]string{"path": args.Path})
	}
	return jsonResult("Adjustment recorded", tx)
}
