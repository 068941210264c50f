package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/go-bill-ledger/internal/app"
	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
	"github.com/hirosato/go-bill-ledger/internal/platform/memory"
)

func newServices(t *testing.T) *app.Services {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return app.NewServices(app.FromStore(memory.NewStore()), "CNY", logger)
}

func call(t *testing.T, tool mcp.ToolHandler, arguments string) *mcp.CallToolResult {
	t.Helper()
	result, err := tool.Execute(context.Background(), json.RawMessage(arguments))
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	return result
}

func mustSucceed(t *testing.T, tool mcp.ToolHandler, arguments string) string {
	t.Helper()
	result := call(t, tool, arguments)
	require.False(t, result.IsError, result.Content[0].Text)
	return result.Content[0].Text
}

// seed creates a wechat source, a small account tree and one Starbucks rule
func seed(t *testing.T, svc *app.Services) {
	t.Helper()
	mustSucceed(t, NewCreateImportSourceTool(svc.Sources), `{"sourceId":"wechat","name":"WeChat Pay","provider":"wechat"}`)

	createAccount := NewCreateAccountTool(svc.Accounts)
	for _, args := range []string{
		`{"name":"Assets","accountType":"ASSETS"}`,
		`{"name":"WeChat","accountType":"ASSETS","parentPath":"Assets","openingBalance":"100"}`,
		`{"name":"Expenses","accountType":"EXPENSES"}`,
		`{"name":"Food","accountType":"EXPENSES","parentPath":"Expenses"}`,
		`{"name":"Transport","accountType":"EXPENSES","parentPath":"Expenses"}`,
	} {
		mustSucceed(t, createAccount, args)
	}

	mustSucceed(t, NewCreateRuleTool(svc.Rules), `{
		"sourceId": "wechat",
		"name": "coffee",
		"priority": 10,
		"counterpartyPattern": "Starbucks",
		"targetAccount": "Expenses:Food",
		"methodAccount": "Assets:WeChat"
	}`)
}

const importArgs = `{
	"sourceId": "wechat",
	"records": [
		{"transactionNo": "W1", "transactionTime": "2024-03-01T08:30:00Z", "type": "支出", "amount": "¥32.00", "counterparty": "Starbucks"},
		{"transactionNo": "W2", "transactionTime": "2024-03-01T09:00:00Z", "type": "支出", "amount": "¥4.00", "counterparty": "Metro"}
	]
}`

func TestImportFlow(t *testing.T) {
	svc := newServices(t)
	seed(t, svc)

	t.Run("match previews without writing", func(t *testing.T) {
		text := mustSucceed(t, NewMatchTransactionsTool(svc.Matcher), importArgs)
		assert.Contains(t, text, "1 matched, 1 unmatched")

		text = mustSucceed(t, NewListUnmatchedTool(svc.Unmatched), `{"sourceId":"wechat"}`)
		assert.Contains(t, text, "(0 unmatched)")
	})

	t.Run("import commits and parks", func(t *testing.T) {
		text := mustSucceed(t, NewImportRecordsTool(svc.Committer), importArgs)
		assert.Contains(t, text, "1 committed, 0 duplicates, 1 parked, 0 failed")
	})

	t.Run("reimport reports duplicates", func(t *testing.T) {
		text := mustSucceed(t, NewImportRecordsTool(svc.Committer), importArgs)
		assert.Contains(t, text, "0 committed, 1 duplicates")
	})

	t.Run("parked record is listed", func(t *testing.T) {
		text := mustSucceed(t, NewListUnmatchedTool(svc.Unmatched), `{"sourceId":"wechat","page":0,"pageSize":500}`)
		assert.Contains(t, text, "Page 1 of 1 (1 unmatched)")
		assert.Contains(t, text, `"transactionNo": "W2"`)
	})

	t.Run("classify clears the queue", func(t *testing.T) {
		mustSucceed(t, NewClassifyRawTransactionTool(svc.Committer), `{
			"sourceId": "wechat",
			"transactionNo": "W2",
			"targetAccount": "Expenses:Transport",
			"methodAccount": "Assets:WeChat"
		}`)

		result := call(t, NewClassifyRawTransactionTool(svc.Committer), `{
			"sourceId": "wechat",
			"transactionNo": "W2",
			"targetAccount": "Expenses:Transport",
			"methodAccount": "Assets:WeChat"
		}`)
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content[0].Text, "[CONFLICT]")

		text := mustSucceed(t, NewListUnmatchedTool(svc.Unmatched), `{}`)
		assert.Contains(t, text, "(0 unmatched)")
	})

	t.Run("balances", func(t *testing.T) {
		balance := NewGetAccountBalanceTool(svc.Accounts)

		text := mustSucceed(t, balance, `{"path":"Expenses","subtree":true}`)
		assert.Contains(t, text, `"36"`)

		text = mustSucceed(t, balance, `{"path":"Assets:WeChat"}`)
		assert.Contains(t, text, `"64"`)
	})
}

func TestAdjustBalanceTool(t *testing.T) {
	svc := newServices(t)
	seed(t, svc)
	adjust := NewAdjustBalanceTool(svc.Accounts)

	text := mustSucceed(t, adjust, `{"path":"Assets:WeChat","newBalance":"100"}`)
	assert.Contains(t, text, "nothing recorded")

	text = mustSucceed(t, adjust, `{"path":"Assets:WeChat","newBalance":"90.5"}`)
	assert.Contains(t, text, "Adjustment recorded")
	assert.Contains(t, text, "Equity:Adjustments")

	text = mustSucceed(t, NewGetAccountBalanceTool(svc.Accounts), `{"path":"Assets:WeChat"}`)
	assert.Contains(t, text, `"90.5"`)
}

func TestRuleTools(t *testing.T) {
	svc := newServices(t)
	seed(t, svc)

	text := mustSucceed(t, NewListRulesTool(svc.Rules), `{"sourceId":"wechat"}`)
	assert.Contains(t, text, "1 rules")

	var rules []struct {
		RuleID string `json:"ruleId"`
	}
	require.NoError(t, json.Unmarshal([]byte(text[len("1 rules:\n"):]), &rules))
	require.Len(t, rules, 1)

	text = mustSucceed(t, NewUpdateRuleTool(svc.Rules), `{"sourceId":"wechat","ruleId":"`+rules[0].RuleID+`","priority":5,"counterpartyPattern":"Costa"}`)
	assert.Contains(t, text, `"priority": 5`)
	assert.Contains(t, text, "Costa")

	// A parked Starbucks record now stays parked after rematch
	mustSucceed(t, NewImportRecordsTool(svc.Committer), importArgs)
	text = mustSucceed(t, NewRematchUnmatchedTool(svc.Unmatched), `{"sourceId":"wechat"}`)
	assert.Contains(t, text, "0 of 2 parked records committed")
}

func TestToolErrors(t *testing.T) {
	svc := newServices(t)
	seed(t, svc)

	tests := []struct {
		name     string
		tool     mcp.ToolHandler
		args     string
		wantCode string
	}{
		{name: "malformed arguments", tool: NewImportRecordsTool(svc.Committer), args: `{"records": "nope"}`, wantCode: "Error parsing arguments"},
		{name: "unknown source", tool: NewImportRecordsTool(svc.Committer), args: `{"sourceId":"alipay","records":[]}`, wantCode: "[NOT_FOUND]"},
		{name: "bad regex is rejected up front", tool: NewCreateRuleTool(svc.Rules), args: `{"sourceId":"wechat","priority":1,"descriptionPattern":"(","targetAccount":"Expenses:Food"}`, wantCode: "[VALIDATION_ERROR]"},
		{name: "duplicate account", tool: NewCreateAccountTool(svc.Accounts), args: `{"name":"Food","accountType":"EXPENSES","parentPath":"Expenses"}`, wantCode: "[CONFLICT]"},
		{name: "bad account path", tool: NewGetAccountBalanceTool(svc.Accounts), args: `{"path":"Assets::Bank"}`, wantCode: "[VALIDATION_ERROR]"},
		{name: "classify without method account", tool: NewClassifyRawTransactionTool(svc.Committer), args: `{"sourceId":"wechat","transactionNo":"W1","targetAccount":"Expenses:Food"}`, wantCode: "[VALIDATION_ERROR]: VALIDATION_ERROR: methodAccount is required"},
		{name: "update rule without id", tool: NewUpdateRuleTool(svc.Rules), args: `{"sourceId":"wechat","ruleId":" "}`, wantCode: "ruleId is required"},
		{name: "suggest without transaction", tool: NewSuggestAccountsTool(svc.Unmatched), args: `{"sourceId":"wechat"}`, wantCode: "transactionNo is required"},
		{name: "suggest for unknown record", tool: NewSuggestAccountsTool(svc.Unmatched), args: `{"sourceId":"wechat","transactionNo":"nope"}`, wantCode: "[NOT_FOUND]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, tt.tool, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, result.Content[0].Text, tt.wantCode)
		})
	}
}

func TestListImportSourcesTool(t *testing.T) {
	svc := newServices(t)
	seed(t, svc)

	text := mustSucceed(t, NewListImportSourcesTool(svc.Sources), ``)
	assert.Contains(t, text, "1 import sources")
	assert.Contains(t, text, "WeChat Pay")
}
