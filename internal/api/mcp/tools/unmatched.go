package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
	"github.com/hirosato/go-bill-ledger/internal/domain/unmatched"
)

// ListUnmatchedTool pages through parked raw transactions
type ListUnmatchedTool struct {
	unmatchedService *unmatched.Service
}

func NewListUnmatchedTool(unmatchedService *unmatched.Service) *ListUnmatchedTool {
	return &ListUnmatchedTool{
		unmatchedService: unmatchedService,
	}
}

func (t *ListUnmatchedTool) GetName() string {
	return "list-unmatched"
}

func (t *ListUnmatchedTool) GetDescription() string {
	return "Lists raw transactions that no rule could fully classify, oldest first"
}

func (t *ListUnmatchedTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"sourceId": stringProp("Restrict the listing to one import source"),
			"page": map[string]interface{}{
				"type":        "integer",
				"description": "1-based page number",
				"default":     1,
			},
			"pageSize": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Items per page, at most %d", unmatched.MaxPageSize),
				"default":     unmatched.DefaultPageSize,
			},
		},
	}
}

func (t *ListUnmatchedTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		SourceID string `json:"sourceId"`
		Page     int    `json:"page"`
		PageSize int    `json:"pageSize"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	page, err := t.unmatchedService.ListUnmatched(ctx, unmatched.Filter{SourceID: args.SourceID}, args.Page, args.PageSize)
	if err != nil {
		return errorResult("Error listing unmatched records", err), nil
	}
	return jsonResult(fmt.Sprintf("Page %d of %d (%d unmatched)", page.Page, page.TotalPages, page.Total), page)
}

// RematchUnmatchedTool re-runs the current rules over parked records
type RematchUnmatchedTool struct {
	unmatchedService *unmatched.Service
}

func NewRematchUnmatchedTool(unmatchedService *unmatched.Service) *RematchUnmatchedTool {
	return &RematchUnmatchedTool{
		unmatchedService: unmatchedService,
	}
}

func (t *RematchUnmatchedTool) GetName() string {
	return "rematch-unmatched"
}

func (t *RematchUnmatchedTool) GetDescription() string {
	return "Classifies the parked records of a source again with its current rules and commits those that now match"
}

func (t *RematchUnmatchedTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"sourceId": stringProp("Import source to rematch"),
		},
		Required: []string{"sourceId"},
	}
}

func (t *RematchUnmatchedTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		SourceID string `json:"sourceId"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	result, err := t.unmatchedService.Rematch(ctx, args.SourceID)
	if err != nil {
		return errorResult("Error rematching", err), nil
	}
	return jsonResult(fmt.Sprintf("%d of %d parked records committed", result.Committed, result.Total), result)
}

// SuggestAccountsTool ranks likely target accounts for a parked record
type SuggestAccountsTool struct {
	unmatchedService *unmatched.Service
}

func NewSuggestAccountsTool(unmatchedService *unmatched.Service) *SuggestAccountsTool {
	return &SuggestAccountsTool{
		unmatchedService: unmatchedService,
	}
}

func (t *SuggestAccountsTool) GetName() string {
	return "suggest-accounts"
}

func (t *SuggestAccountsTool) GetDescription() string {
	return "Suggests target accounts for a parked record, learned from the source's already classified records"
}

func (t *SuggestAccountsTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"sourceId":      stringProp("Import source of the record"),
			"transactionNo": stringProp("Provider transaction number"),
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of suggestions",
				"default":     3,
			},
		},
		Required: []string{"sourceId", "transactionNo"},
	}
}

func (t *SuggestAccountsTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		SourceID      string `json:"sourceId"`
		TransactionNo string `json:"transactionNo"`
		Limit         int    `json:"limit"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}
	if res := requireArgs(arg{"sourceId", args.SourceID}, arg{"transactionNo", args.TransactionNo}); res != nil {
		return res, nil
	}

	suggestions, err := t.unmatchedService.Suggest(ctx, args.SourceID, args.TransactionNo, args.Limit)
	if err != nil {
		return errorResult("Error suggesting accounts", err), nil
	}
	return jsonResult(fmt.Sprintf("%d suggestions", len(suggestions)), suggestions)
}
