package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirosato/go-bill-ledger/internal/domain/committer"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/matcher"
	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
)

type recordsArgs struct {
	SourceID string                  `json:"sourceId"`
	Records  []importer.ImportRecord `json:"records"`
}

func recordsSchema(description string) mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"sourceId": stringProp("Import source whose rules classify the records"),
			"records": map[string]interface{}{
				"type":        "array",
				"description": description,
				"items":       recordSchema,
			},
		},
		Required: []string{"sourceId", "records"},
	}
}

// MatchTransactionsTool previews rule classification without writing
type MatchTransactionsTool struct {
	matcherService *matcher.Service
}

func NewMatchTransactionsTool(matcherService *matcher.Service) *MatchTransactionsTool {
	return &MatchTransactionsTool{
		matcherService: matcherService,
	}
}

func (t *MatchTransactionsTool) GetName() string {
	return "match-transactions"
}

func (t *MatchTransactionsTool) GetDescription() string {
	return "Classifies import records with the source's rules and reports which would be matched and which would stay unmatched. Nothing is written."
}

func (t *MatchTransactionsTool) GetInputSchema() mcp.JSONSchema {
	return recordsSchema("Records to classify")
}

func (t *MatchTransactionsTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args recordsArgs
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	batch, err := t.matcherService.MatchTransactions(ctx, args.Records, args.SourceID)
	if err != nil {
		return errorResult("Error matching records", err), nil
	}
	return jsonResult(fmt.Sprintf("%d matched, %d unmatched", len(batch.Matched), len(batch.Unmatched)), batch)
}

// ImportRecordsTool classifies and commits a batch
type ImportRecordsTool struct {
	committerService *committer.Service
}

func NewImportRecordsTool(committerService *committer.Service) *ImportRecordsTool {
	return &ImportRecordsTool{
		committerService: committerService,
	}
}

func (t *ImportRecordsTool) GetName() string {
	return "import-records"
}

func (t *ImportRecordsTool) GetDescription() string {
	return "Imports records of a source: every record is stored once, fully classified records become balanced transactions and the rest are parked in the unmatched queue. Re-importing a committed record is reported as a duplicate."
}

func (t *ImportRecordsTool) GetInputSchema() mcp.JSONSchema {
	return recordsSchema("Records to import")
}

func (t *ImportRecordsTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args recordsArgs
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	result, err := t.committerService.ImportRecords(ctx, args.SourceID, args.Records)
	if err != nil {
		return errorResult("Error importing records", err), nil
	}
	summary := fmt.Sprintf("Imported %d records: %d committed, %d duplicates, %d parked, %d failed",
		result.Total, result.Committed, result.Duplicates, result.Parked, len(result.Failed))
	return jsonResult(summary, result)
}

// ClassifyRawTransactionTool commits a parked record with explicit accounts
type ClassifyRawTransactionTool struct {
	committerService *committer.Service
}

func NewClassifyRawTransactionTool(committerService *committer.Service) *ClassifyRawTransactionTool {
	return &ClassifyRawTransactionTool{
		committerService: committerService,
	}
}

func (t *ClassifyRawTransactionTool) GetName() string {
	return "classify-raw-transaction"
}

func (t *ClassifyRawTransactionTool) GetDescription() string {
	return "Commits a parked raw transaction with the given target and method accounts"
}

func (t *ClassifyRawTransactionTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"sourceId":      stringProp("Import source of the raw transaction"),
			"transactionNo": stringProp("Provider transaction number"),
			"targetAccount": stringProp("Category account path, e.g. Expenses:Food"),
			"methodAccount": stringProp("Payment method account path, e.g. Assets:WeChat"),
		},
		Required: []string{"sourceId", "transactionNo", "targetAccount", "methodAccount"},
	}
}

func (t *ClassifyRawTransactionTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		SourceID      string `json:"sourceId"`
		TransactionNo string `json:"transactionNo"`
		TargetAccount string `json:"targetAccount"`
		MethodAccount string `json:"methodAccount"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}
	if res := requireArgs(
		arg{"sourceId", args.SourceID},
		arg{"transactionNo", args.TransactionNo},
		arg{"targetAccount", args.TargetAccount},
		arg{"methodAccount", args.MethodAccount},
	); res != nil {
		return res, nil
	}

	result, err := t.committerService.ClassifyRaw(ctx, args.SourceID, args.TransactionNo, args.TargetAccount, args.MethodAccount)
	if err != nil {
		return errorResult("Error classifying raw transaction", err), nil
	}
	return jsonResult("Raw transaction classified", result)
}
