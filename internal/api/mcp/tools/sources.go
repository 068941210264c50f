package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
	"github.com/hirosato/go-bill-ledger/internal/domain/source"
)

// CreateImportSourceTool registers an import source
type CreateImportSourceTool struct {
	sourceService *source.Service
}

func NewCreateImportSourceTool(sourceService *source.Service) *CreateImportSourceTool {
	return &CreateImportSourceTool{
		sourceService: sourceService,
	}
}

func (t *CreateImportSourceTool) GetName() string {
	return "create-import-source"
}

func (t *CreateImportSourceTool) GetDescription() string {
	return "Registers a payment export source such as a WeChat Pay or Alipay account. Rules and imports belong to a source."
}

func (t *CreateImportSourceTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"sourceId": stringProp("Source ID; generated when omitted"),
			"name":     stringProp("Display name"),
			"provider": stringProp("Provider label, e.g. wechat or alipay"),
		},
		Required: []string{"name"},
	}
}

func (t *CreateImportSourceTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args source.CreateSourceRequest
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	created, err := t.sourceService.CreateSource(ctx, &args)
	if err != nil {
		return errorResult("Error creating import source", err), nil
	}
	return jsonResult("Import source created", created)
}

// ListImportSourcesTool lists the registered import sources
type ListImportSourcesTool struct {
	sourceService *source.Service
}

func NewListImportSourcesTool(sourceService *source.Service) *ListImportSourcesTool {
	return &ListImportSourcesTool{
		sourceService: sourceService,
	}
}

func (t *ListImportSourcesTool) GetName() string {
	return "list-import-sources"
}

func (t *ListImportSourcesTool) GetDescription() string {
	return "Lists the registered import sources"
}

func (t *ListImportSourcesTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{Type: "object"}
}

func (t *ListImportSourcesTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	sources, err := t.sourceService.ListSources(ctx)
	if err != nil {
		return errorResult("Error listing import sources", err), nil
	}
	return jsonResult(fmt.Sprintf("%d import sources", len(sources)), sources)
}
