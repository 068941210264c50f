package main

import (
	"github.com/hirosato/go-bill-ledger/internal/api/mcp/resources"
	"github.com/hirosato/go-bill-ledger/internal/api/mcp/tools"
	"github.com/hirosato/go-bill-ledger/internal/app"
	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
)

// newRegistry registers every ledger tool and resource
func newRegistry(services *app.Services) *mcp.HandlerRegistry {
	registry := mcp.NewHandlerRegistry()

	// Import sources and rules
	registry.RegisterTool(tools.NewCreateImportSourceTool(services.Sources))
	registry.RegisterTool(tools.NewListImportSourcesTool(services.Sources))
	registry.RegisterTool(tools.NewCreateRuleTool(services.Rules))
	registry.RegisterTool(tools.NewUpdateRuleTool(services.Rules))
	registry.RegisterTool(tools.NewListRulesTool(services.Rules))

	// Import pipeline
	registry.RegisterTool(tools.NewMatchTransactionsTool(services.Matcher))
	registry.RegisterTool(tools.NewImportRecordsTool(services.Committer))
	registry.RegisterTool(tools.NewClassifyRawTransactionTool(services.Committer))

	// Unmatched queue
	registry.RegisterTool(tools.NewListUnmatchedTool(services.Unmatched))
	registry.RegisterTool(tools.NewRematchUnmatchedTool(services.Unmatched))
	registry.RegisterTool(tools.NewSuggestAccountsTool(services.Unmatched))

	// Accounts
	registry.RegisterTool(tools.NewCreateAccountTool(services.Accounts))
	registry.RegisterTool(tools.NewGetAccountBalanceTool(services.Accounts))
	registry.RegisterTool(tools.NewAdjustBalanceTool(services.Accounts))

	registry.RegisterResource(resources.NewAccountTreeResource(services.Accounts))
	registry.RegisterResourceFactory(resources.NewAccountResourceFactory(services.Accounts))
	registry.RegisterResource(resources.NewUnmatchedResource(services.Unmatched, ""))
	registry.RegisterResourceFactory(resources.NewUnmatchedResourceFactory(services.Unmatched))

	return registry
}
