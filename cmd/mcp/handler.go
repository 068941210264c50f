package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/go-bill-ledger/internal/api/response"
	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
)

// MCPRequestHandler serves JSON-RPC on POST / and a health probe on GET /health
type MCPRequestHandler struct {
	mcpService *mcp.Service
	verbose    bool
}

// NewMCPRequestHandler creates a new MCP request handler. verbose logs
// memory usage on every request.
func NewMCPRequestHandler(mcpService *mcp.Service, verbose bool) *MCPRequestHandler {
	return &MCPRequestHandler{
		mcpService: mcpService,
		verbose:    verbose,
	}
}

func (h *MCPRequestHandler) HandleRequest(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// Handle CORS preflight
	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    response.DefaultHeaders(),
		}, nil
	}

	if h.verbose {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		logger.Debug("mcp - Memory Status", "MB", m.Alloc/1024/1024)
	}

	if request.Path == "/health" && request.HTTPMethod == http.MethodGet {
		return response.OK(map[string]string{"status": "ok"}, request.RequestContext.RequestID), nil
	}

	if request.Path == "/" && request.HTTPMethod != http.MethodPost {
		return h.jsonRPCMethodNotAllowedError(), nil
	}

	// MCP servers handle JSON-RPC requests on the root path
	if request.Path != "/" {
		return response.NotFound("Endpoint not found"), nil
	}

	var jsonRPCRequest mcp.JSONRPCRequest
	if err := json.Unmarshal([]byte(request.Body), &jsonRPCRequest); err != nil {
		logger.Error("Failed to parse JSON-RPC request", "error", err)
		return h.jsonRPCErrorResponse(mcp.ParseError, "Parse error", err.Error()), nil
	}

	httpResponse := h.mcpService.HandleRequest(ctx, jsonRPCRequest)
	return response.JSON(httpResponse.StatusCode, httpResponse.JSONRPCResponse), nil
}

func (h *MCPRequestHandler) jsonRPCErrorResponse(code int, message string, data string) events.APIGatewayProxyResponse {
	// JSON-RPC errors still return 200
	return response.JSON(http.StatusOK, mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &mcp.JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func (h *MCPRequestHandler) jsonRPCMethodNotAllowedError() events.APIGatewayProxyResponse {
	resp := response.JSON(http.StatusMethodNotAllowed, mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &mcp.JSONRPCError{
			Code:    mcp.MethodNotAllowed,
			Message: "Method Not Allowed",
		},
	})
	resp.Headers["Allow"] = "POST"
	return resp
}
