package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

const (
	jsonRPCVersion  = "2.0"
	protocolVersion = "2024-11-05"
)

const instructions = "Use this MCP server to import WeChat Pay and Alipay exports into a double-entry ledger. " +
	"Register an import source, create accounts and rules, then call match-transactions to preview or import-records to commit. " +
	"Records no rule classifies wait in the unmatched queue; use suggest-accounts and classify-raw-transaction to clear them."

// HTTPResponse encapsulates both JSON-RPC response and HTTP status code
type HTTPResponse struct {
	JSONRPCResponse JSONRPCResponse
	StatusCode      int
}

// NewSuccessHTTPResponse creates a successful HTTP response with JSON-RPC result
func NewSuccessHTTPResponse(id json.RawMessage, result interface{}, statusCode int) HTTPResponse {
	return HTTPResponse{
		JSONRPCResponse: JSONRPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result},
		StatusCode:      statusCode,
	}
}

// NewErrorHTTPResponse creates an error HTTP response with JSON-RPC error.
// JSON-RPC errors travel with 200; the status is for transport-level failures.
func NewErrorHTTPResponse(id json.RawMessage, code int, message string, data interface{}, statusCode int) HTTPResponse {
	return HTTPResponse{
		JSONRPCResponse: JSONRPCResponse{
			JSONRPC: jsonRPCVersion,
			ID:      id,
			Error:   &JSONRPCError{Code: code, Message: message, Data: data},
		},
		StatusCode: statusCode,
	}
}

type methodHandler func(ctx context.Context, request JSONRPCRequest) HTTPResponse

// Service dispatches JSON-RPC methods onto the ledger tools and resources
type Service struct {
	logger     *slog.Logger
	serverInfo ServerInfo
	registry   *HandlerRegistry
	methods    map[string]methodHandler
}

// NewService creates a new MCP service
func NewService(logger *slog.Logger, registry *HandlerRegistry) *Service {
	s := &Service{
		logger: logger,
		serverInfo: ServerInfo{
			Name:    "bill-ledger-mcp-server",
			Title:   "Payment export classification and double-entry ledger",
			Version: "1.0.0",
		},
		registry: registry,
	}
	s.methods = map[string]methodHandler{
		"initialize":                s.handleInitialize,
		"initialized":               s.acknowledge(http.StatusOK),
		"notifications/initialized": s.acknowledge(http.StatusAccepted),
		"ping":                      s.acknowledge(http.StatusOK),
		"resources/list":            s.handleListResources,
		"resources/read":            s.handleReadResource,
		"resources/templates/list":  s.handleListResourceTemplates,
		"tools/list":                s.handleListTools,
		"tools/call":                s.handleCallTool,
	}
	return s
}

// HandleRequest processes a JSON-RPC request
func (s *Service) HandleRequest(ctx context.Context, request JSONRPCRequest) HTTPResponse {
	s.logger.Info("MCP request received", "method", request.Method)

	handle, ok := s.methods[request.Method]
	if !ok {
		return NewErrorHTTPResponse(request.ID, MethodNotFound, fmt.Sprintf("Method not found: %s", request.Method), nil, http.StatusOK)
	}
	return handle(ctx, request)
}

func (s *Service) acknowledge(status int) methodHandler {
	return func(_ context.Context, request JSONRPCRequest) HTTPResponse {
		return NewSuccessHTTPResponse(request.ID, map[string]any{}, status)
	}
}

func (s *Service) handleInitialize(_ context.Context, request JSONRPCRequest) HTTPResponse {
	var params InitializeParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return NewErrorHTTPResponse(request.ID, InvalidParams, "Invalid initialize params", err, http.StatusOK)
	}
	s.logger.Debug("client initialized", "client", params.ClientInfo.Name, "protocolVersion", params.ProtocolVersion)

	return NewSuccessHTTPResponse(request.ID, InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: ServerCapability{
			Resources: ResourcesCapability{ListChanged: true},
			Tools:     ToolsCapability{ListChanged: true},
		},
		Instructions: instructions,
		ServerInfo:   s.serverInfo,
	}, http.StatusOK)
}

func (s *Service) handleListResources(_ context.Context, request JSONRPCRequest) HTTPResponse {
	return NewSuccessHTTPResponse(request.ID, ListResourcesResult{Resources: s.registry.ListResources()}, http.StatusOK)
}

func (s *Service) handleListResourceTemplates(_ context.Context, request JSONRPCRequest) HTTPResponse {
	return NewSuccessHTTPResponse(request.ID, ListResourceTemplatesResult{ResourceTemplates: s.registry.ListResourceTemplates()}, http.StatusOK)
}

func (s *Service) handleReadResource(ctx context.Context, request JSONRPCRequest) HTTPResponse {
	var params ReadResourceParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return NewErrorHTTPResponse(request.ID, InvalidParams, "Invalid read resource params", err, http.StatusOK)
	}

	handler, ok := s.registry.GetResource(params.URI)
	if !ok {
		return NewErrorHTTPResponse(request.ID, InvalidParams, fmt.Sprintf("Resource not found: %s", params.URI), nil, http.StatusOK)
	}

	result, err := handler.Read(ctx)
	if err != nil {
		code := errorCode(err)
		data := map[string]string{"code": code, "detail": err.Error()}
		if code == errors.CodeNotFound || code == errors.CodeValidation {
			return NewErrorHTTPResponse(request.ID, InvalidParams, "Failed to read resource", data, http.StatusOK)
		}
		s.logger.Error("Failed to read resource", "uri", params.URI, "code", code, "error", err)
		return NewErrorHTTPResponse(request.ID, InternalError, "Failed to read resource", data, http.StatusOK)
	}

	return NewSuccessHTTPResponse(request.ID, result, http.StatusOK)
}

func (s *Service) handleListTools(_ context.Context, request JSONRPCRequest) HTTPResponse {
	return NewSuccessHTTPResponse(request.ID, ListToolsResult{Tools: s.registry.ListTools()}, http.StatusOK)
}

func (s *Service) handleCallTool(ctx context.Context, request JSONRPCRequest) HTTPResponse {
	var params CallToolParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return NewErrorHTTPResponse(request.ID, InvalidParams, "Invalid call tool params", err, http.StatusOK)
	}

	handler, ok := s.registry.GetTool(params.Name)
	if !ok {
		return NewErrorHTTPResponse(request.ID, InvalidParams, fmt.Sprintf("Tool not found: %s", params.Name), nil, http.StatusOK)
	}

	logger := s.logger.With("tool", params.Name)
	start := time.Now()
	result, err := handler.Execute(ctx, params.Arguments)
	if err != nil {
		// Tool failures are reported to the model, not as protocol errors
		code := errorCode(err)
		logger.Error("Failed to execute tool", "code", code, "error", err)
		result = &CallToolResult{
			Content: []ToolResultContent{{Type: "text", Text: fmt.Sprintf("[%s] %s", code, err.Error())}},
			IsError: true,
		}
	}
	if result == nil {
		result = &CallToolResult{Content: []ToolResultContent{}}
	}
	logger.Info("tool executed", "isError", result.IsError, "duration", time.Since(start))

	return NewSuccessHTTPResponse(request.ID, result, http.StatusOK)
}

func errorCode(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return errors.CodeInternal
}
