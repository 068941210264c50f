package mcp

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

// ToolHandler defines the interface for tool handlers
type ToolHandler interface {
	GetName() string
	GetDescription() string
	GetInputSchema() JSONSchema
	Execute(ctx context.Context, arguments json.RawMessage) (*CallToolResult, error)
}

// ResourceHandler defines the interface for resource handlers
type ResourceHandler interface {
	GetURI() string
	GetName() string
	GetDescription() string
	GetMimeType() string
	Read(ctx context.Context) (*ReadResourceResult, error)
}

// ResourceFactory builds handlers for the URIs its template describes, such
// as ledger://unmatched/{sourceId}
type ResourceFactory interface {
	Template() ResourceTemplate
	CreateResource(uri string) (ResourceHandler, error)
}

// HandlerRegistry manages tool and resource handlers
type HandlerRegistry struct {
	tools     map[string]ToolHandler
	resources map[string]ResourceHandler
	factories map[string]ResourceFactory
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		tools:     make(map[string]ToolHandler),
		resources: make(map[string]ResourceHandler),
		factories: make(map[string]ResourceFactory),
	}
}

// RegisterTool registers a tool handler
func (r *HandlerRegistry) RegisterTool(handler ToolHandler) {
	r.tools[handler.GetName()] = handler
}

// RegisterResource registers a resource handler
func (r *HandlerRegistry) RegisterResource(handler ResourceHandler) {
	r.resources[handler.GetURI()] = handler
}

// RegisterResourceFactory serves every URI below the literal prefix of the
// factory's template, the part before its first variable
func (r *HandlerRegistry) RegisterResourceFactory(factory ResourceFactory) {
	r.factories[templatePrefix(factory.Template().URITemplate)] = factory
}

func templatePrefix(uriTemplate string) string {
	if i := strings.Index(uriTemplate, "{"); i >= 0 {
		uriTemplate = uriTemplate[:i]
	}
	return strings.TrimSuffix(uriTemplate, "/")
}

// GetTool retrieves a tool handler by name
func (r *HandlerRegistry) GetTool(name string) (ToolHandler, bool) {
	handler, ok := r.tools[name]
	return handler, ok
}

// GetResource retrieves a resource handler by URI. Exact registrations win
// over factories; among factories the longest prefix wins.
func (r *HandlerRegistry) GetResource(uri string) (ResourceHandler, bool) {
	if handler, ok := r.resources[uri]; ok {
		return handler, true
	}

	best := ""
	for prefix := range r.factories {
		if strings.HasPrefix(uri, prefix+"/") && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return nil, false
	}
	handler, err := r.factories[best].CreateResource(uri)
	if err != nil {
		return nil, false
	}
	return handler, true
}

// ListTools returns all registered tools sorted by name
func (r *HandlerRegistry) ListTools() []Tool {
	tools := make([]Tool, 0, len(r.tools))
	for _, handler := range r.tools {
		tools = append(tools, Tool{
			Name:        handler.GetName(),
			Description: handler.GetDescription(),
			InputSchema: handler.GetInputSchema(),
		})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// ListResources returns all registered resources sorted by URI
func (r *HandlerRegistry) ListResources() []Resource {
	resources := make([]Resource, 0, len(r.resources))
	for _, handler := range r.resources {
		resources = append(resources, Resource{
			URI:         handler.GetURI(),
			Name:        handler.GetName(),
			Description: handler.GetDescription(),
			MimeType:    handler.GetMimeType(),
		})
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].URI < resources[j].URI })
	return resources
}

// ListResourceTemplates returns the templates of all factories sorted by template
func (r *HandlerRegistry) ListResourceTemplates() []ResourceTemplate {
	templates := make([]ResourceTemplate, 0, len(r.factories))
	for _, factory := range r.factories {
		templates = append(templates, factory.Template())
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].URITemplate < templates[j].URITemplate })
	return templates
}
