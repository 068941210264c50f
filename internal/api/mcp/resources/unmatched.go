package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirosato/go-bill-ledger/internal/common/utils"
	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
	"github.com/hirosato/go-bill-ledger/internal/domain/unmatched"
)

// UnmatchedURI is the first page of the queue; UnmatchedURI/{sourceId}
// narrows it to one source
const UnmatchedURI = "ledger://unmatched"

type UnmatchedResource struct {
	unmatchedService *unmatched.Service
	sourceID         string
}

func NewUnmatchedResource(unmatchedService *unmatched.Service, sourceID string) *UnmatchedResource {
	return &UnmatchedResource{
		unmatchedService: unmatchedService,
		sourceID:         sourceID,
	}
}

func (r *UnmatchedResource) GetURI() string {
	if r.sourceID != "" {
		return UnmatchedURI + "/" + r.sourceID
	}
	return UnmatchedURI
}

func (r *UnmatchedResource) GetName() string {
	if r.sourceID != "" {
		return fmt.Sprintf("Unmatched records of %s", r.sourceID)
	}
	return "Unmatched Records"
}

func (r *UnmatchedResource) GetDescription() string {
	if r.sourceID != "" {
		return fmt.Sprintf("First page of raw transactions from %s waiting for classification", r.sourceID)
	}
	return "First page of raw transactions waiting for classification. Use ledger://unmatched/{sourceId} for one source, or the list-unmatched tool to page further"
}

func (r *UnmatchedResource) GetMimeType() string {
	return jsonMimeType
}

func (r *UnmatchedResource) Read(ctx context.Context) (*mcp.ReadResourceResult, error) {
	page, err := r.unmatchedService.ListUnmatched(ctx, unmatched.Filter{SourceID: r.sourceID}, 1, unmatched.DefaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list unmatched records: %w", err)
	}
	return jsonContent(r.GetURI(), page)
}

// UnmatchedResourceFactory serves ledger://unmatched/{sourceId}
type UnmatchedResourceFactory struct {
	unmatchedService *unmatched.Service
}

func NewUnmatchedResourceFactory(unmatchedService *unmatched.Service) *UnmatchedResourceFactory {
	return &UnmatchedResourceFactory{
		unmatchedService: unmatchedService,
	}
}

func (f *UnmatchedResourceFactory) Template() mcp.ResourceTemplate {
	return mcp.ResourceTemplate{
		URITemplate: UnmatchedURI + "/{sourceId}",
		Name:        "Unmatched records of a source",
		Description: "First page of parked records for one import source.",
		MimeType:    jsonMimeType,
	}
}

func (f *UnmatchedResourceFactory) CreateResource(uri string) (mcp.ResourceHandler, error) {
	sourceID := strings.TrimPrefix(uri, UnmatchedURI+"/")
	if sourceID == uri || strings.Contains(sourceID, "/") {
		return nil, fmt.Errorf("invalid URI pattern: %s", uri)
	}
	if err := utils.ValidateSourceID(sourceID); err != nil {
		return nil, err
	}
	return NewUnmatchedResource(f.unmatchedService, sourceID), nil
}
