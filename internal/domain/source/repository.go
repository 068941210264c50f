package source

import (
	"context"
)

// Repository defines the interface for import source data operations
type Repository interface {
	// Create a new import source
	CreateSource(ctx context.Context, src *ImportSource) (*ImportSource, error)

	// Get an import source by ID
	GetSource(ctx context.Context, sourceID string) (*ImportSource, error)

	// List all import sources
	ListSources(ctx context.Context) ([]*ImportSource, error)

	// Check if an import source exists
	SourceExists(ctx context.Context, sourceID string) (bool, error)
}
