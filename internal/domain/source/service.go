package source

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hirosato/go-bill-ledger/internal/common/utils"
	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

// Service provides import source business logic
type Service struct {
	repo Repository
}

// NewService creates a new import source service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// CreateSource registers a new import source
func (s *Service) CreateSource(ctx context.Context, req *CreateSourceRequest) (*ImportSource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.NewValidationError("source name is required")
	}

	sourceID := strings.TrimSpace(req.SourceID)
	if sourceID == "" {
		sourceID = uuid.New().String()
	}
	if err := utils.ValidateSourceID(sourceID); err != nil {
		return nil, err
	}

	return s.repo.CreateSource(ctx, &ImportSource{
		SourceID:  sourceID,
		Name:      name,
		Provider:  strings.TrimSpace(req.Provider),
		CreatedAt: time.Now().UTC(),
	})
}

// GetSource retrieves an import source, NOT_FOUND when unknown
func (s *Service) GetSource(ctx context.Context, sourceID string) (*ImportSource, error) {
	return s.repo.GetSource(ctx, sourceID)
}

// ListSources lists all import sources
func (s *Service) ListSources(ctx context.Context) ([]*ImportSource, error) {
	return s.repo.ListSources(ctx)
}
