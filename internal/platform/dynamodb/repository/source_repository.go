package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/source"
	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

// DynamoDBSourceRepository implements the source.Repository interface
type DynamoDBSourceRepository struct {
	table
}

// NewDynamoDBSourceRepository creates a new DynamoDBSourceRepository
func NewDynamoDBSourceRepository(client client.Client, tableName string, logger *slog.Logger) *DynamoDBSourceRepository {
	return &DynamoDBSourceRepository{table{client: client, name: tableName, logger: logger}}
}

type sourceItem struct {
	PK        string
	SK        string
	Type      string
	SourceID  string
	Name      string
	Provider  string `dynamodbav:",omitempty"`
	CreatedAt time.Time
}

func (i sourceItem) toDomain() *source.ImportSource {
	return &source.ImportSource{
		SourceID:  i.SourceID,
		Name:      i.Name,
		Provider:  i.Provider,
		CreatedAt: i.CreatedAt,
	}
}

// CreateSource stores a new import source
func (r *DynamoDBSourceRepository) CreateSource(ctx context.Context, src *source.ImportSource) (*source.ImportSource, error) {
	item, err := marshalItem(sourceItem{
		PK:        sourcesPK,
		SK:        sourceSK(src.SourceID),
		Type:      itemTypeSource,
		SourceID:  src.SourceID,
		Name:      src.Name,
		Provider:  src.Provider,
		CreatedAt: src.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	if err := r.putNew(ctx, item, fmt.Sprintf("import source %s already exists", src.SourceID)); err != nil {
		return nil, err
	}
	return src, nil
}

// GetSource retrieves an import source
func (r *DynamoDBSourceRepository) GetSource(ctx context.Context, sourceID string) (*source.ImportSource, error) {
	item, err := r.getItem(ctx, sourcesPK, sourceSK(sourceID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("import source %s not found", sourceID))
	}

	var si sourceItem
	if err := unmarshalItem(item, &si); err != nil {
		return nil, err
	}
	return si.toDomain(), nil
}

// ListSources lists every import source ordered by ID
func (r *DynamoDBSourceRepository) ListSources(ctx context.Context) ([]*source.ImportSource, error) {
	items, err := r.queryPrefix(ctx, sourcesPK, sourcePrefix)
	if err != nil {
		return nil, err
	}

	sources := make([]*source.ImportSource, 0, len(items))
	for _, item := range items {
		var si sourceItem
		if err := unmarshalItem(item, &si); err != nil {
			return nil, err
		}
		sources = append(sources, si.toDomain())
	}
	return sources, nil
}

// SourceExists reports whether the source is registered
func (r *DynamoDBSourceRepository) SourceExists(ctx context.Context, sourceID string) (bool, error) {
	item, err := r.getItem(ctx, sourcesPK, sourceSK(sourceID))
	if err != nil {
		return false, err
	}
	return item != nil, nil
}
