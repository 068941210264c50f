package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"

	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

// DynamoDBRawRepository implements the importer.Repository interface.
// Unlinked raw transactions carry the sparse GSI1 keys that make up the
// unmatched queue; linking removes them.
type DynamoDBRawRepository struct {
	table
}

// NewDynamoDBRawRepository creates a new DynamoDBRawRepository
func NewDynamoDBRawRepository(client client.Client, tableName string, logger *slog.Logger) *DynamoDBRawRepository {
	return &DynamoDBRawRepository{table{client: client, name: tableName, logger: logger}}
}

type rawItem struct {
	PK              string
	SK              string
	GSI1PK          string `dynamodbav:",omitempty"`
	GSI1SK          string `dynamodbav:",omitempty"`
	Type            string
	SourceID        string
	TransactionNo   string
	Payload         string
	TransactionTime time.Time
	ImportedAt      time.Time

	TransactionID string     `dynamodbav:",omitempty"`
	TargetAccount string     `dynamodbav:",omitempty"`
	MethodAccount string     `dynamodbav:",omitempty"`
	LinkedAt      *time.Time `dynamodbav:",omitempty"`
}

func (i rawItem) toDomain() *importer.RawTransaction {
	return &importer.RawTransaction{
		SourceID:        i.SourceID,
		TransactionNo:   i.TransactionNo,
		Payload:         i.Payload,
		TransactionTime: i.TransactionTime,
		ImportedAt:      i.ImportedAt,
		TransactionID:   i.TransactionID,
		TargetAccount:   i.TargetAccount,
		MethodAccount:   i.MethodAccount,
		LinkedAt:        i.LinkedAt,
	}
}

// CreateRawTransaction stores a raw transaction unless its dedup key is taken
func (r *DynamoDBRawRepository) CreateRawTransaction(ctx context.Context, raw *importer.RawTransaction) error {
	ri := rawItem{
		PK:              sourcePK(raw.SourceID),
		SK:              rawSK(raw.TransactionNo),
		Type:            itemTypeRaw,
		SourceID:        raw.SourceID,
		TransactionNo:   raw.TransactionNo,
		Payload:         raw.Payload,
		TransactionTime: raw.TransactionTime,
		ImportedAt:      raw.ImportedAt,
		TransactionID:   raw.TransactionID,
		TargetAccount:   raw.TargetAccount,
		MethodAccount:   raw.MethodAccount,
		LinkedAt:        raw.LinkedAt,
	}
	if !raw.Linked() {
		ri.GSI1PK = unmatchedPK
		ri.GSI1SK = unmatchedSK(raw.SourceID, raw.TransactionTime, raw.TransactionNo)
	}

	item, err := marshalItem(ri)
	if err != nil {
		return err
	}
	return r.putNew(ctx, item, fmt.Sprintf("raw transaction %s already exists", raw.ID()))
}

// GetRawTransaction retrieves a raw transaction by its dedup key
func (r *DynamoDBRawRepository) GetRawTransaction(ctx context.Context, key importer.RawKey) (*importer.RawTransaction, error) {
	item, err := r.getItem(ctx, sourcePK(key.SourceID), rawSK(key.TransactionNo))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("raw transaction %s/%s not found", key.SourceID, key.TransactionNo))
	}

	var ri rawItem
	if err := unmarshalItem(item, &ri); err != nil {
		return nil, err
	}
	return ri.toDomain(), nil
}

// ListRawTransactions lists raw transactions matching the filter. Unlinked
// listings read the sparse index; the rest read source partitions.
func (r *DynamoDBRawRepository) ListRawTransactions(ctx context.Context, filter importer.RawFilter) ([]*importer.RawTransaction, error) {
	if filter.Linked != nil && !*filter.Linked {
		return r.listUnlinked(ctx, filter.SourceID)
	}

	sourceIDs := []string{filter.SourceID}
	if filter.SourceID == "" {
		ids, err := r.sourceIDs(ctx)
		if err != nil {
			return nil, err
		}
		sourceIDs = ids
	}

	raws := make([]*importer.RawTransaction, 0)
	for _, sourceID := range sourceIDs {
		items, err := r.queryPrefix(ctx, sourcePK(sourceID), rawPrefix)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			var ri rawItem
			if err := unmarshalItem(item, &ri); err != nil {
				return nil, err
			}
			raw := ri.toDomain()
			if filter.Linked != nil && raw.Linked() != *filter.Linked {
				continue
			}
			raws = append(raws, raw)
		}
	}
	return raws, nil
}

func (r *DynamoDBRawRepository) listUnlinked(ctx context.Context, sourceID string) ([]*importer.RawTransaction, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value(unmatchedPK))
	if sourceID != "" {
		keyCondition = keyCondition.And(expression.Key("GSI1SK").BeginsWith(sourceID + "#"))
	}

	items, err := r.queryAll(ctx, gsi1IndexName, keyCondition)
	if err != nil {
		return nil, err
	}

	raws := make([]*importer.RawTransaction, 0, len(items))
	for _, item := range items {
		var ri rawItem
		if err := unmarshalItem(item, &ri); err != nil {
			return nil, err
		}
		raws = append(raws, ri.toDomain())
	}
	return raws, nil
}

func (r *DynamoDBRawRepository) sourceIDs(ctx context.Context) ([]string, error) {
	items, err := r.queryPrefix(ctx, sourcesPK, sourcePrefix)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		var si sourceItem
		if err := unmarshalItem(item, &si); err != nil {
			return nil, err
		}
		ids = append(ids, si.SourceID)
	}
	sort.Strings(ids)
	return ids, nil
}
