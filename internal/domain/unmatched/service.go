package unmatched

import (
	"context"
	"log/slog"
	"sort"

	"github.com/hirosato/go-bill-ledger/internal/domain/committer"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/matcher"
)

// BatchMatcher classifies a batch of records
type BatchMatcher interface {
	MatchTransactions(ctx context.Context, records []importer.ImportRecord, sourceID string) (*matcher.BatchMatch, error)
}

// BatchCommitter commits classified records
type BatchCommitter interface {
	CommitBatch(ctx context.Context, sourceID string, records []matcher.MatchedRecord) (*committer.BatchResult, error)
}

// Service exposes raw transactions that are still waiting for a
// classification
type Service struct {
	raws      importer.Repository
	matcher   BatchMatcher
	committer BatchCommitter
	logger    *slog.Logger
}

// NewService creates a new unmatched queue service
func NewService(raws importer.Repository, matcher BatchMatcher, committer BatchCommitter, logger *slog.Logger) *Service {
	return &Service{
		raws:      raws,
		matcher:   matcher,
		committer: committer,
		logger:    logger,
	}
}

// ListUnmatched returns one page of unlinked raw transactions ordered by
// transaction time. Pages are 1-based.
func (s *Service) ListUnmatched(ctx context.Context, filter Filter, page int, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	raws, err := s.parked(ctx, filter.SourceID)
	if err != nil {
		return nil, err
	}

	result := &Page{
		Items:      make([]Item, 0, pageSize),
		Page:       page,
		PageSize:   pageSize,
		Total:      len(raws),
		TotalPages: (len(raws) + pageSize - 1) / pageSize,
	}

	start := (page - 1) * pageSize
	if start >= len(raws) {
		return result, nil
	}
	end := start + pageSize
	if end > len(raws) {
		end = len(raws)
	}

	for _, raw := range raws[start:end] {
		record, err := raw.Record()
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, Item{
			SourceID:        raw.SourceID,
			TransactionNo:   raw.TransactionNo,
			TransactionTime: raw.TransactionTime,
			ImportedAt:      raw.ImportedAt,
			Record:          record,
		})
	}
	return result, nil
}

// Rematch runs every parked record of a source through the matcher with the
// current rules and commits the ones that now resolve both slots.
func (s *Service) Rematch(ctx context.Context, sourceID string) (*committer.BatchResult, error) {
	raws, err := s.parked(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	records := make([]importer.ImportRecord, 0, len(raws))
	for _, raw := range raws {
		record, err := raw.Record()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	batch, err := s.matcher.MatchTransactions(ctx, records, sourceID)
	if err != nil {
		return nil, err
	}

	result, err := s.committer.CommitBatch(ctx, sourceID, batch.Matched)
	if err != nil {
		return nil, err
	}
	result.Total = len(records)
	result.Parked += len(batch.Unmatched)

	s.logger.Info("unmatched queue rematched",
		"sourceId", sourceID,
		"parked", len(records),
		"committed", result.Committed,
		"stillParked", result.Parked)
	return result, nil
}

func (s *Service) parked(ctx context.Context, sourceID string) ([]*importer.RawTransaction, error) {
	linked := false
	raws, err := s.raws.ListRawTransactions(ctx, importer.RawFilter{SourceID: sourceID, Linked: &linked})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(raws, func(i, j int) bool {
		a, b := raws[i], raws[j]
		if !a.TransactionTime.Equal(b.TransactionTime) {
			return a.TransactionTime.Before(b.TransactionTime)
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.TransactionNo < b.TransactionNo
	})
	return raws, nil
}
