package matcher

import (
	"context"
	"log/slog"

	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
)

// RuleLister loads the rules of a source. It fails with NOT_FOUND for an
// unknown source.
type RuleLister interface {
	ListRules(ctx context.Context, sourceID string) ([]*rule.ImportRule, error)
}

// Service classifies batches of records
type Service struct {
	rules  RuleLister
	logger *slog.Logger
}

// NewService creates a new matcher service
func NewService(rules RuleLister, logger *slog.Logger) *Service {
	return &Service{
		rules:  rules,
		logger: logger,
	}
}

// MatchTransactions classifies every record with one rule snapshot and one
// pattern cache, and partitions the records by whether both slots resolved.
// Nothing is persisted.
func (s *Service) MatchTransactions(ctx context.Context, records []importer.ImportRecord, sourceID string) (*BatchMatch, error) {
	rules, err := s.rules.ListRules(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	patterns := NewPatternCache()
	batch := &BatchMatch{
		SourceID:  sourceID,
		Matched:   make([]MatchedRecord, 0, len(records)),
		Unmatched: make([]MatchedRecord, 0),
	}
	for _, record := range records {
		result := Match(record, rules, patterns, s.logger)
		matched := MatchedRecord{Record: record, Result: result}
		if result.Complete() {
			batch.Matched = append(batch.Matched, matched)
		} else {
			batch.Unmatched = append(batch.Unmatched, matched)
		}
	}

	s.logger.Info("batch matched",
		"sourceId", sourceID,
		"records", len(records),
		"rules", len(rules),
		"matched", len(batch.Matched),
		"unmatched", len(batch.Unmatched))
	return batch, nil
}
