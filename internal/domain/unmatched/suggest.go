package unmatched

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jbrukh/bayesian"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
)

const defaultSuggestionLimit = 3

// Suggest ranks target accounts for a parked record using a naive bayesian
// classifier trained on the already linked records of the same source.
// Fewer than two distinct target accounts in the history yields no
// suggestions.
func (s *Service) Suggest(ctx context.Context, sourceID string, transactionNo string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	raw, err := s.raws.GetRawTransaction(ctx, importer.NewRawKey(sourceID, transactionNo))
	if err != nil {
		return nil, err
	}
	if raw.Linked() {
		return nil, errors.NewConflictError(fmt.Sprintf("raw transaction %s is already linked to %s", raw.ID(), raw.TransactionID))
	}
	record, err := raw.Record()
	if err != nil {
		return nil, err
	}

	classifier, err := s.train(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if classifier == nil {
		return []Suggestion{}, nil
	}

	scores, _, _ := classifier.ProbScores(Words(record))
	suggestions := make([]Suggestion, 0, len(scores))
	for i, score := range scores {
		suggestions = append(suggestions, Suggestion{
			Account:     string(classifier.Classes[i]),
			Probability: score,
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Probability > suggestions[j].Probability
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func (s *Service) train(ctx context.Context, sourceID string) (*bayesian.Classifier, error) {
	linked := true
	history, err := s.raws.ListRawTransactions(ctx, importer.RawFilter{SourceID: sourceID, Linked: &linked})
	if err != nil {
		return nil, err
	}

	type example struct {
		words []string
		class bayesian.Class
	}
	examples := make([]example, 0, len(history))
	seen := make(map[bayesian.Class]bool)
	for _, raw := range history {
		if raw.TargetAccount == "" {
			continue
		}
		record, err := raw.Record()
		if err != nil {
			s.logger.Warn("skipping undecodable raw transaction", "sourceId", sourceID, "transactionNo", raw.TransactionNo, "error", err)
			continue
		}
		class := bayesian.Class(raw.TargetAccount)
		seen[class] = true
		examples = append(examples, example{words: Words(record), class: class})
	}

	// NewClassifier panics below two classes
	if len(seen) < 2 {
		return nil, nil
	}

	classes := make([]bayesian.Class, 0, len(seen))
	for class := range seen {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	classifier := bayesian.NewClassifier(classes...)
	for _, ex := range examples {
		classifier.Learn(ex.words, ex.class)
	}
	return classifier, nil
}

// Words tokenizes the descriptive fields of a record
func Words(record importer.ImportRecord) []string {
	fields := []string{record.Counterparty, record.Category, record.Description}
	words := make([]string, 0)
	for _, f := range fields {
		words = append(words, strings.Fields(strings.ToLower(f))...)
	}
	return words
}
