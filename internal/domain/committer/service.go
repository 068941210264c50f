package committer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
	"github.com/hirosato/go-bill-ledger/internal/domain/matcher"
)

// TransactionCreator records balanced transactions
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, req *ledger.CreateTransactionRequest) (*ledger.Transaction, error)
}

// AccountReader resolves ledger accounts
type AccountReader interface {
	GetAccount(ctx context.Context, path string) (*account.Account, error)
}

// SourceChecker resolves import sources
type SourceChecker interface {
	SourceExists(ctx context.Context, sourceID string) (bool, error)
}

// BatchMatcher classifies a batch of records
type BatchMatcher interface {
	MatchTransactions(ctx context.Context, records []importer.ImportRecord, sourceID string) (*matcher.BatchMatch, error)
}

// Service commits classified records into the ledger
type Service struct {
	raws     importer.Repository
	ledger   TransactionCreator
	accounts AccountReader
	sources  SourceChecker
	matcher  BatchMatcher
	logger   *slog.Logger
}

// NewService creates a new committer service
func NewService(
	raws importer.Repository,
	ledger TransactionCreator,
	accounts AccountReader,
	sources SourceChecker,
	matcher BatchMatcher,
	logger *slog.Logger,
) *Service {
	return &Service{
		raws:     raws,
		ledger:   ledger,
		accounts: accounts,
		sources:  sources,
		matcher:  matcher,
		logger:   logger,
	}
}

// Commit persists one record of a source. A record whose raw transaction is
// already linked is a duplicate and changes nothing. A fully classified
// record becomes a two-posting transaction linked to its raw transaction;
// otherwise the raw transaction is left unlinked.
func (s *Service) Commit(ctx context.Context, sourceID string, record importer.ImportRecord, result matcher.Result) (*CommitResult, error) {
	if err := s.requireSource(ctx, sourceID); err != nil {
		return nil, err
	}
	return s.commit(ctx, sourceID, record, result)
}

// CommitBatch commits every record independently. Failures are reported
// per record and never stop the batch.
func (s *Service) CommitBatch(ctx context.Context, sourceID string, records []matcher.MatchedRecord) (*BatchResult, error) {
	if err := s.requireSource(ctx, sourceID); err != nil {
		return nil, err
	}

	batch := &BatchResult{
		SourceID:       sourceID,
		Total:          len(records),
		Failed:         make([]FailedRecord, 0),
		TransactionIDs: make([]string, 0),
	}
	for _, mr := range records {
		res, err := s.commit(ctx, sourceID, mr.Record, mr.Result)
		if err != nil {
			batch.Failed = append(batch.Failed, FailedRecord{
				TransactionNo: mr.Record.Key(),
				Code:          errors.CodeOf(err),
				Reason:        err.Error(),
			})
			s.logFailure(sourceID, mr.Record, err)
			continue
		}

		switch {
		case res.Created:
			batch.Committed++
			batch.TransactionIDs = append(batch.TransactionIDs, res.Transaction.TransactionID)
		case res.Duplicate:
			batch.Duplicates++
		case res.Parked:
			batch.Parked++
		}
	}

	s.logger.Info("batch committed",
		"sourceId", sourceID,
		"total", batch.Total,
		"committed", batch.Committed,
		"duplicates", batch.Duplicates,
		"parked", batch.Parked,
		"failed", len(batch.Failed))
	return batch, nil
}

// ImportRecords matches a batch and commits it in one go. Records that do
// not resolve both slots are parked in the unmatched queue.
func (s *Service) ImportRecords(ctx context.Context, sourceID string, records []importer.ImportRecord) (*BatchResult, error) {
	matched, err := s.matcher.MatchTransactions(ctx, records, sourceID)
	if err != nil {
		return nil, err
	}
	return s.CommitBatch(ctx, sourceID, matched.All())
}

// ClassifyRaw manually classifies a parked raw transaction
func (s *Service) ClassifyRaw(ctx context.Context, sourceID string, transactionNo string, targetAccount string, methodAccount string) (*CommitResult, error) {
	targetAccount = strings.TrimSpace(targetAccount)
	methodAccount = strings.TrimSpace(methodAccount)
	if targetAccount == "" || methodAccount == "" {
		return nil, errors.NewValidationError("both targetAccount and methodAccount are required")
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

	return s.commit(ctx, sourceID, record, matcher.Result{
		TargetAccount:     targetAccount,
		MethodAccount:     methodAccount,
		ContributingRules: []string{},
	})
}

func (s *Service) commit(ctx context.Context, sourceID string, record importer.ImportRecord, result matcher.Result) (*CommitResult, error) {
	key := importer.NewRawKey(sourceID, record.TransactionNo)
	if key.TransactionNo == "" {
		return nil, errors.NewValidationError("transaction number is required")
	}

	raw, err := s.lookupRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw != nil && raw.Linked() {
		return &CommitResult{Duplicate: true, RawTransaction: raw}, nil
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	var transfer *ledger.Transfer
	if result.Complete() {
		transfer, err = s.buildTransfer(ctx, record, result)
		if err != nil {
			return nil, err
		}
	}

	if raw == nil {
		raw, err = s.persistRaw(ctx, sourceID, record)
		if err != nil {
			return nil, err
		}
		if raw.Linked() {
			return &CommitResult{Duplicate: true, RawTransaction: raw}, nil
		}
	}

	if transfer == nil {
		return &CommitResult{Parked: true, RawTransaction: raw}, nil
	}

	tx, err := s.ledger.CreateTransaction(ctx, &ledger.CreateTransactionRequest{
		Kind:      ledger.KindImport,
		Date:      transactionDate(record),
		Payee:     record.Counterparty,
		Narration: narration(record),
		Postings:  transfer.Postings(),
		Tags:      tags(record),
		Links: []importer.RawLink{{
			Key:           key,
			TargetAccount: transfer.TargetAccount,
			MethodAccount: transfer.MethodAccount,
		}},
	})
	if errors.Is(err, errors.ErrConflict) {
		// a concurrent commit linked the raw first
		s.logger.Info("raw transaction linked concurrently", "sourceId", sourceID, "transactionNo", key.TransactionNo)
		linked, rerr := s.raws.GetRawTransaction(ctx, key)
		if rerr != nil {
			return nil, rerr
		}
		return &CommitResult{Duplicate: true, RawTransaction: linked}, nil
	}
	if err != nil {
		return nil, err
	}

	linkedAt := tx.CreatedAt
	raw.TransactionID = tx.TransactionID
	raw.TargetAccount = transfer.TargetAccount
	raw.MethodAccount = transfer.MethodAccount
	raw.LinkedAt = &linkedAt
	return &CommitResult{Created: true, Transaction: tx, RawTransaction: raw}, nil
}

func (s *Service) lookupRaw(ctx context.Context, key importer.RawKey) (*importer.RawTransaction, error) {
	raw, err := s.raws.GetRawTransaction(ctx, key)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// persistRaw writes the raw copy of the record. Losing the uniqueness race
// to another writer yields that writer's row.
func (s *Service) persistRaw(ctx context.Context, sourceID string, record importer.ImportRecord) (*importer.RawTransaction, error) {
	raw, err := importer.NewRawTransaction(sourceID, record, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	err = s.raws.CreateRawTransaction(ctx, raw)
	if errors.Is(err, errors.ErrConflict) {
		return s.raws.GetRawTransaction(ctx, importer.NewRawKey(raw.SourceID, raw.TransactionNo))
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Service) buildTransfer(ctx context.Context, record importer.ImportRecord, result matcher.Result) (*ledger.Transfer, error) {
	method, err := s.accounts.GetAccount(ctx, result.MethodAccount)
	if err != nil {
		return nil, err
	}
	target, err := s.accounts.GetAccount(ctx, result.TargetAccount)
	if err != nil {
		return nil, err
	}
	if method.Currency != target.Currency {
		return nil, errors.NewValidationError(fmt.Sprintf(
			"accounts %s (%s) and %s (%s) use different currencies",
			method.Path, method.Currency, target.Path, target.Currency))
	}

	amount, err := importer.ParseAmount(record.Amount)
	if err != nil {
		return nil, err
	}

	return &ledger.Transfer{
		Direction:     record.Direction(),
		Amount:        amount,
		MethodAccount: method.Path,
		TargetAccount: target.Path,
		Currency:      method.Currency,
	}, nil
}

func (s *Service) requireSource(ctx context.Context, sourceID string) error {
	if strings.TrimSpace(sourceID) == "" {
		return errors.NewValidationError("source ID is required")
	}
	exists, err := s.sources.SourceExists(ctx, sourceID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewNotFoundError(fmt.Sprintf("import source %s not found", sourceID))
	}
	return nil
}

func (s *Service) logFailure(sourceID string, record importer.ImportRecord, err error) {
	attrs := []any{"sourceId", sourceID, "transactionNo", record.Key(), "error", err}
	if errors.Is(err, errors.ErrStorage) {
		s.logger.Error("failed to commit record", attrs...)
		return
	}
	s.logger.Warn("record rejected", attrs...)
}

func transactionDate(record importer.ImportRecord) time.Time {
	if record.TransactionTime.IsZero() {
		return time.Now().UTC()
	}
	return record.TransactionTime
}

func narration(record importer.ImportRecord) string {
	if d := strings.TrimSpace(record.Description); d != "" {
		return d
	}
	return strings.TrimSpace(record.Category)
}

func tags(record importer.ImportRecord) []string {
	if t := strings.TrimSpace(record.ProviderTag); t != "" {
		return []string{t}
	}
	return nil
}
