package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
)

// Service provides transaction-related business logic. Every write to the
// ledger goes through CreateTransaction so the balance invariant cannot be
// bypassed.
type Service struct {
	repo     Repository
	accounts AccountCurrencies
	logger   *slog.Logger
}

// NewService creates a new ledger service
func NewService(repo Repository, accounts AccountCurrencies, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		logger:   logger,
	}
}

// CreateTransaction validates and records a transaction
func (s *Service) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*Transaction, error) {
	if err := s.validatePostings(ctx, req.Postings); err != nil {
		return nil, err
	}

	kind := req.Kind
	if kind == "" {
		kind = KindManual
	}
	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	tx := &Transaction{
		TransactionID: ulid.Make().String(),
		Kind:          kind,
		Date:          date,
		Payee:         req.Payee,
		Narration:     req.Narration,
		Tags:          req.Tags,
		CreatedAt:     time.Now().UTC(),
		Postings:      make([]Posting, 0, len(req.Postings)),
	}
	for _, p := range req.Postings {
		tx.Postings = append(tx.Postings, Posting{
			PostingID:     ulid.Make().String(),
			TransactionID: tx.TransactionID,
			Account:       p.Account,
			Amount:        p.Amount,
			Currency:      p.Currency,
		})
	}

	links := make([]importer.RawLink, 0, len(req.Links))
	for _, link := range req.Links {
		link.TransactionID = tx.TransactionID
		link.LinkedAt = tx.CreatedAt
		links = append(links, link)
		tx.RawTransactionKeys = append(tx.RawTransactionKeys, link.Key)
	}

	if err := s.repo.CreateTransaction(ctx, tx, links); err != nil {
		return nil, err
	}

	s.logger.Info("transaction recorded",
		"transactionId", tx.TransactionID,
		"kind", tx.Kind,
		"postings", len(tx.Postings),
		"links", len(links))
	return tx, nil
}

// GetTransaction retrieves a transaction by ID
func (s *Service) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, transactionID)
}

// SumPostings adds up every posting made directly on the given accounts
func (s *Service) SumPostings(ctx context.Context, accountPaths ...string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, path := range accountPaths {
		postings, err := s.repo.ListPostings(ctx, path)
		if err != nil {
			return decimal.Zero, err
		}
		for _, p := range postings {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// validatePostings ensures that the postings follow double-entry rules
func (s *Service) validatePostings(ctx context.Context, postings []PostingInput) error {
	if len(postings) < 2 {
		return errors.NewValidationError("at least two postings are required for a valid transaction")
	}

	for _, p := range postings {
		if strings.TrimSpace(p.Account) == "" {
			return errors.NewValidationError("posting account is required")
		}
		if strings.TrimSpace(p.Currency) == "" {
			return errors.NewValidationError(fmt.Sprintf("posting on %s has no currency", p.Account))
		}
		if p.Currency != postings[0].Currency {
			return errors.NewValidationError("all postings of a transaction must share one currency")
		}
		currency, err := s.accounts.AccountCurrency(ctx, p.Account)
		if err != nil {
			return err
		}
		if currency != p.Currency {
			return errors.NewValidationError(fmt.Sprintf(
				"posting on %s is in %s but the account is kept in %s", p.Account, p.Currency, currency))
		}
	}

	if !IsBalanced(postings) {
		return errors.NewValidationError(fmt.Sprintf("transaction postings do not balance to zero: sum is %s", Sum(postings)))
	}

	return nil
}
