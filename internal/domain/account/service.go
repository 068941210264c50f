package account

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/go-bill-ledger/internal/common/utils"
	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
)

// Ledger is the part of the ledger service the hierarchy posts through
type Ledger interface {
	CreateTransaction(ctx context.Context, req *ledger.CreateTransactionRequest) (*ledger.Transaction, error)
	SumPostings(ctx context.Context, accountPaths ...string) (decimal.Decimal, error)
}

// Service provides account-related business logic
type Service struct {
	repo            Repository
	ledger          Ledger
	defaultCurrency string
	logger          *slog.Logger
}

// NewService creates a new account service
func NewService(repo Repository, ledger Ledger, defaultCurrency string, logger *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		ledger:          ledger,
		defaultCurrency: strings.ToUpper(defaultCurrency),
		logger:          logger,
	}
}

// CreateAccount creates a new account, optionally with an opening balance
func (s *Service) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.NewValidationError("account name is required")
	}
	if strings.Contains(name, PathSeparator) {
		return nil, errors.NewValidationError(fmt.Sprintf("account name must not contain '%s'", PathSeparator))
	}
	if !req.AccountType.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid account type %q", req.AccountType)).
			WithDetail("allowed", []AccountType{Assets, Liabilities, Income, Expenses, Equity})
	}

	path := name
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	parentPath := strings.TrimSpace(req.ParentPath)
	if parentPath != "" {
		parent, err := s.repo.GetAccount(ctx, parentPath)
		if err != nil {
			return nil, err
		}
		if parent.Type != req.AccountType {
			return nil, errors.NewValidationError(fmt.Sprintf(
				"account type %s does not match parent %s of type %s", req.AccountType, parent.Path, parent.Type))
		}
		path = parent.Path + PathSeparator + name
		if currency == "" {
			currency = parent.Currency
		}
	}
	if currency == "" {
		currency = s.defaultCurrency
	}
	if err := utils.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	exists, err := s.repo.AccountExists(ctx, path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewConflictError(fmt.Sprintf("account %s already exists", path))
	}

	opening := req.OpeningBalance != nil && !req.OpeningBalance.IsZero()
	openingPath := s.equityAccount(OpeningBalancesPath, currency)
	if opening {
		if err := s.ensureAccount(ctx, openingPath, Equity, currency); err != nil {
			return nil, err
		}
	}

	created, err := s.repo.CreateAccount(ctx, &Account{
		Path:       path,
		Name:       name,
		Type:       req.AccountType,
		ParentPath: parentPath,
		Currency:   currency,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created", "path", created.Path, "type", created.Type)

	if opening {
		if err := s.postAgainst(ctx, created, *req.OpeningBalance, openingPath, ledger.KindOpening, "Opening balance"); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// GetAccount retrieves an account by path
func (s *Service) GetAccount(ctx context.Context, path string) (*Account, error) {
	return s.repo.GetAccount(ctx, path)
}

// ListAccounts retrieves accounts passing the filter
func (s *Service) ListAccounts(ctx context.Context, filter Filter) ([]*Account, error) {
	return s.repo.ListAccounts(ctx, filter)
}

// AccountExists reports whether an account with the path exists
func (s *Service) AccountExists(ctx context.Context, path string) (bool, error) {
	return s.repo.AccountExists(ctx, path)
}

// Balance sums the postings made directly on the account
func (s *Service) Balance(ctx context.Context, path string) (*BalanceResponse, error) {
	acct, err := s.repo.GetAccount(ctx, path)
	if err != nil {
		return nil, err
	}

	total, err := s.ledger.SumPostings(ctx, acct.Path)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{Path: acct.Path, Balance: total, Currency: acct.Currency}, nil
}

// SubtreeBalance sums the postings on the account and on every descendant
func (s *Service) SubtreeBalance(ctx context.Context, path string) (*BalanceResponse, error) {
	acct, err := s.repo.GetAccount(ctx, path)
	if err != nil {
		return nil, err
	}

	accounts, err := s.repo.ListAccounts(ctx, Filter{Under: acct.Path})
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(accounts))
	for _, a := range accounts {
		paths = append(paths, a.Path)
	}

	total, err := s.ledger.SumPostings(ctx, paths...)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{Path: acct.Path, Balance: total, Currency: acct.Currency, Subtree: true}, nil
}

// AdjustBalance brings the account's direct balance to newBalance with a
// transaction against the adjustments equity account. It returns nil when
// the balance already matches.
func (s *Service) AdjustBalance(ctx context.Context, path string, newBalance decimal.Decimal) (*ledger.Transaction, error) {
	current, err := s.Balance(ctx, path)
	if err != nil {
		return nil, err
	}

	diff := newBalance.Sub(current.Balance)
	if diff.IsZero() {
		s.logger.Debug("balance already matches", "path", path, "balance", current.Balance.String())
		return nil, nil
	}

	acct, err := s.repo.GetAccount(ctx, path)
	if err != nil {
		return nil, err
	}
	adjustments := s.equityAccount(AdjustmentsPath, acct.Currency)
	if err := s.ensureAccount(ctx, adjustments, Equity, acct.Currency); err != nil {
		return nil, err
	}

	return s.ledger.CreateTransaction(ctx, &ledger.CreateTransactionRequest{
		Kind:      ledger.KindAdjustment,
		Date:      time.Now().UTC(),
		Narration: fmt.Sprintf("Balance adjustment from %s to %s", current.Balance, newBalance),
		Postings: []ledger.PostingInput{
			{Account: acct.Path, Amount: diff, Currency: acct.Currency},
			{Account: adjustments, Amount: diff.Neg(), Currency: acct.Currency},
		},
	})
}

// GetAccountHierarchy gets the chart of accounts as a forest sorted by path
func (s *Service) GetAccountHierarchy(ctx context.Context) ([]*Node, error) {
	accounts, err := s.repo.ListAccounts(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return BuildTree(accounts), nil
}

// BuildTree arranges accounts under their parents. Accounts whose parent is
// missing from the input become roots.
func BuildTree(accounts []*Account) []*Node {
	sorted := make([]*Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	nodes := make(map[string]*Node, len(sorted))
	roots := make([]*Node, 0)
	for _, a := range sorted {
		node := &Node{Account: a}
		nodes[a.Path] = node
		if parent, ok := nodes[a.ParentPath]; ok && a.ParentPath != "" {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots
}

func (s *Service) postAgainst(ctx context.Context, acct *Account, amount decimal.Decimal, equityPath string, kind ledger.Kind, narration string) error {
	_, err := s.ledger.CreateTransaction(ctx, &ledger.CreateTransactionRequest{
		Kind:      kind,
		Date:      acct.CreatedAt,
		Narration: narration,
		Postings: []ledger.PostingInput{
			{Account: acct.Path, Amount: amount, Currency: acct.Currency},
			{Account: equityPath, Amount: amount.Neg(), Currency: acct.Currency},
		},
	})
	return err
}

// equityAccount names the system equity account for a currency. The default
// currency posts on base itself, others on a child named after the currency.
func (s *Service) equityAccount(base, currency string) string {
	if currency == s.defaultCurrency {
		return base
	}
	return base + PathSeparator + currency
}

// ensureAccount creates the account and any missing ancestors. Ancestors are
// kept in the default currency, the leaf in currency. Existing accounts on
// the path must already have accountType. A racing creator winning the
// conditional write is fine.
func (s *Service) ensureAccount(ctx context.Context, path string, accountType AccountType, currency string) error {
	segments := strings.Split(path, PathSeparator)
	parent := ""
	for i, name := range segments {
		current := strings.Join(segments[:i+1], PathSeparator)
		existing, err := s.repo.GetAccount(ctx, current)
		switch {
		case err == nil:
			if existing.Type != accountType {
				return errors.NewValidationError(fmt.Sprintf(
					"system account %s needs %s of type %s but it is %s", path, current, accountType, existing.Type))
			}
			if i == len(segments)-1 && existing.Currency != currency {
				return errors.NewValidationError(fmt.Sprintf(
					"system account %s is kept in %s, not %s", path, existing.Currency, currency))
			}
		case errors.Is(err, errors.ErrNotFound):
			leafCurrency := s.defaultCurrency
			if i == len(segments)-1 {
				leafCurrency = currency
			}
			_, err := s.repo.CreateAccount(ctx, &Account{
				Path:       current,
				Name:       name,
				Type:       accountType,
				ParentPath: parent,
				Currency:   leafCurrency,
				CreatedAt:  time.Now().UTC(),
			})
			if err != nil && !errors.Is(err, errors.ErrConflict) {
				return err
			}
			if err == nil {
				s.logger.Info("system account created", "path", current, "currency", leafCurrency)
			}
		default:
			return err
		}
		parent = current
	}
	return nil
}
