// Package memory keeps every repository in process memory. It backs the
// service tests and the CLI's --store=memory dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
	"github.com/hirosato/go-bill-ledger/internal/domain/source"
)

// Store implements the source, rule, importer, ledger and account
// repositories. Uniqueness checks happen under one mutex.
type Store struct {
	mu sync.RWMutex

	sources      map[string]source.ImportSource
	rules        map[string]map[string]rule.ImportRule
	raws         map[importer.RawKey]importer.RawTransaction
	transactions map[string]ledger.Transaction
	postings     map[string][]ledger.Posting
	accounts     map[string]account.Account
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		sources:      make(map[string]source.ImportSource),
		rules:        make(map[string]map[string]rule.ImportRule),
		raws:         make(map[importer.RawKey]importer.RawTransaction),
		transactions: make(map[string]ledger.Transaction),
		postings:     make(map[string][]ledger.Posting),
		accounts:     make(map[string]account.Account),
	}
}

// CreateSource stores a new import source
func (s *Store) CreateSource(ctx context.Context, src *source.ImportSource) (*source.ImportSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[src.SourceID]; ok {
		return nil, errors.NewConflictError(fmt.Sprintf("import source %s already exists", src.SourceID))
	}
	s.sources[src.SourceID] = *src
	out := *src
	return &out, nil
}

// GetSource retrieves an import source
func (s *Store) GetSource(ctx context.Context, sourceID string) (*source.ImportSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.sources[sourceID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("import source %s not found", sourceID))
	}
	return &src, nil
}

// ListSources lists import sources by ID
func (s *Store) ListSources(ctx context.Context) ([]*source.ImportSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*source.ImportSource, 0, len(s.sources))
	for _, src := range s.sources {
		src := src
		out = append(out, &src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out, nil
}

// SourceExists reports whether the source is registered
func (s *Store) SourceExists(ctx context.Context, sourceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sources[sourceID]
	return ok, nil
}

// CreateRule stores a new rule
func (s *Store) CreateRule(ctx context.Context, r *rule.ImportRule) (*rule.ImportRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySource, ok := s.rules[r.SourceID]
	if !ok {
		bySource = make(map[string]rule.ImportRule)
		s.rules[r.SourceID] = bySource
	}
	if _, ok := bySource[r.RuleID]; ok {
		return nil, errors.NewConflictError(fmt.Sprintf("rule %s already exists", r.RuleID))
	}
	bySource[r.RuleID] = *r
	out := *r
	return &out, nil
}

// GetRule retrieves a rule of a source
func (s *Store) GetRule(ctx context.Context, sourceID string, ruleID string) (*rule.ImportRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rules[sourceID][ruleID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("rule %s not found", ruleID))
	}
	return &r, nil
}

// UpdateRule replaces an existing rule
func (s *Store) UpdateRule(ctx context.Context, r *rule.ImportRule) (*rule.ImportRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[r.SourceID][r.RuleID]; !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("rule %s not found", r.RuleID))
	}
	s.rules[r.SourceID][r.RuleID] = *r
	out := *r
	return &out, nil
}

// ListRules lists every rule of a source
func (s *Store) ListRules(ctx context.Context, sourceID string) ([]*rule.ImportRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*rule.ImportRule, 0, len(s.rules[sourceID]))
	for _, r := range s.rules[sourceID] {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out, nil
}

// CreateRawTransaction stores a raw transaction unless its key is taken
func (s *Store) CreateRawTransaction(ctx context.Context, raw *importer.RawTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := importer.NewRawKey(raw.SourceID, raw.TransactionNo)
	if _, ok := s.raws[key]; ok {
		return errors.NewConflictError(fmt.Sprintf("raw transaction %s already exists", raw.ID()))
	}
	s.raws[key] = *raw
	return nil
}

// GetRawTransaction retrieves a raw transaction by its dedup key
func (s *Store) GetRawTransaction(ctx context.Context, key importer.RawKey) (*importer.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.raws[key]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("raw transaction %s/%s not found", key.SourceID, key.TransactionNo))
	}
	return &raw, nil
}

// ListRawTransactions lists raw transactions ordered by source and number
func (s *Store) ListRawTransactions(ctx context.Context, filter importer.RawFilter) ([]*importer.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*importer.RawTransaction, 0)
	for _, raw := range s.raws {
		if filter.SourceID != "" && raw.SourceID != filter.SourceID {
			continue
		}
		if filter.Linked != nil && raw.Linked() != *filter.Linked {
			continue
		}
		raw := raw
		out = append(out, &raw)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].TransactionNo < out[j].TransactionNo
	})
	return out, nil
}

// CreateTransaction stores a transaction, its postings and its raw links
// all at once. Nothing is written when any link target is missing or linked.
func (s *Store) CreateTransaction(ctx context.Context, tx *ledger.Transaction, links []importer.RawLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.TransactionID]; ok {
		return errors.NewConflictError(fmt.Sprintf("transaction %s already exists", tx.TransactionID))
	}
	for _, link := range links {
		raw, ok := s.raws[link.Key]
		if !ok {
			return errors.NewNotFoundError(fmt.Sprintf("raw transaction %s/%s not found", link.Key.SourceID, link.Key.TransactionNo))
		}
		if raw.Linked() {
			return errors.NewConflictError(fmt.Sprintf("raw transaction %s is already linked", raw.ID()))
		}
	}

	stored := *tx
	stored.Postings = append([]ledger.Posting(nil), tx.Postings...)
	s.transactions[tx.TransactionID] = stored
	for _, p := range tx.Postings {
		s.postings[p.Account] = append(s.postings[p.Account], p)
	}
	for _, link := range links {
		raw := s.raws[link.Key]
		linkedAt := link.LinkedAt
		raw.TransactionID = link.TransactionID
		raw.TargetAccount = link.TargetAccount
		raw.MethodAccount = link.MethodAccount
		raw.LinkedAt = &linkedAt
		s.raws[link.Key] = raw
	}
	return nil
}

// GetTransaction retrieves a transaction with its postings
func (s *Store) GetTransaction(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[transactionID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("transaction %s not found", transactionID))
	}
	tx.Postings = append([]ledger.Posting(nil), tx.Postings...)
	return &tx, nil
}

// ListPostings lists the postings made directly on an account
func (s *Store) ListPostings(ctx context.Context, accountPath string) ([]ledger.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]ledger.Posting(nil), s.postings[accountPath]...), nil
}

// CreateAccount stores an account unless its path is taken
func (s *Store) CreateAccount(ctx context.Context, acct *account.Account) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acct.Path]; ok {
		return nil, errors.NewConflictError(fmt.Sprintf("account %s already exists", acct.Path))
	}
	s.accounts[acct.Path] = *acct
	out := *acct
	return &out, nil
}

// GetAccount retrieves an account by path
func (s *Store) GetAccount(ctx context.Context, path string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[strings.TrimSpace(path)]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("account %s not found", path))
	}
	return &acct, nil
}

// ListAccounts lists accounts passing the filter in path order
func (s *Store) ListAccounts(ctx context.Context, filter account.Filter) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*account.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		acct := acct
		if filter.Matches(&acct) {
			out = append(out, &acct)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// AccountExists reports whether an account with the path exists
func (s *Store) AccountExists(ctx context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[strings.TrimSpace(path)]
	return ok, nil
}

// Close releases nothing; it lets the store stand in for real backends
func (s *Store) Close() error {
	return nil
}
