package rule

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

// Service provides rule-related business logic
type Service struct {
	repo     Repository
	sources  SourceChecker
	accounts AccountChecker
}

// NewService creates a new rule service
func NewService(repo Repository, sources SourceChecker, accounts AccountChecker) *Service {
	return &Service{
		repo:     repo,
		sources:  sources,
		accounts: accounts,
	}
}

// CreateRule creates a new classification rule for a source
func (s *Service) CreateRule(ctx context.Context, req *CreateRuleRequest) (*ImportRule, error) {
	if err := s.requireSource(ctx, req.SourceID); err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	now := time.Now().UTC()
	r := &ImportRule{
		RuleID:               ulid.Make().String(),
		SourceID:             req.SourceID,
		Name:                 strings.TrimSpace(req.Name),
		Priority:             req.Priority,
		Enabled:              enabled,
		TypePattern:          req.TypePattern,
		CategoryPattern:      req.CategoryPattern,
		CounterpartyPattern:  req.CounterpartyPattern,
		DescriptionPattern:   req.DescriptionPattern,
		StatusPattern:        req.StatusPattern,
		PaymentMethodPattern: req.PaymentMethodPattern,
		MinAmount:            req.MinAmount,
		MaxAmount:            req.MaxAmount,
		TimePattern:          strings.TrimSpace(req.TimePattern),
		TargetAccount:        strings.TrimSpace(req.TargetAccount),
		MethodAccount:        strings.TrimSpace(req.MethodAccount),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.validateRule(ctx, r); err != nil {
		return nil, err
	}

	return s.repo.CreateRule(ctx, r)
}

// UpdateRule applies a partial update to an existing rule
func (s *Service) UpdateRule(ctx context.Context, sourceID string, ruleID string, req *UpdateRuleRequest) (*ImportRule, error) {
	existing, err := s.repo.GetRule(ctx, sourceID, ruleID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	applyPattern := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	applyString(&updated.Name, req.Name)
	if req.Priority != nil {
		updated.Priority = *req.Priority
	}
	if req.Enabled != nil {
		updated.Enabled = *req.Enabled
	}
	applyPattern(&updated.TypePattern, req.TypePattern)
	applyPattern(&updated.CategoryPattern, req.CategoryPattern)
	applyPattern(&updated.CounterpartyPattern, req.CounterpartyPattern)
	applyPattern(&updated.DescriptionPattern, req.DescriptionPattern)
	applyPattern(&updated.StatusPattern, req.StatusPattern)
	applyPattern(&updated.PaymentMethodPattern, req.PaymentMethodPattern)
	if req.MinAmount != nil {
		updated.MinAmount = req.MinAmount
	}
	if req.ClearMinAmount {
		updated.MinAmount = nil
	}
	if req.MaxAmount != nil {
		updated.MaxAmount = req.MaxAmount
	}
	if req.ClearMaxAmount {
		updated.MaxAmount = nil
	}
	applyString(&updated.TimePattern, req.TimePattern)
	applyString(&updated.TargetAccount, req.TargetAccount)
	applyString(&updated.MethodAccount, req.MethodAccount)
	updated.UpdatedAt = time.Now().UTC()

	if err := s.validateRule(ctx, &updated); err != nil {
		return nil, err
	}

	return s.repo.UpdateRule(ctx, &updated)
}

// GetRule retrieves a rule
func (s *Service) GetRule(ctx context.Context, sourceID string, ruleID string) (*ImportRule, error) {
	return s.repo.GetRule(ctx, sourceID, ruleID)
}

// ListRules lists the rules of a source in evaluation order
func (s *Service) ListRules(ctx context.Context, sourceID string) ([]*ImportRule, error) {
	if err := s.requireSource(ctx, sourceID); err != nil {
		return nil, err
	}

	rules, err := s.repo.ListRules(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	SortForEvaluation(rules)
	return rules, nil
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

// validateRule rejects rules that could never be applied as written
func (s *Service) validateRule(ctx context.Context, r *ImportRule) error {
	if r.TargetAccount == "" && r.MethodAccount == "" {
		return errors.NewValidationError("rule must set targetAccount or methodAccount")
	}

	for _, p := range r.Patterns() {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return errors.NewInvalidInputError(fmt.Sprintf("invalid %s pattern", p.Field), err)
		}
	}

	if r.TimePattern != "" {
		if _, err := ParseTimeRange(r.TimePattern); err != nil {
			return err
		}
	}

	if r.MinAmount != nil && r.MaxAmount != nil && r.MinAmount.GreaterThan(*r.MaxAmount) {
		return errors.NewValidationError("minAmount must not exceed maxAmount")
	}

	for _, path := range []string{r.TargetAccount, r.MethodAccount} {
		if path == "" {
			continue
		}
		exists, err := s.accounts.AccountExists(ctx, path)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NewNotFoundError(fmt.Sprintf("account %s not found", path))
		}
	}

	return nil
}
