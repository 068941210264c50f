package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
)

const ruleColumns = `source_id, rule_id, name, priority, enabled,
	type_pattern, category_pattern, counterparty_pattern, description_pattern, status_pattern, payment_method_pattern,
	min_amount, max_amount, time_pattern, target_account, method_account, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*rule.ImportRule, error) {
	var (
		r         rule.ImportRule
		minAmount decimal.NullDecimal
		maxAmount decimal.NullDecimal
	)
	err := row.Scan(&r.SourceID, &r.RuleID, &r.Name, &r.Priority, &r.Enabled,
		&r.TypePattern, &r.CategoryPattern, &r.CounterpartyPattern, &r.DescriptionPattern, &r.StatusPattern, &r.PaymentMethodPattern,
		&minAmount, &maxAmount, &r.TimePattern, &r.TargetAccount, &r.MethodAccount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.MinAmount = fromNullDecimal(minAmount)
	r.MaxAmount = fromNullDecimal(maxAmount)
	return &r, nil
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func ruleArgs(r *rule.ImportRule) []interface{} {
	return []interface{}{
		r.Name, r.Priority, r.Enabled,
		r.TypePattern, r.CategoryPattern, r.CounterpartyPattern, r.DescriptionPattern, r.StatusPattern, r.PaymentMethodPattern,
		toNullDecimal(r.MinAmount), toNullDecimal(r.MaxAmount), r.TimePattern, r.TargetAccount, r.MethodAccount,
	}
}

// CreateRule stores a new rule under its source
func (s *Store) CreateRule(ctx context.Context, r *rule.ImportRule) (*rule.ImportRule, error) {
	args := append([]interface{}{r.SourceID, r.RuleID}, ruleArgs(r)...)
	args = append(args, r.CreatedAt, r.UpdatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_rules (`+ruleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...)
	if err != nil {
		return nil, translate(err, "insert rule", fmt.Sprintf("rule %s already exists", r.RuleID))
	}
	return r, nil
}

// GetRule retrieves a rule of a source
func (s *Store) GetRule(ctx context.Context, sourceID string, ruleID string) (*rule.ImportRule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM import_rules WHERE source_id = ? AND rule_id = ?`, sourceID, ruleID)
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("rule %s not found", ruleID))
	}
	if err != nil {
		return nil, storageError("get rule", err)
	}
	return r, nil
}

// UpdateRule replaces a stored rule
func (s *Store) UpdateRule(ctx context.Context, r *rule.ImportRule) (*rule.ImportRule, error) {
	args := append(ruleArgs(r), r.UpdatedAt, r.SourceID, r.RuleID)
	res, err := s.db.ExecContext(ctx, `UPDATE import_rules SET
		name = ?, priority = ?, enabled = ?,
		type_pattern = ?, category_pattern = ?, counterparty_pattern = ?, description_pattern = ?, status_pattern = ?, payment_method_pattern = ?,
		min_amount = ?, max_amount = ?, time_pattern = ?, target_account = ?, method_account = ?, updated_at = ?
		WHERE source_id = ? AND rule_id = ?`, args...)
	if err != nil {
		return nil, storageError("update rule", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, storageError("update rule", err)
	}
	if n == 0 {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("rule %s not found", r.RuleID))
	}
	return r, nil
}

// ListRules lists every rule of a source
func (s *Store) ListRules(ctx context.Context, sourceID string) ([]*rule.ImportRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM import_rules WHERE source_id = ? ORDER BY priority, rule_id`, sourceID)
	if err != nil {
		return nil, storageError("list rules", err)
	}
	defer rows.Close()

	rules := make([]*rule.ImportRule, 0)
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, storageError("scan rule", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list rules", err)
	}
	return rules, nil
}
