package matcher

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
)

// Match classifies a record against a rule set. Rules are evaluated by
// ascending priority, then ascending rule ID; disabled rules are skipped.
// The first applicable rule carrying a target account fills the target
// slot, and independently for the method slot. A rule with an unusable
// pattern never applies; the problem is logged once per cache.
func Match(record importer.ImportRecord, rules []*rule.ImportRule, patterns *PatternCache, logger *slog.Logger) Result {
	ordered := make([]*rule.ImportRule, len(rules))
	copy(ordered, rules)
	rule.SortForEvaluation(ordered)

	m := recordMatcher{record: record, patterns: patterns, logger: logger}
	result := Result{ContributingRules: []string{}}

	for _, r := range ordered {
		if result.Complete() {
			break
		}
		if !r.Enabled {
			continue
		}

		fillsTarget := r.TargetAccount != "" && result.TargetAccount == ""
		fillsMethod := r.MethodAccount != "" && result.MethodAccount == ""
		if !fillsTarget && !fillsMethod {
			continue
		}
		if !m.applies(r) {
			continue
		}

		if fillsTarget {
			result.TargetAccount = r.TargetAccount
			result.TargetRuleID = r.RuleID
		}
		if fillsMethod {
			result.MethodAccount = r.MethodAccount
			result.MethodRuleID = r.RuleID
		}
		result.ContributingRules = append(result.ContributingRules, r.RuleID)
	}

	return result
}

type recordMatcher struct {
	record   importer.ImportRecord
	patterns *PatternCache
	logger   *slog.Logger

	amountParsed bool
	amount       decimal.Decimal
	amountErr    error
}

func (m *recordMatcher) applies(r *rule.ImportRule) bool {
	for _, p := range r.Patterns() {
		re, fresh, err := m.patterns.Regexp(r.RuleID, p.Field, p.Pattern)
		if err != nil {
			if fresh {
				m.logPatternError(r, string(p.Field), p.Pattern, err)
			}
			return false
		}
		if !re.MatchString(fieldValue(m.record, p.Field)) {
			return false
		}
	}

	if r.MinAmount != nil || r.MaxAmount != nil {
		amount, ok := m.absoluteAmount()
		if !ok {
			return false
		}
		if r.MinAmount != nil && amount.LessThan(*r.MinAmount) {
			return false
		}
		if r.MaxAmount != nil && amount.GreaterThan(*r.MaxAmount) {
			return false
		}
	}

	if r.TimePattern != "" {
		tr, fresh, err := m.patterns.TimeRange(r.RuleID, r.TimePattern)
		if err != nil {
			if fresh {
				m.logPatternError(r, "time", r.TimePattern, err)
			}
			return false
		}
		if !tr.Contains(m.record.TransactionTime) {
			return false
		}
	}

	return true
}

func (m *recordMatcher) absoluteAmount() (decimal.Decimal, bool) {
	if !m.amountParsed {
		m.amount, m.amountErr = importer.ParseAmount(m.record.Amount)
		m.amountParsed = true
	}
	if m.amountErr != nil {
		return decimal.Zero, false
	}
	return m.amount.Abs(), true
}

func (m *recordMatcher) logPatternError(r *rule.ImportRule, field string, pattern string, err error) {
	patternErr := errors.NewPatternError("rule pattern is unusable, rule never matches", err)
	m.logger.Warn(patternErr.Message,
		"code", patternErr.Code,
		"ruleId", r.RuleID,
		"sourceId", r.SourceID,
		"field", field,
		"pattern", pattern,
		"error", err)
}

func fieldValue(record importer.ImportRecord, field rule.Field) string {
	switch field {
	case rule.FieldType:
		return record.Type
	case rule.FieldCategory:
		return record.Category
	case rule.FieldCounterparty:
		return record.Counterparty
	case rule.FieldDescription:
		return record.Description
	case rule.FieldStatus:
		return record.Status
	case rule.FieldPaymentMethod:
		return record.PaymentMethod
	}
	return ""
}
