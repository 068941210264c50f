package matcher

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func at(clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2024-03-01 "+clock)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func lunch() importer.ImportRecord {
	return importer.ImportRecord{
		TransactionTime: at("12:10"),
		Category:        "餐饮美食",
		Counterparty:    "Campus Canteen",
		Description:     "lunch set",
		Type:            importer.TypeExpense,
		Amount:          "¥1,234.56",
		PaymentMethod:   "招商银行储蓄卡(1234)",
		Status:          "交易成功",
		TransactionNo:   "T1",
	}
}

func TestMatch_BothSlots(t *testing.T) {
	rules := []*rule.ImportRule{
		{RuleID: "R1", Priority: 1, Enabled: true, CategoryPattern: "餐饮", TargetAccount: "Expenses:Food", MethodAccount: "Assets:Bank"},
	}

	result := Match(lunch(), rules, NewPatternCache(), discard)

	assert.True(t, result.Complete())
	assert.Equal(t, "Expenses:Food", result.TargetAccount)
	assert.Equal(t, "Assets:Bank", result.MethodAccount)
	assert.Equal(t, "R1", result.TargetRuleID)
	assert.Equal(t, "R1", result.MethodRuleID)
	assert.Equal(t, []string{"R1"}, result.ContributingRules)
}

func TestMatch_SlotsFromDifferentRules(t *testing.T) {
	rules := []*rule.ImportRule{
		{RuleID: "R-target", Priority: 2, Enabled: true, CounterpartyPattern: "Canteen", TargetAccount: "Expenses:Food"},
		{RuleID: "R-method", Priority: 1, Enabled: true, PaymentMethodPattern: "招商银行", MethodAccount: "Assets:Bank:CMB"},
	}

	result := Match(lunch(), rules, NewPatternCache(), discard)

	assert.True(t, result.Complete())
	assert.Equal(t, "R-target", result.TargetRuleID)
	assert.Equal(t, "R-method", result.MethodRuleID)
	assert.Equal(t, []string{"R-method", "R-target"}, result.ContributingRules)
}

func TestMatch_FirstEvaluatedRuleWinsSlot(t *testing.T) {
	rules := []*rule.ImportRule{
		{RuleID: "R-late", Priority: 10, Enabled: true, TargetAccount: "Expenses:Misc"},
		{RuleID: "R-early", Priority: 1, Enabled: true, TargetAccount: "Expenses:Food"},
	}

	result := Match(lunch(), rules, NewPatternCache(), discard)
	assert.Equal(t, "Expenses:Food", result.TargetAccount)
	assert.Equal(t, []string{"R-early"}, result.ContributingRules)

	t.Run("ties broken by rule ID", func(t *testing.T) {
		tied := []*rule.ImportRule{
			{RuleID: "01B", Priority: 5, Enabled: true, TargetAccount: "Expenses:Misc"},
			{RuleID: "01A", Priority: 5, Enabled: true, TargetAccount: "Expenses:Food"},
		}
		result := Match(lunch(), tied, NewPatternCache(), discard)
		assert.Equal(t, "01A", result.TargetRuleID)
	})

	t.Run("disabled rules are skipped", func(t *testing.T) {
		rules[1].Enabled = false
		result := Match(lunch(), rules, NewPatternCache(), discard)
		assert.Equal(t, "R-late", result.TargetRuleID)
	})
}

func TestMatch_StopsOnceBothSlotsFilled(t *testing.T) {
	rules := []*rule.ImportRule{
		{RuleID: "R1", Priority: 1, Enabled: true, TargetAccount: "Expenses:Food", MethodAccount: "Assets:Bank"},
		{RuleID: "R2", Priority: 2, Enabled: true, DescriptionPattern: "(", TargetAccount: "Expenses:Misc"},
	}

	cache := NewPatternCache()
	result := Match(lunch(), rules, cache, discard)

	assert.Equal(t, []string{"R1"}, result.ContributingRules)
	assert.Equal(t, 0, cache.Len(), "later rules are never compiled")
}

func TestMatch_Patterns(t *testing.T) {
	tests := []struct {
		name  string
		rule  rule.ImportRule
		match bool
	}{
		{name: "wildcard", rule: rule.ImportRule{}, match: true},
		{name: "unanchored contains", rule: rule.ImportRule{CounterpartyPattern: "Cant"}, match: true},
		{name: "anchored mismatch", rule: rule.ImportRule{CounterpartyPattern: "^Canteen"}, match: false},
		{name: "every pattern must match", rule: rule.ImportRule{CategoryPattern: "餐饮", StatusPattern: "退款"}, match: false},
		{name: "type label", rule: rule.ImportRule{TypePattern: "^支出$"}, match: true},
		{name: "min bound inclusive", rule: rule.ImportRule{MinAmount: dec("1234.56")}, match: true},
		{name: "max bound inclusive", rule: rule.ImportRule{MaxAmount: dec("1234.56")}, match: true},
		{name: "below min", rule: rule.ImportRule{MinAmount: dec("2000")}, match: false},
		{name: "above max", rule: rule.ImportRule{MaxAmount: dec("100")}, match: false},
		{name: "closed range", rule: rule.ImportRule{MinAmount: dec("1000"), MaxAmount: dec("1500")}, match: true},
		{name: "time window", rule: rule.ImportRule{TimePattern: "11:30-13:30"}, match: true},
		{name: "outside time window", rule: rule.ImportRule{TimePattern: "18:00-20:00"}, match: false},
		{name: "invalid regex fails closed", rule: rule.ImportRule{DescriptionPattern: "lunch[("}, match: false},
		{name: "malformed time fails closed", rule: rule.ImportRule{TimePattern: "noon"}, match: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.rule
			r.RuleID = "R1"
			r.Enabled = true
			r.TargetAccount = "Expenses:Food"

			result := Match(lunch(), []*rule.ImportRule{&r}, NewPatternCache(), discard)
			assert.Equal(t, tt.match, result.TargetAccount != "")
		})
	}
}

func TestMatch_NegativeAmountUsesMagnitude(t *testing.T) {
	record := lunch()
	record.Amount = "-58.00"
	rules := []*rule.ImportRule{
		{RuleID: "R1", Enabled: true, MinAmount: dec("50"), MaxAmount: dec("60"), TargetAccount: "Expenses:Food"},
	}

	assert.Equal(t, "Expenses:Food", Match(record, rules, NewPatternCache(), discard).TargetAccount)

	record.Amount = "n/a"
	assert.Empty(t, Match(record, rules, NewPatternCache(), discard).TargetAccount)
}

func TestMatch_TimeWindowWrapsMidnight(t *testing.T) {
	rules := []*rule.ImportRule{
		{RuleID: "R1", Enabled: true, TimePattern: "22:00-02:00", TargetAccount: "Expenses:LateNight"},
	}

	tests := []struct {
		clock string
		match bool
	}{
		{clock: "23:30", match: true},
		{clock: "01:00", match: true},
		{clock: "22:00", match: true},
		{clock: "02:00", match: true},
		{clock: "12:00", match: false},
		{clock: "02:01", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			record := lunch()
			record.TransactionTime = at(tt.clock)
			result := Match(record, rules, NewPatternCache(), discard)
			assert.Equal(t, tt.match, result.TargetAccount != "")
		})
	}
}

func TestMatch_Deterministic(t *testing.T) {
	rules := []*rule.ImportRule{
		{RuleID: "R3", Priority: 3, Enabled: true, MethodAccount: "Assets:Cash"},
		{RuleID: "R1", Priority: 1, Enabled: true, CategoryPattern: "餐饮", TargetAccount: "Expenses:Food"},
		{RuleID: "R2", Priority: 2, Enabled: true, PaymentMethodPattern: "银行", MethodAccount: "Assets:Bank"},
	}

	cache := NewPatternCache()
	first := Match(lunch(), rules, cache, discard)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Match(lunch(), rules, cache, discard))
		assert.Equal(t, first, Match(lunch(), rules, NewPatternCache(), discard))
	}
	assert.Equal(t, "R3", rules[0].RuleID, "input order is left untouched")
}

func TestMatch_PatternErrorLoggedOncePerBatch(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rules := []*rule.ImportRule{
		{RuleID: "R-bad", Priority: 1, Enabled: true, CounterpartyPattern: "(unclosed", TargetAccount: "Expenses:Misc"},
		{RuleID: "R-good", Priority: 2, Enabled: true, TargetAccount: "Expenses:Food"},
	}

	cache := NewPatternCache()
	for i := 0; i < 3; i++ {
		result := Match(lunch(), rules, cache, logger)
		require.Equal(t, "R-good", result.TargetRuleID)
	}

	assert.Equal(t, 1, strings.Count(buf.String(), `"code":"PATTERN_ERROR"`))
	assert.Contains(t, buf.String(), `"ruleId":"R-bad"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
