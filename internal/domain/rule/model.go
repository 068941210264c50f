package rule

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Field names a record field a rule pattern is tested against
type Field string

const (
	FieldType          Field = "type"
	FieldCategory      Field = "category"
	FieldCounterparty  Field = "counterparty"
	FieldDescription   Field = "description"
	FieldStatus        Field = "status"
	FieldPaymentMethod Field = "paymentMethod"
)

// ImportRule classifies import records of one source into ledger accounts.
// Empty patterns are wildcards.
type ImportRule struct {
	RuleID   string `json:"ruleId"`
	SourceID string `json:"sourceId"`
	Name     string `json:"name,omitempty"`
	Priority int    `json:"priority"`
	Enabled  bool   `json:"enabled"`

	TypePattern          string `json:"typePattern,omitempty"`
	CategoryPattern      string `json:"categoryPattern,omitempty"`
	CounterpartyPattern  string `json:"counterpartyPattern,omitempty"`
	DescriptionPattern   string `json:"descriptionPattern,omitempty"`
	StatusPattern        string `json:"statusPattern,omitempty"`
	PaymentMethodPattern string `json:"paymentMethodPattern,omitempty"`

	// Inclusive bounds on the absolute record amount
	MinAmount *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty"`

	// TimePattern is HH:MM-HH:MM on the time of day
	TimePattern string `json:"timePattern,omitempty"`

	TargetAccount string `json:"targetAccount,omitempty"`
	MethodAccount string `json:"methodAccount,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FieldPattern pairs a record field with the rule's regex for it
type FieldPattern struct {
	Field   Field
	Pattern string
}

// Patterns returns the populated regex patterns of the rule
func (r *ImportRule) Patterns() []FieldPattern {
	all := []FieldPattern{
		{Field: FieldType, Pattern: r.TypePattern},
		{Field: FieldCategory, Pattern: r.CategoryPattern},
		{Field: FieldCounterparty, Pattern: r.CounterpartyPattern},
		{Field: FieldDescription, Pattern: r.DescriptionPattern},
		{Field: FieldStatus, Pattern: r.StatusPattern},
		{Field: FieldPaymentMethod, Pattern: r.PaymentMethodPattern},
	}

	populated := make([]FieldPattern, 0, len(all))
	for _, p := range all {
		if p.Pattern != "" {
			populated = append(populated, p)
		}
	}
	return populated
}

// SortForEvaluation orders rules the way the matcher evaluates them:
// ascending priority, ties broken by ascending rule ID.
func SortForEvaluation(rules []*ImportRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].RuleID < rules[j].RuleID
	})
}

// CreateRuleRequest represents the request to create a rule
type CreateRuleRequest struct {
	SourceID string `json:"sourceId"`
	Name     string `json:"name,omitempty"`
	Priority int    `json:"priority"`
	// Enabled defaults to true when nil
	Enabled *bool `json:"enabled,omitempty"`

	TypePattern          string `json:"typePattern,omitempty"`
	CategoryPattern      string `json:"categoryPattern,omitempty"`
	CounterpartyPattern  string `json:"counterpartyPattern,omitempty"`
	DescriptionPattern   string `json:"descriptionPattern,omitempty"`
	StatusPattern        string `json:"statusPattern,omitempty"`
	PaymentMethodPattern string `json:"paymentMethodPattern,omitempty"`

	MinAmount   *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount   *decimal.Decimal `json:"maxAmount,omitempty"`
	TimePattern string           `json:"timePattern,omitempty"`

	TargetAccount string `json:"targetAccount,omitempty"`
	MethodAccount string `json:"methodAccount,omitempty"`
}

// UpdateRuleRequest represents a partial update; nil fields are left as is
type UpdateRuleRequest struct {
	Name     *string `json:"name,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`

	TypePattern          *string `json:"typePattern,omitempty"`
	CategoryPattern      *string `json:"categoryPattern,omitempty"`
	CounterpartyPattern  *string `json:"counterpartyPattern,omitempty"`
	DescriptionPattern   *string `json:"descriptionPattern,omitempty"`
	StatusPattern        *string `json:"statusPattern,omitempty"`
	PaymentMethodPattern *string `json:"paymentMethodPattern,omitempty"`

	MinAmount      *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount      *decimal.Decimal `json:"maxAmount,omitempty"`
	ClearMinAmount bool             `json:"clearMinAmount,omitempty"`
	ClearMaxAmount bool             `json:"clearMaxAmount,omitempty"`
	TimePattern    *string          `json:"timePattern,omitempty"`

	TargetAccount *string `json:"targetAccount,omitempty"`
	MethodAccount *string `json:"methodAccount,omitempty"`
}
