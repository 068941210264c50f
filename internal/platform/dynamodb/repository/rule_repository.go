package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

// DynamoDBRuleRepository implements the rule.Repository interface
type DynamoDBRuleRepository struct {
	table
}

// NewDynamoDBRuleRepository creates a new DynamoDBRuleRepository
func NewDynamoDBRuleRepository(client client.Client, tableName string, logger *slog.Logger) *DynamoDBRuleRepository {
	return &DynamoDBRuleRepository{table{client: client, name: tableName, logger: logger}}
}

// ruleItem stores amount bounds as strings so they keep full precision
type ruleItem struct {
	PK       string
	SK       string
	Type     string
	RuleID   string
	SourceID string
	Name     string `dynamodbav:",omitempty"`
	Priority int
	Enabled  bool

	TypePattern          string `dynamodbav:",omitempty"`
	CategoryPattern      string `dynamodbav:",omitempty"`
	CounterpartyPattern  string `dynamodbav:",omitempty"`
	DescriptionPattern   string `dynamodbav:",omitempty"`
	StatusPattern        string `dynamodbav:",omitempty"`
	PaymentMethodPattern string `dynamodbav:",omitempty"`

	MinAmount   *string `dynamodbav:",omitempty"`
	MaxAmount   *string `dynamodbav:",omitempty"`
	TimePattern string  `dynamodbav:",omitempty"`

	TargetAccount string `dynamodbav:",omitempty"`
	MethodAccount string `dynamodbav:",omitempty"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func newRuleItem(r *rule.ImportRule) ruleItem {
	return ruleItem{
		PK:                   sourcePK(r.SourceID),
		SK:                   ruleSK(r.RuleID),
		Type:                 itemTypeRule,
		RuleID:               r.RuleID,
		SourceID:             r.SourceID,
		Name:                 r.Name,
		Priority:             r.Priority,
		Enabled:              r.Enabled,
		TypePattern:          r.TypePattern,
		CategoryPattern:      r.CategoryPattern,
		CounterpartyPattern:  r.CounterpartyPattern,
		DescriptionPattern:   r.DescriptionPattern,
		StatusPattern:        r.StatusPattern,
		PaymentMethodPattern: r.PaymentMethodPattern,
		MinAmount:            decimalString(r.MinAmount),
		MaxAmount:            decimalString(r.MaxAmount),
		TimePattern:          r.TimePattern,
		TargetAccount:        r.TargetAccount,
		MethodAccount:        r.MethodAccount,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func (i ruleItem) toDomain() (*rule.ImportRule, error) {
	minAmount, err := parseDecimal(i.MinAmount)
	if err != nil {
		return nil, err
	}
	maxAmount, err := parseDecimal(i.MaxAmount)
	if err != nil {
		return nil, err
	}

	return &rule.ImportRule{
		RuleID:               i.RuleID,
		SourceID:             i.SourceID,
		Name:                 i.Name,
		Priority:             i.Priority,
		Enabled:              i.Enabled,
		TypePattern:          i.TypePattern,
		CategoryPattern:      i.CategoryPattern,
		CounterpartyPattern:  i.CounterpartyPattern,
		DescriptionPattern:   i.DescriptionPattern,
		StatusPattern:        i.StatusPattern,
		PaymentMethodPattern: i.PaymentMethodPattern,
		MinAmount:            minAmount,
		MaxAmount:            maxAmount,
		TimePattern:          i.TimePattern,
		TargetAccount:        i.TargetAccount,
		MethodAccount:        i.MethodAccount,
		CreatedAt:            i.CreatedAt,
		UpdatedAt:            i.UpdatedAt,
	}, nil
}

// CreateRule stores a new rule under its source
func (r *DynamoDBRuleRepository) CreateRule(ctx context.Context, ir *rule.ImportRule) (*rule.ImportRule, error) {
	item, err := marshalItem(newRuleItem(ir))
	if err != nil {
		return nil, err
	}
	if err := r.putNew(ctx, item, fmt.Sprintf("rule %s already exists", ir.RuleID)); err != nil {
		return nil, err
	}
	return ir, nil
}

// GetRule retrieves a rule of a source
func (r *DynamoDBRuleRepository) GetRule(ctx context.Context, sourceID string, ruleID string) (*rule.ImportRule, error) {
	item, err := r.getItem(ctx, sourcePK(sourceID), ruleSK(ruleID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("rule %s not found", ruleID))
	}

	var ri ruleItem
	if err := unmarshalItem(item, &ri); err != nil {
		return nil, err
	}
	return ri.toDomain()
}

// UpdateRule replaces a stored rule
func (r *DynamoDBRuleRepository) UpdateRule(ctx context.Context, ir *rule.ImportRule) (*rule.ImportRule, error) {
	item, err := marshalItem(newRuleItem(ir))
	if err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.name),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return nil, commonErrors.NewNotFoundError(fmt.Sprintf("rule %s not found", ir.RuleID))
		}
		return nil, commonErrors.NewStorageError("failed to update rule", err)
	}
	return ir, nil
}

// ListRules lists every rule of a source
func (r *DynamoDBRuleRepository) ListRules(ctx context.Context, sourceID string) ([]*rule.ImportRule, error) {
	items, err := r.queryPrefix(ctx, sourcePK(sourceID), rulePrefix)
	if err != nil {
		return nil, err
	}

	rules := make([]*rule.ImportRule, 0, len(items))
	for _, item := range items {
		var ri ruleItem
		if err := unmarshalItem(item, &ri); err != nil {
			return nil, err
		}
		ir, err := ri.toDomain()
		if err != nil {
			return nil, err
		}
		rules = append(rules, ir)
	}
	return rules, nil
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, commonErrors.NewInternalError("stored amount is not a decimal", err)
	}
	return &d, nil
}
