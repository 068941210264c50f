package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

// table holds what every repository of the single table shares
type table struct {
	client client.Client
	name   string
	logger *slog.Logger
}

func keyOf(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// getItem fetches one item; a missing item yields a nil map
func (t *table) getItem(ctx context.Context, pk, sk string) (map[string]types.AttributeValue, error) {
	result, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key:       keyOf(pk, sk),
	})
	if err != nil {
		return nil, commonErrors.NewStorageError("failed to get item", err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}
	return result.Item, nil
}

// putNew writes an item unless one with the same key exists
func (t *table) putNew(ctx context.Context, item map[string]types.AttributeValue, conflictMessage string) error {
	cond := expression.AttributeNotExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(t.name),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewConflictError(conflictMessage)
		}
		return commonErrors.NewStorageError("failed to put item", err)
	}
	return nil
}

// queryAll follows LastEvaluatedKey until the key condition is exhausted
func (t *table) queryAll(ctx context.Context, indexName string, keyCondition expression.KeyConditionBuilder) ([]map[string]types.AttributeValue, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if indexName != "" {
		input.IndexName = aws.String(indexName)
	}

	items := make([]map[string]types.AttributeValue, 0)
	for {
		result, err := t.client.Query(ctx, input)
		if err != nil {
			return nil, commonErrors.NewStorageError("failed to query items", err)
		}
		items = append(items, result.Items...)
		if len(result.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// queryPrefix lists the items of a partition whose sort key starts with prefix
func (t *table) queryPrefix(ctx context.Context, pk, skPrefix string) ([]map[string]types.AttributeValue, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(pk)).
		And(expression.Key("SK").BeginsWith(skPrefix))
	return t.queryAll(ctx, "", keyCondition)
}

func unmarshalItem(item map[string]types.AttributeValue, out interface{}) error {
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return commonErrors.NewInternalError("failed to unmarshal item", err)
	}
	return nil
}

func marshalItem(in interface{}) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(in)
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal item", err)
	}
	return item, nil
}
