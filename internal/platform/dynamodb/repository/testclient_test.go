package repository

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	existsClause   = regexp.MustCompile(`attribute_(not_)?exists\s*\(\s*(#\w+)\s*\)`)
	equalityClause = regexp.MustCompile(`(#\w+)\s*=\s*(:\w+)`)
	beginsClause   = regexp.MustCompile(`begins_with\s*\(\s*(#\w+)\s*,\s*(:\w+)\s*\)`)
)

// TestClient is an in-memory implementation of the DynamoDB client interface
// for testing. It understands the expressions the repositories build:
// equality plus begins_with key conditions, attribute_(not_)exists
// conditions, and SET/REMOVE updates.
type TestClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	// PageSize caps the items per Query page when positive
	PageSize int
}

// NewTestClient creates a new test client with an empty items map
func NewTestClient() *TestClient {
	return &TestClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, bool) {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return v.Value, true
}

func storageKey(key map[string]types.AttributeValue) string {
	pk, _ := stringAttr(key, "PK")
	sk, _ := stringAttr(key, "SK")
	return pk + "#" + sk
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// conditionHolds evaluates the attribute_(not_)exists clauses of a
// condition, all of which are ANDed by the repositories
func conditionHolds(condition *string, names map[string]string, item map[string]types.AttributeValue) bool {
	if condition == nil {
		return true
	}
	for _, m := range existsClause.FindAllStringSubmatch(*condition, -1) {
		_, present := item[names[m[2]]]
		if m[1] == "" && !present {
			return false
		}
		if m[1] != "" && present {
			return false
		}
	}
	return true
}

// applyUpdate applies SET and REMOVE clauses to a copy of item
func applyUpdate(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) map[string]types.AttributeValue {
	updated := copyItem(item)
	for _, clause := range strings.Split(expr, "\n") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "SET "):
			for _, m := range equalityClause.FindAllStringSubmatch(clause, -1) {
				updated[names[m[1]]] = values[m[2]]
			}
		case strings.HasPrefix(clause, "REMOVE "):
			for _, name := range strings.Split(strings.TrimPrefix(clause, "REMOVE "), ",") {
				delete(updated, names[strings.TrimSpace(name)])
			}
		}
	}
	return updated
}

// GetItem retrieves an item from the in-memory store
func (c *TestClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[storageKey(params.Key)]; exists {
		return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
	}
	return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{}}, nil
}

// PutItem adds or replaces an item in the in-memory store
func (c *TestClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := storageKey(params.Item)
	if !conditionHolds(params.ConditionExpression, params.ExpressionAttributeNames, c.items[key]) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	c.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// Query returns the items of one partition of the table or GSI1 in sort
// key order, paging by PageSize
func (c *TestClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expr := aws.ToString(params.KeyConditionExpression)
	names := params.ExpressionAttributeNames
	values := params.ExpressionAttributeValues

	eq := equalityClause.FindStringSubmatch(expr)
	partitionAttr := names[eq[1]]
	partition := values[eq[2]].(*types.AttributeValueMemberS).Value

	var prefixAttr, prefix string
	if m := beginsClause.FindStringSubmatch(expr); m != nil {
		prefixAttr = names[m[1]]
		prefix = values[m[2]].(*types.AttributeValueMemberS).Value
	}

	sortAttr := "SK"
	if params.IndexName != nil {
		sortAttr = "GSI1SK"
	}

	matched := make([]map[string]types.AttributeValue, 0)
	for _, item := range c.items {
		if v, ok := stringAttr(item, partitionAttr); !ok || v != partition {
			continue
		}
		if prefixAttr != "" {
			if v, ok := stringAttr(item, prefixAttr); !ok || !strings.HasPrefix(v, prefix) {
				continue
			}
		}
		matched = append(matched, copyItem(item))
	}
	sort.Slice(matched, func(i, j int) bool {
		a, _ := stringAttr(matched[i], sortAttr)
		b, _ := stringAttr(matched[j], sortAttr)
		return a < b
	})

	if len(params.ExclusiveStartKey) > 0 {
		start := storageKey(params.ExclusiveStartKey)
		for i, item := range matched {
			if storageKey(item) == start {
				matched = matched[i+1:]
				break
			}
		}
	}

	out := &dynamodb.QueryOutput{Items: matched}
	if c.PageSize > 0 && len(matched) > c.PageSize {
		out.Items = matched[:c.PageSize]
		last := out.Items[c.PageSize-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
	}
	return out, nil
}

// TransactWriteItems applies puts and updates all or nothing
func (c *TestClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	staged := make(map[string]map[string]types.AttributeValue, len(params.TransactItems))
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false

	current := func(key string) map[string]types.AttributeValue {
		if item, ok := staged[key]; ok {
			return item
		}
		return c.items[key]
	}

	for i, write := range params.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		switch {
		case write.Put != nil:
			key := storageKey(write.Put.Item)
			if !conditionHolds(write.Put.ConditionExpression, write.Put.ExpressionAttributeNames, current(key)) {
				reasons[i].Code = aws.String("ConditionalCheckFailed")
				failed = true
				continue
			}
			staged[key] = copyItem(write.Put.Item)
		case write.Update != nil:
			key := storageKey(write.Update.Key)
			existing := current(key)
			if !conditionHolds(write.Update.ConditionExpression, write.Update.ExpressionAttributeNames, existing) {
				reasons[i].Code = aws.String("ConditionalCheckFailed")
				failed = true
				continue
			}
			if existing == nil {
				existing = copyItem(write.Update.Key)
			}
			staged[key] = applyUpdate(existing, aws.ToString(write.Update.UpdateExpression),
				write.Update.ExpressionAttributeNames, write.Update.ExpressionAttributeValues)
		}
	}

	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}
	for key, item := range staged {
		c.items[key] = item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}
