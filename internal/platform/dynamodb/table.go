// Package dynamodb holds the single-table definition shared by the
// DynamoDB repositories.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

const tableReadyTimeout = 2 * time.Minute

// TableDefinition describes the ledger table: string PK/SK plus the sparse
// GSI1 index listing unmatched raw transactions
func TableDefinition(tableName string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI1PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI1SK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String("GSI1"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("GSI1PK"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("GSI1SK"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	}
}

// EnsureTable creates the ledger table when it does not exist and waits
// until it is active. It reports whether the table was created.
func EnsureTable(ctx context.Context, admin client.TableAdmin, tableName string, logger *slog.Logger) (bool, error) {
	_, err := admin.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)})
	if err == nil {
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("failed to describe table %s: %w", tableName, err)
	}

	if _, err := admin.CreateTable(ctx, TableDefinition(tableName)); err != nil {
		return false, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	logger.Info("table created", "table", tableName)

	waiter := dynamodb.NewTableExistsWaiter(admin)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, tableReadyTimeout); err != nil {
		return true, fmt.Errorf("table %s did not become active: %w", tableName, err)
	}
	return true, nil
}
