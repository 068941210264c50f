package main

import (
	"fmt"

	"github.com/spf13/cobra"

	envconfig "github.com/hirosato/go-bill-ledger/internal/common/config"
	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb"
	dynamoClient "github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage the DynamoDB table",
}

var tableCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the ledger table with its index unless it already exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StoreBackend != envconfig.BackendDynamoDB {
			return fmt.Errorf("table create needs the dynamodb backend, not %s; the mysql schema is migrated on connect", cfg.StoreBackend)
		}

		client, err := dynamoClient.NewDynamoDBClient(cmd.Context(), cfg.AWSRegion, cfg.DynamoDBEndpoint, logger)
		if err != nil {
			return err
		}
		created, err := dynamodb.EnsureTable(cmd.Context(), client, cfg.DynamoDBTableName, logger)
		if err != nil {
			return err
		}
		status := map[string]interface{}{"table": cfg.DynamoDBTableName, "created": created}
		if created {
			return out.message(status, "created table %s", cfg.DynamoDBTableName)
		}
		return out.message(status, "table %s already exists", cfg.DynamoDBTableName)
	},
}

func init() {
	tableCmd.AddCommand(tableCreateCmd)
	rootCmd.AddCommand(tableCmd)
}
