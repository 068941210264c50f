package repository

import (
	"log/slog"

	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

// Factory creates repository instances sharing one client and table
type Factory struct {
	client    client.Client
	tableName string
	logger    *slog.Logger
}

// NewFactory creates a new repository factory
func NewFactory(client client.Client, tableName string, logger *slog.Logger) *Factory {
	return &Factory{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// SourceRepository returns an implementation of the source.Repository interface
func (f *Factory) SourceRepository() *DynamoDBSourceRepository {
	return NewDynamoDBSourceRepository(f.client, f.tableName, f.logger)
}

// RuleRepository returns an implementation of the rule.Repository interface
func (f *Factory) RuleRepository() *DynamoDBRuleRepository {
	return NewDynamoDBRuleRepository(f.client, f.tableName, f.logger)
}

// RawRepository returns an implementation of the importer.Repository interface
func (f *Factory) RawRepository() *DynamoDBRawRepository {
	return NewDynamoDBRawRepository(f.client, f.tableName, f.logger)
}

// LedgerRepository returns an implementation of the ledger.Repository interface
func (f *Factory) LedgerRepository() *DynamoDBLedgerRepository {
	return NewDynamoDBLedgerRepository(f.client, f.tableName, f.logger)
}

// AccountRepository returns an implementation of the account.Repository interface
func (f *Factory) AccountRepository() *DynamoDBAccountRepository {
	return NewDynamoDBAccountRepository(f.client, f.tableName, f.logger)
}
