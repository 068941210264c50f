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
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
	"github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
)

// maxTransactItems is the DynamoDB limit of actions per TransactWriteItems
const maxTransactItems = 100

// DynamoDBLedgerRepository implements the ledger.Repository interface.
// A transaction item embeds its postings; each posting is also written
// under its account partition so balances are one query per account.
type DynamoDBLedgerRepository struct {
	table
}

// NewDynamoDBLedgerRepository creates a new DynamoDBLedgerRepository
func NewDynamoDBLedgerRepository(client client.Client, tableName string, logger *slog.Logger) *DynamoDBLedgerRepository {
	return &DynamoDBLedgerRepository{table{client: client, name: tableName, logger: logger}}
}

type transactionItem struct {
	PK                 string
	SK                 string
	Type               string
	TransactionID      string
	Kind               string
	Date               time.Time
	Payee              string   `dynamodbav:",omitempty"`
	Narration          string   `dynamodbav:",omitempty"`
	Tags               []string `dynamodbav:",omitempty"`
	Postings           []postingItem
	RawTransactionKeys []importer.RawKey `dynamodbav:",omitempty"`
	CreatedAt          time.Time
}

type postingItem struct {
	PK            string `dynamodbav:",omitempty"`
	SK            string `dynamodbav:",omitempty"`
	Type          string `dynamodbav:",omitempty"`
	PostingID     string
	TransactionID string
	Account       string
	Amount        string
	Currency      string
}

func newPostingItem(p ledger.Posting) postingItem {
	return postingItem{
		PostingID:     p.PostingID,
		TransactionID: p.TransactionID,
		Account:       p.Account,
		Amount:        p.Amount.String(),
		Currency:      p.Currency,
	}
}

func (i postingItem) toDomain() (ledger.Posting, error) {
	amount, err := decimal.NewFromString(i.Amount)
	if err != nil {
		return ledger.Posting{}, commonErrors.NewInternalError("stored posting amount is not a decimal", err)
	}
	return ledger.Posting{
		PostingID:     i.PostingID,
		TransactionID: i.TransactionID,
		Account:       i.Account,
		Amount:        amount,
		Currency:      i.Currency,
	}, nil
}

// CreateTransaction writes the transaction, its postings and the raw links
// in one TransactWriteItems call. Every link is conditioned on the raw
// transaction existing without a link.
func (r *DynamoDBLedgerRepository) CreateTransaction(ctx context.Context, tx *ledger.Transaction, links []importer.RawLink) error {
	if 1+len(tx.Postings)+len(links) > maxTransactItems {
		return commonErrors.NewValidationError(fmt.Sprintf("transaction exceeds %d writes", maxTransactItems))
	}

	ti := transactionItem{
		PK:                 transactionPK(tx.TransactionID),
		SK:                 transactionSK,
		Type:               itemTypeTx,
		TransactionID:      tx.TransactionID,
		Kind:               string(tx.Kind),
		Date:               tx.Date,
		Payee:              tx.Payee,
		Narration:          tx.Narration,
		Tags:               tx.Tags,
		Postings:           make([]postingItem, 0, len(tx.Postings)),
		RawTransactionKeys: tx.RawTransactionKeys,
		CreatedAt:          tx.CreatedAt,
	}
	for _, p := range tx.Postings {
		ti.Postings = append(ti.Postings, newPostingItem(p))
	}

	txItem, err := marshalItem(ti)
	if err != nil {
		return err
	}
	notExists, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	writes := make([]types.TransactWriteItem, 0, 1+len(tx.Postings)+len(links))
	writes = append(writes, types.TransactWriteItem{Put: &types.Put{
		TableName:                aws.String(r.name),
		Item:                     txItem,
		ConditionExpression:      notExists.Condition(),
		ExpressionAttributeNames: notExists.Names(),
	}})

	for _, p := range tx.Postings {
		pi := newPostingItem(p)
		pi.PK = postingsPK(p.Account)
		pi.SK = postingSK(p.PostingID)
		pi.Type = itemTypePost
		item, err := marshalItem(pi)
		if err != nil {
			return err
		}
		writes = append(writes, types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String(r.name),
			Item:      item,
		}})
	}

	for _, link := range links {
		update, err := linkUpdate(link)
		if err != nil {
			return err
		}
		update.TableName = aws.String(r.name)
		writes = append(writes, types.TransactWriteItem{Update: update})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && conditionFailed(canceled) {
			return commonErrors.NewConflictError("transaction exists or a raw transaction is missing or already linked")
		}
		r.logger.Error("failed to write transaction", "transactionId", tx.TransactionID, "error", err)
		return commonErrors.NewStorageError("failed to write transaction", err)
	}
	return nil
}

// linkUpdate attaches a link and drops the raw transaction from the
// unmatched index
func linkUpdate(link importer.RawLink) (*types.Update, error) {
	update := expression.Set(expression.Name("TransactionID"), expression.Value(link.TransactionID)).
		Set(expression.Name("TargetAccount"), expression.Value(link.TargetAccount)).
		Set(expression.Name("MethodAccount"), expression.Value(link.MethodAccount)).
		Set(expression.Name("LinkedAt"), expression.Value(link.LinkedAt)).
		Remove(expression.Name("GSI1PK")).
		Remove(expression.Name("GSI1SK"))
	cond := expression.AttributeExists(expression.Name("PK")).
		And(expression.AttributeNotExists(expression.Name("TransactionID")))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	return &types.Update{
		Key:                       keyOf(sourcePK(link.Key.SourceID), rawSK(link.Key.TransactionNo)),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

func conditionFailed(canceled *types.TransactionCanceledException) bool {
	for _, reason := range canceled.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

// GetTransaction retrieves a transaction with its postings
func (r *DynamoDBLedgerRepository) GetTransaction(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	item, err := r.getItem(ctx, transactionPK(transactionID), transactionSK)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("transaction %s not found", transactionID))
	}

	var ti transactionItem
	if err := unmarshalItem(item, &ti); err != nil {
		return nil, err
	}

	tx := &ledger.Transaction{
		TransactionID:      ti.TransactionID,
		Kind:               ledger.Kind(ti.Kind),
		Date:               ti.Date,
		Payee:              ti.Payee,
		Narration:          ti.Narration,
		Tags:               ti.Tags,
		CreatedAt:          ti.CreatedAt,
		RawTransactionKeys: ti.RawTransactionKeys,
		Postings:           make([]ledger.Posting, 0, len(ti.Postings)),
	}
	for _, pi := range ti.Postings {
		p, err := pi.toDomain()
		if err != nil {
			return nil, err
		}
		tx.Postings = append(tx.Postings, p)
	}
	return tx, nil
}

// ListPostings lists the postings made directly on an account
func (r *DynamoDBLedgerRepository) ListPostings(ctx context.Context, accountPath string) ([]ledger.Posting, error) {
	items, err := r.queryPrefix(ctx, postingsPK(accountPath), postingPrefix)
	if err != nil {
		return nil, err
	}

	postings := make([]ledger.Posting, 0, len(items))
	for _, item := range items {
		var pi postingItem
		if err := unmarshalItem(item, &pi); err != nil {
			return nil, err
		}
		p, err := pi.toDomain()
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, nil
}
