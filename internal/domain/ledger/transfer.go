package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
)

// Transfer describes money moving between a payment method account and a
// target (category) account. It is the single construction used for
// imported, manually classified and batch-matched records.
type Transfer struct {
	Direction     importer.Direction
	Amount        decimal.Decimal
	MethodAccount string
	TargetAccount string
	Currency      string
}

// Postings builds the two postings of the transfer. Incoming money credits
// the method account; anything else debits it. The amount's sign is
// ignored, its magnitude is used.
func (t Transfer) Postings() []PostingInput {
	magnitude := t.Amount.Abs()

	methodAmount := magnitude.Neg()
	if t.Direction == importer.Incoming {
		methodAmount = magnitude
	}

	return []PostingInput{
		{Account: t.MethodAccount, Amount: methodAmount, Currency: t.Currency},
		{Account: t.TargetAccount, Amount: methodAmount.Neg(), Currency: t.Currency},
	}
}
