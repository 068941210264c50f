package importer

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

// ParseAmount converts a provider amount string such as "¥1,234.56" or
// "-12.00 CNY" into a decimal. Currency symbols, currency codes, thousands
// separators and whitespace are dropped.
func ParseAmount(raw string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case unicode.IsDigit(r), r == '.', r == '-', r == '+':
			b.WriteRune(r)
		case r == ',', unicode.IsSpace(r), unicode.IsLetter(r), unicode.Is(unicode.Sc, r):
			// separators, currency codes and symbols (¥, ￥, $, €)
		default:
			return decimal.Zero, errors.NewValidationError("invalid amount: " + raw)
		}
	}

	cleaned := strings.TrimPrefix(b.String(), "+")
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, errors.NewValidationError("amount is required")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.NewInvalidInputError("invalid amount: "+raw, err)
	}
	return amount, nil
}
