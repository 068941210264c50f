package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

func TestValidateAccountPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{path: "Assets", wantErr: false},
		{path: "Assets:Bank:Checking", wantErr: false},
		{path: "Expenses:餐饮", wantErr: false},
		{path: "", wantErr: true},
		{path: "Assets::Bank", wantErr: true},
		{path: "Assets:", wantErr: true},
		{path: "Assets: Bank", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidateAccountPath(tt.path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, errors.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSourceID(t *testing.T) {
	assert.NoError(t, ValidateSourceID("wechat"))
	assert.Error(t, ValidateSourceID(" "))
	assert.Error(t, ValidateSourceID("we#chat"))
	assert.Error(t, ValidateSourceID("we/chat"))
}

func TestValidateCurrency(t *testing.T) {
	assert.NoError(t, ValidateCurrency("CNY"))
	assert.Error(t, ValidateCurrency("cny"))
	assert.Error(t, ValidateCurrency("YUAN"))
}

func TestParsePositiveInt(t *testing.T) {
	n, err := ParsePositiveInt("20")
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = ParsePositiveInt("0")
	assert.Error(t, err)
	_, err = ParsePositiveInt("x")
	assert.Error(t, err)
}

func TestValidateRequiredString(t *testing.T) {
	assert.NoError(t, ValidateRequiredString("W1", "transactionNo"))

	err := ValidateRequiredString("  ", "transactionNo")
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "transactionNo is required")
}
