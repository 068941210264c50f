package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Is(t *testing.T) {
	err := NewNotFoundError("account not found")

	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrValidation))

	wrapped := fmt.Errorf("loading rules: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestAppError_Error(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewStorageError("failed to write raw transaction", cause)

	assert.Equal(t, "STORAGE_ERROR: failed to write raw transaction: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "", CodeOf(cause))
}

func TestAppError_WithDetail(t *testing.T) {
	err := NewValidationError("amount is required").WithDetail("transactionNo", "T1")

	assert.Equal(t, "T1", err.Details["transactionNo"])
	assert.Equal(t, 400, err.StatusCode)
}
