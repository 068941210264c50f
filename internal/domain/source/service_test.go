package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/source"
	"github.com/hirosato/go-bill-ledger/internal/platform/memory"
)

func TestCreateSource(t *testing.T) {
	ctx := context.Background()
	svc := source.NewService(memory.NewStore())

	src, err := svc.CreateSource(ctx, &source.CreateSourceRequest{SourceID: "alipay", Name: " Alipay ", Provider: "alipay"})
	require.NoError(t, err)
	assert.Equal(t, "Alipay", src.Name)

	generated, err := svc.CreateSource(ctx, &source.CreateSourceRequest{Name: "Bank CSV"})
	require.NoError(t, err)
	assert.Len(t, generated.SourceID, 36)

	_, err = svc.CreateSource(ctx, &source.CreateSourceRequest{SourceID: "alipay", Name: "Again"})
	assert.ErrorIs(t, err, errors.ErrConflict)

	_, err = svc.CreateSource(ctx, &source.CreateSourceRequest{SourceID: "a#b", Name: "Bad"})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = svc.CreateSource(ctx, &source.CreateSourceRequest{SourceID: "x"})
	assert.ErrorIs(t, err, errors.ErrValidation)

	sources, err := svc.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 2)

	_, err = svc.GetSource(ctx, "wechat")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
