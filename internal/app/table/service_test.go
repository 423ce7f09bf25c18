package table

import (
	"context"
	"testing"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/adapter/memory"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()
	sess, err := session.NewManager(store, logger.NewNop()).Open(ctx, "s-1")
	require.NoError(t, err)
	svc := NewService(logger.NewNop())

	active, err := svc.HasActiveTable(ctx, sess)
	require.NoError(t, err)
	assert.False(t, active)

	n, err := svc.BindFromScan(ctx, sess, "table-05")
	require.NoError(t, err)
	assert.Equal(t, "05", n)

	_, err = svc.BindFromScan(ctx, sess, "https://example.com/menu")
	assert.ErrorIs(t, err, domain.ErrInvalidTableCode)

	n, ok, err := svc.Number(ctx, sess)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "05", n)

	raw, found, err := store.Get(ctx, "s-1", session.KeyTableNumber)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"version":1,"data":"05"}`, string(raw))

	require.NoError(t, svc.Clear(ctx, sess))
	active, err = svc.HasActiveTable(ctx, sess)
	require.NoError(t, err)
	assert.False(t, active)

	_, found, err = store.Get(ctx, "s-1", session.KeyTableNumber)
	require.NoError(t, err)
	assert.False(t, found)
}
