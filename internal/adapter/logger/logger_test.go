package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newWithZap(zap.New(core), "storefront")

	l.Info("cart_item_added", "Added Latte", "req-1", map[string]interface{}{"quantity": 2})
	l.Error("checkout_failed", "Checkout failed", "req-2", nil, errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 2)

	info := entries[0].ContextMap()
	assert.Equal(t, "storefront", info["service"])
	assert.Equal(t, "cart_item_added", info["action"])
	assert.Equal(t, "req-1", info["request_id"])
	assert.Equal(t, map[string]interface{}{"quantity": 2}, info["details"])
	assert.Equal(t, "Added Latte", entries[0].Message)

	failed := entries[1].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", failed["error"])
	assert.NotContains(t, failed, "details")
}
