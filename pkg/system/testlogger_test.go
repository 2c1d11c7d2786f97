package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewTestLogger(t *testing.T) {
	logger := NewTestLogger()
	require.NotNil(t, logger)

	// Verify it's a sugared logger that can log without panicking
	logger.Info("test message")
	logger.Infow("test message with fields", "key", "value")
}

func TestNewObservedLogger(t *testing.T) {
	logger, logs := NewObservedLogger(zap.InfoLevel)
	logger.Debugw("hidden", "k", "v")
	logger.Infow("visible", "scheme", "app", "count", 2)

	require.Equal(t, 1, logs.Len())
	text := LoggedText(logs)
	assert.Contains(t, text, "visible")
	assert.Contains(t, text, `"scheme":"app"`)
	assert.NotContains(t, text, "hidden")
}
