package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerLevels(t *testing.T) {
	prod, err := NewLogger("production", "", "clinicfront")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zap.DebugLevel))
	assert.True(t, prod.Core().Enabled(zap.InfoLevel))

	quiet, err := NewLogger("production", "warn", "clinicfront")
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zap.InfoLevel))

	dev, err := NewLogger("development", "", "")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zap.DebugLevel))
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("production", "loud", "clinicfront")
	assert.Error(t, err)
}
