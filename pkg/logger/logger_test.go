package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	l, err := New("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New("debug", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", false)
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	require.NoError(t, Init("error", false))
	assert.False(t, Get().Core().Enabled(zapcore.WarnLevel))

	assert.Error(t, Init("loud", false))
	assert.True(t, Get().Core().Enabled(zapcore.ErrorLevel), "failed Init keeps the previous logger")
}
