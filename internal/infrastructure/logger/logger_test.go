package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("development logger honours level", func(t *testing.T) {
		log, err := New(Config{Environment: "development", Level: "debug"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("production logger filters below level", func(t *testing.T) {
		log, err := New(Config{Environment: "production", Level: "warn"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := New(Config{Environment: "production", Level: "loud"})
		assert.Error(t, err)
	})
}
